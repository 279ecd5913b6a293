package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/utils"
)

const defaultUploadDir = "./uploads"

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves images
// stored on local disk
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Security: Prevent directory traversal attacks
	if !utils.IsSafeFilename(filename) || strings.Contains(filename, "..") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILENAME",
				"message": "Invalid filename",
			},
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := utils.AllowedImageFormats[ext]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Unsupported image type",
			},
		})
		return
	}

	uploadDir := defaultUploadDir
	if cfg := config.GetConfig(); cfg != nil && cfg.UploadDir != "" {
		uploadDir = cfg.UploadDir
	}
	filePath := filepath.Join(uploadDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "Image not found",
			},
		})
		return
	}

	c.Header("Content-Type", utils.ContentTypeFor(ext))
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
