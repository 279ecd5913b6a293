package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/kendall-kelly/freelance-market-api/utils"
)

// ImageService stores service listing images and resolves them to URLs
type ImageService interface {
	// UploadImage validates and stores an image file, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL resolves a storage key to a URL a browser can load
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

var imageServiceInstance ImageService

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// S3ImageService implements ImageService on top of S3
type S3ImageService struct {
	s3Service S3Interface
}

// InitImageService installs an S3-backed image service
func InitImageService(s3Service S3Interface) ImageService {
	imageServiceInstance = &S3ImageService{s3Service: s3Service}
	return imageServiceInstance
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	s3Key, err := s.s3Service.UploadFile(ctx, fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s3Key, nil
}

// GetImageURL returns a presigned URL for S3 keys. Anything else (an
// absolute URL set by the owner) is returned unchanged.
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if !strings.HasPrefix(imageKey, S3KeyPrefix) {
		return imageKey, nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if !strings.HasPrefix(imageKey, S3KeyPrefix) {
		return nil
	}
	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// LocalImageService stores images on local disk, served back through
// GET /api/v1/uploads/:filename
type LocalImageService struct {
	dir string
}

// InitLocalImageService installs a disk-backed image service rooted at dir
func InitLocalImageService(dir string) ImageService {
	imageServiceInstance = &LocalImageService{dir: dir}
	return imageServiceInstance
}

// UploadImage validates the file and writes it under the upload directory.
// The key is the public URL path.
func (s *LocalImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	filename, err := utils.SaveUploadedFile(fileHeader, s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return utils.GetImageURL(filename), nil
}

// GetImageURL returns the key, which already is a URL path
func (s *LocalImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	return imageKey, nil
}

// DeleteImage removes the file behind a key produced by UploadImage
func (s *LocalImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if !strings.HasPrefix(imageKey, utils.UploadURLPrefix) {
		return nil
	}

	path := filepath.Join(s.dir, filepath.Base(imageKey))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
