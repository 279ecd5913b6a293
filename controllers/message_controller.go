package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/services"
)

// SendMessageRequest represents the request body for sending a message.
// Exactly one of receiverId and groupId is set.
type SendMessageRequest struct {
	ReceiverID *string `json:"receiverId"`
	GroupID    *string `json:"groupId"`
	Content    string  `json:"content" binding:"required"`
}

// SendMessage handles POST /api/v1/messages
func SendMessage(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	message, err := svc.Messages.SendMessage(c.Request.Context(), services.MessageInput{
		SenderID:   user.ID,
		ReceiverID: req.ReceiverID,
		GroupID:    req.GroupID,
		Content:    req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListConversation handles GET /api/v1/messages/conversations/:userId - the
// direct thread with another user, oldest first
func ListConversation(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}

	messages, err := svc.Messages.ListConversation(c.Request.Context(), user.ID, c.Param("userId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// ListGroupMessages handles GET /api/v1/messages/groups/:groupId
func ListGroupMessages(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}

	messages, err := svc.Messages.ListGroupMessages(c.Request.Context(), c.Param("groupId"), user.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// MarkMessageRead handles POST /api/v1/messages/:id/read (receiver only)
func MarkMessageRead(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	message, err := svc.Messages.MarkRead(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    message,
	})
}
