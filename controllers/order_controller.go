package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/services"
)

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	ServiceID    string `json:"serviceId" binding:"required"`
	Requirements string `json:"requirements"`
	Plan         string `json:"plan"`
}

// UpdateOrderStatusRequest is the body of PUT /orders/:id/status. The
// version is the one the caller read; the write fails if it moved on.
type UpdateOrderStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Version *int   `json:"version" binding:"required"`
}

// OrderActionRequest is the optional body of the order action endpoints
type OrderActionRequest struct {
	Version *int `json:"version"`
}

// CreateOrder handles POST /api/v1/orders - places an order for a service
func CreateOrder(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := svc.Orders.Checkout(c.Request.Context(), user.ID, req.ServiceID, req.Requirements, req.Plan)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - the caller's orders, newest first.
// ?as=client|freelancer picks the side of the table; it defaults to the
// caller's role.
func ListOrders(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	role := user.Role
	switch as := c.Query("as"); as {
	case "":
	case models.RoleClient, models.RoleFreelancer:
		role = as
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_QUERY_PARAMETER",
				"message": "as must be client or freelancer",
			},
		})
		return
	}

	orders, err := svc.Orders.ListOrders(c.Request.Context(), services.OrderQuery{
		UserID: user.ID,
		Role:   role,
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	presented := make([]*models.Order, 0, len(orders))
	for i := range orders {
		presented = append(presented, presentOrder(c.Request.Context(), &orders[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    presented,
	})
}

// GetOrderAnalytics handles GET /api/v1/orders/analytics
func GetOrderAnalytics(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	analytics, err := svc.Orders.GetOrderAnalytics(c.Request.Context(), user.ID, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    analytics,
	})
}

// GetOrder handles GET /api/v1/orders/:id - visible to the order's parties
func GetOrder(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	order, err := svc.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if !order.IsParty(user.ID) && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    presentOrder(c.Request.Context(), order),
	})
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status - an admin
// override that skips the transition table but not the version check
func UpdateOrderStatus(c *gin.Context) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only admins can set an order status directly", models.RoleAdmin) {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := svc.Orders.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AcceptOrder handles POST /api/v1/orders/:id/accept (freelancer)
func AcceptOrder(c *gin.Context) {
	transitionOrder(c, models.OrderStatusInProgress)
}

// DeclineOrder handles POST /api/v1/orders/:id/decline (freelancer)
func DeclineOrder(c *gin.Context) {
	transitionOrder(c, models.OrderStatusCancelled)
}

// CompleteOrder handles POST /api/v1/orders/:id/complete (freelancer)
func CompleteOrder(c *gin.Context) {
	transitionOrder(c, models.OrderStatusCompleted)
}

// DisputeOrder handles POST /api/v1/orders/:id/dispute (client)
func DisputeOrder(c *gin.Context) {
	transitionOrder(c, models.OrderStatusDisputed)
}

func transitionOrder(c *gin.Context, status string) {
	svc := appServices()
	user, ok := currentUser(c, svc)
	if !ok {
		return
	}

	var req OrderActionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			validationError(c, err)
			return
		}
	}

	order, err := svc.Orders.TransitionOrder(c.Request.Context(), c.Param("id"), user.ID, status, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
