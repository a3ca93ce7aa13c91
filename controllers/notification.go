package controllers

import (
	"net/http"

	"bengkel-backend/services"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

func (nc *NotificationController) GetNotificationLogs(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return
	}
	logs, err := nc.notifications.ListLogs(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, "GetNotificationLogs", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// SendLowStockAlert runs the scheduled low-stock check on demand.
func (nc *NotificationController) SendLowStockAlert(c *gin.Context) {
	entry, err := nc.notifications.SendLowStockAlert(c.Request.Context())
	if err != nil {
		respondServiceError(c, "SendLowStockAlert", err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"message": "No alert sent"})
		return
	}
	c.JSON(http.StatusOK, entry)
}
