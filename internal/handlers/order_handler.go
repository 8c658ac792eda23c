package handlers

import (
	"errors"
	"net/http"

	"ayurveda-store/internal/database"
	"ayurveda-store/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- GET: List orders (admin), newest first, optional ?status= filter ---
func GetOrders(c *gin.Context) {
	query := database.DB.Preload("Items").Order("created_at desc")

	if status := c.Query("status"); status != "" && status != "All" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// --- GET: A customer's own orders by email (public) ---
func GetOrdersByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	var orders []models.Order
	err := database.DB.Preload("Items").
		Where("email = ?", email).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

// nextStatus walks the fulfillment workflow one step forward.
// Delivered is terminal.
func nextStatus(status string) string {
	switch status {
	case models.StatusNotPacked:
		return models.StatusAwaitingPickup
	case models.StatusAwaitingPickup:
		return models.StatusShipping
	case models.StatusShipping:
		return models.StatusDelivered
	}
	return models.StatusDelivered
}

var errOrderDelivered = errors.New("order is already delivered")

// --- PUT: Advance an order to the next fulfillment status (admin) ---
// Statuses only ever move forward; there is no way to un-deliver an
// order through the API. The row is locked for the read-modify-write so
// two admins clicking at the same moment advance two steps, not one.
func AdvanceOrderStatus(c *gin.Context) {
	var status string

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := database.LockForUpdate(tx).First(&order, c.Param("id")).Error; err != nil {
			return err
		}

		if order.Status == models.StatusDelivered {
			return errOrderDelivered
		}

		status = nextStatus(order.Status)
		return tx.Model(&order).Update("status", status).Error
	})

	if txErr != nil {
		switch {
		case errors.Is(txErr, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(txErr, errOrderDelivered):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Order is already delivered"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": status})
}

// --- DELETE: Remove an order (admin) ---
// Header and line items go in one transaction: an order either exists
// whole or not at all, never as a header stripped of its lines.
func DeleteOrder(c *gin.Context) {
	id := c.Param("id")

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
