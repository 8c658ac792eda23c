package handlers

import (
	"net/http"

	"ayurveda-store/internal/database"
	"ayurveda-store/internal/models"

	"github.com/gin-gonic/gin"
)

// ReportData defines the shape of our analytics response
type ReportData struct {
	TotalRevenue  int64            `json:"total_revenue"`
	TotalOrders   int64            `json:"total_orders"`
	OrdersPending int64            `json:"orders_pending"` // everything not yet delivered
	TopSelling    []TopSellingItem `json:"top_selling"`
	RecentOrders  []models.Order   `json:"recent_orders"`
}

type TopSellingItem struct {
	ProductName string `json:"product_name"`
	Sold        int64  `json:"sold"`
	Revenue     int64  `json:"revenue"`
}

// --- GET: /api/admin/reports ---
func GetSalesReport(c *gin.Context) {
	var data ReportData

	// 1. Calculate Total Revenue (All time)
	err := database.DB.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&data.TotalRevenue).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate revenue"})
		return
	}

	// 2. Count Total Orders
	err = database.DB.Model(&models.Order{}).Count(&data.TotalOrders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count orders"})
		return
	}

	// 3. Count orders still in the fulfillment pipeline
	err = database.DB.Model(&models.Order{}).
		Where("status <> ?", models.StatusDelivered).
		Count(&data.OrdersPending).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending orders"})
		return
	}

	// 4. Find Top 5 Best Sellers (bundle lines are excluded - they have
	// no single product or quantity to attribute)
	err = database.DB.Table("order_items").
		Select("name as product_name, SUM(quantity) as sold, SUM(final_price) as revenue").
		Where("is_bundle = ?", false).
		Group("name").
		Order("sold desc").
		Limit(5).
		Scan(&data.TopSelling).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch top selling items"})
		return
	}

	// 5. Fetch the last 10 orders, newest first
	err = database.DB.Preload("Items").Order("created_at desc").Limit(10).Find(&data.RecentOrders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch recent orders"})
		return
	}

	c.JSON(http.StatusOK, data)
}
