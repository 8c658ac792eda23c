package handlers

import (
	"net/http"
	"strings"

	"ayurveda-store/internal/database"
	"ayurveda-store/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: List all coupons (admin) ---
func GetCoupons(c *gin.Context) {
	var coupons []models.Coupon
	if err := database.DB.Find(&coupons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch coupons"})
		return
	}
	c.JSON(http.StatusOK, coupons)
}

type CouponRequest struct {
	Code               string  `json:"code" binding:"required"`
	DiscountType       string  `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue      int64   `json:"discount_value" binding:"required,gt=0"`
	MinPurchase        int64   `json:"min_purchase"`
	MaxDiscount        int64   `json:"max_discount"`
	ApplicableProducts []int64 `json:"applicable_products"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	UsageLimit         int64   `json:"usage_limit"`
}

// --- POST: Create a coupon (admin) ---
// Codes are stored uppercased; used_count always starts at zero.
// Percentage values above 100 make no sense and are rejected here
// rather than silently producing negative totals later.
func AddCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if req.DiscountType == "percentage" && req.DiscountValue > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Percentage discount cannot exceed 100"})
		return
	}

	coupon := models.Coupon{
		Code:               strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountType:       req.DiscountType,
		DiscountValue:      req.DiscountValue,
		MinPurchase:        req.MinPurchase,
		MaxDiscount:        req.MaxDiscount,
		ApplicableProducts: req.ApplicableProducts,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		UsageLimit:         req.UsageLimit,
		UsedCount:          0,
		Active:             true,
	}
	if err := database.DB.Create(&coupon).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create coupon"})
		return
	}

	c.JSON(http.StatusCreated, coupon)
}

// --- PUT: Toggle a coupon's active flag (admin) ---
func ToggleCoupon(c *gin.Context) {
	var coupon models.Coupon
	if err := database.DB.First(&coupon, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coupon not found"})
		return
	}

	if err := database.DB.Model(&coupon).Update("active", !coupon.Active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coupon"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon updated", "active": !coupon.Active})
}

// --- DELETE: Remove a coupon (admin) ---
func DeleteCoupon(c *gin.Context) {
	if err := database.DB.Delete(&models.Coupon{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not delete coupon"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted successfully"})
}
