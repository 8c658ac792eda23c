package handlers

import (
	"net/http"
	"time"

	"ayurveda-store/internal/database"
	"ayurveda-store/internal/models"
	"ayurveda-store/internal/pricing"

	"github.com/gin-gonic/gin"
)

// loadPromotionCatalogs reads everything the resolver needs in one
// upfront pass. A missing/broken bulk_promotions table degrades to an
// empty list because the storefront predates bundles and older
// deployments never created it.
func loadPromotionCatalogs() (promos []models.ItemPromotion, bulks []models.BulkPromotion, warnings []string) {
	if err := database.DB.Find(&promos).Error; err != nil {
		promos = nil
		warnings = append(warnings, "Promotions are temporarily unavailable, prices shown without discounts")
	}
	if err := database.DB.Find(&bulks).Error; err != nil {
		bulks = nil
	}
	return promos, bulks, warnings
}

// --- GET: Active item promotions (public, decorates "on sale" badges) ---
func GetActivePromotions(c *gin.Context) {
	var products []models.Product
	if err := database.DB.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	promos, _, warnings := loadPromotionCatalogs()

	now := time.Now()
	active := []models.ItemPromotion{}
	for _, p := range products {
		if promo := pricing.ResolveItemPromotion(p.LotID, promos, now); promo != nil {
			active = append(active, *promo)
		}
	}

	// A failed promotion read degrades to "nothing on sale" with a
	// visible warning instead of taking the storefront down
	c.JSON(http.StatusOK, gin.H{"promotions": active, "warnings": warnings})
}

// --- GET: Active bundles with resolved products (public) ---
func GetActiveBundles(c *gin.Context) {
	var products []models.Product
	if err := database.DB.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	_, bulks, _ := loadPromotionCatalogs()

	bundles := pricing.ResolveActiveBundles(bulks, products, time.Now())
	if bundles == nil {
		bundles = []pricing.Bundle{}
	}
	c.JSON(http.StatusOK, bundles)
}

// --- GET: Full promotion list (admin) ---
func GetPromotions(c *gin.Context) {
	var promos []models.ItemPromotion
	if err := database.DB.Find(&promos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch promotions"})
		return
	}
	c.JSON(http.StatusOK, promos)
}

type PromotionRequest struct {
	LotID          int64  `json:"lot_id" binding:"required"`
	MarketingLabel string `json:"marketing_label" binding:"required"`
	PromoPrice     int64  `json:"promo_price" binding:"required,gt=0"`
	StartDatetime  string `json:"start_datetime"`
	EndDatetime    string `json:"end_datetime"`
}

// --- POST: Create an item promotion (admin) ---
func AddPromotion(c *gin.Context) {
	var req PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// The lot must currently exist; a promotion on a vanished lot would
	// never resolve anyway
	var count int64
	database.DB.Model(&models.Product{}).Where("lot_id = ?", req.LotID).Count(&count)
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No product with that Lot ID"})
		return
	}

	promo := models.ItemPromotion{
		LotID:          req.LotID,
		MarketingLabel: req.MarketingLabel,
		PromoPrice:     req.PromoPrice,
		StartDatetime:  req.StartDatetime,
		EndDatetime:    req.EndDatetime,
	}
	if err := database.DB.Create(&promo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create promotion"})
		return
	}

	c.JSON(http.StatusCreated, promo)
}

// --- DELETE: Remove an item promotion (admin) ---
func DeletePromotion(c *gin.Context) {
	if err := database.DB.Delete(&models.ItemPromotion{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not delete promotion"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Promotion deleted successfully"})
}

// --- GET: Full bulk promotion list (admin) ---
func GetBulkPromotions(c *gin.Context) {
	var bulks []models.BulkPromotion
	if err := database.DB.Find(&bulks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bulk promotions"})
		return
	}
	c.JSON(http.StatusOK, bulks)
}

type BulkPromotionRequest struct {
	OfferType       string  `json:"offer_type" binding:"required,oneof=bogo buy_more"`
	BuyLotIDs       []int64 `json:"buy_lot_ids" binding:"required,min=1"`
	GetLotIDs       []int64 `json:"get_lot_ids"`
	DiscountPercent int64   `json:"discount_percent"`
	OfferPrice      int64   `json:"offer_price" binding:"required,gt=0"`
	MarketingLabel  string  `json:"marketing_label" binding:"required"`
	StartDatetime   string  `json:"start_datetime"`
	EndDatetime     string  `json:"end_datetime"`
}

// --- POST: Create a bulk offer (admin) ---
func AddBulkPromotion(c *gin.Context) {
	var req BulkPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// Offer-type shape rules
	if req.OfferType == "buy_more" && len(req.BuyLotIDs) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Buy 2 or More offers need at least 2 products"})
		return
	}
	if req.OfferType == "bogo" && len(req.GetLotIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BOGO offers need at least 1 free product"})
		return
	}

	bulk := models.BulkPromotion{
		OfferType:       req.OfferType,
		BuyLotIDs:       req.BuyLotIDs,
		GetLotIDs:       req.GetLotIDs,
		DiscountPercent: req.DiscountPercent,
		OfferPrice:      req.OfferPrice,
		MarketingLabel:  req.MarketingLabel,
		StartDatetime:   req.StartDatetime,
		EndDatetime:     req.EndDatetime,
	}
	if err := database.DB.Create(&bulk).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bulk promotion"})
		return
	}

	c.JSON(http.StatusCreated, bulk)
}

// --- DELETE: Remove a bulk offer (admin) ---
func DeleteBulkPromotion(c *gin.Context) {
	if err := database.DB.Delete(&models.BulkPromotion{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not delete bulk promotion"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bulk promotion deleted successfully"})
}
