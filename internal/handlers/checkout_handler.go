package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ayurveda-store/internal/database"
	"ayurveda-store/internal/models"
	"ayurveda-store/internal/pricing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// QuoteRequest is the cart preview payload: the cart plus an optional
// coupon the customer has applied client-side.
type QuoteRequest struct {
	Cart       pricing.Cart `json:"cart"`
	CouponCode string       `json:"coupon_code"`
}

// CheckoutRequest is QuoteRequest plus the shipping form.
type CheckoutRequest struct {
	Cart       pricing.Cart `json:"cart"`
	CouponCode string       `json:"coupon_code"`

	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	HouseNo  string `json:"houseNo" binding:"required"`
	Street   string `json:"street" binding:"required"`
	Locality string `json:"locality" binding:"required"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state" binding:"required"`
	Pincode  string `json:"pincode" binding:"required"`
}

// priceCartNow loads the catalogs and runs the engine. The product
// read is the one hard dependency: without prices there is nothing to
// quote, so its failure propagates. Promotion reads degrade.
func priceCartNow(cart pricing.Cart, now time.Time) (pricing.Summary, error) {
	var products []models.Product
	if err := database.DB.Find(&products).Error; err != nil {
		return pricing.Summary{}, err
	}

	promos, bulks, warnings := loadPromotionCatalogs()
	summary := pricing.PriceCart(cart, products, promos, bulks, now)
	summary.Warnings = append(warnings, summary.Warnings...)
	return summary, nil
}

func cartLotIDs(summary pricing.Summary) []int64 {
	var lots []int64
	for _, item := range summary.Items {
		if item.IsBundle {
			for _, p := range item.Products {
				lots = append(lots, p.LotID)
			}
			continue
		}
		lots = append(lots, item.LotID)
	}
	return lots
}

func couponErrorStatus(err error) int {
	if errors.Is(err, pricing.ErrCouponEmptyCode) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

// --- POST: Price a cart (public, cart preview + checkout summary) ---
func QuoteCart(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	now := time.Now()
	summary, err := priceCartNow(req.Cart, now)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog is temporarily unavailable, please try again"})
		return
	}

	response := gin.H{
		"summary":       summary,
		"payable_total": summary.FinalTotal,
	}

	// The coupon layer sits on top of the promotion-discounted total.
	// A bad coupon fails the quote loudly so the customer can fix or
	// remove the code; removing it is a pure client-side toggle.
	if req.CouponCode != "" {
		var coupons []models.Coupon
		if err := database.DB.Find(&coupons).Error; err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Coupons are temporarily unavailable, please try again"})
			return
		}

		coupon, discount, err := pricing.ValidateCoupon(req.CouponCode, coupons, now, summary.FinalTotal, cartLotIDs(summary))
		if err != nil {
			c.JSON(couponErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		response["coupon"] = coupon
		response["coupon_discount"] = discount
		response["payable_total"] = pricing.PayableTotal(summary, discount)
	}

	c.JSON(http.StatusOK, response)
}

// --- POST: Validate a coupon against the current cart (public) ---
func ValidateCoupon(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	now := time.Now()
	summary, err := priceCartNow(req.Cart, now)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog is temporarily unavailable, please try again"})
		return
	}

	var coupons []models.Coupon
	if err := database.DB.Find(&coupons).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Coupons are temporarily unavailable, please try again"})
		return
	}

	coupon, discount, err := pricing.ValidateCoupon(req.CouponCode, coupons, now, summary.FinalTotal, cartLotIDs(summary))
	if err != nil {
		c.JSON(couponErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coupon":          coupon,
		"coupon_discount": discount,
		"payable_total":   pricing.PayableTotal(summary, discount),
	})
}

// --- POST: Place an order (public) ---
// The priced summary is recomputed server-side and persisted verbatim.
// Coupon redemption happens INSIDE the order transaction: the coupon
// row is locked, the limit re-checked, and used_count incremented, so
// two customers racing for the last redemption cannot both win. (The
// old storefront never incremented used_count at all.)
func ProcessCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all required shipping fields"})
		return
	}

	now := time.Now()
	summary, err := priceCartNow(req.Cart, now)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog is temporarily unavailable. Your cart is safe, please try again"})
		return
	}

	if len(summary.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		return
	}

	order := models.Order{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		HouseNo:       req.HouseNo,
		Street:        req.Street,
		Locality:      req.Locality,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
		Subtotal:      summary.Subtotal,
		TotalDiscount: summary.TotalDiscount,
		Status:        models.StatusNotPacked,
		CreatedAt:     now,
		Items:         orderItems(summary),
	}

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		var couponDiscount int64

		if req.CouponCode != "" {
			// 1. Lock the matching coupon rows for this transaction
			code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
			var coupons []models.Coupon
			err := database.LockForUpdate(tx).
				Where("code = ?", code).
				Find(&coupons).Error
			if err != nil {
				return err
			}

			// 2. Re-run every eligibility check against the locked rows
			coupon, discount, err := pricing.ValidateCoupon(code, coupons, now, summary.FinalTotal, cartLotIDs(summary))
			if err != nil {
				return err
			}

			// 3. Consume one use
			err = tx.Model(&models.Coupon{}).Where("id = ?", coupon.ID).
				Update("used_count", gorm.Expr("used_count + 1")).Error
			if err != nil {
				return err
			}

			couponDiscount = discount
			order.CouponCode = coupon.Code
		}

		order.CouponDiscount = couponDiscount
		order.Total = pricing.PayableTotal(summary, couponDiscount)

		// 4. Write the order with its line items in one go
		return tx.Create(&order).Error
	})

	if txErr != nil {
		// A coupon rejection is the customer's problem to fix; anything
		// else means the write failed and they must RETRY - the cart is
		// never cleared on failure
		var minErr *pricing.MinPurchaseError
		if errors.Is(txErr, pricing.ErrCouponEmptyCode) ||
			errors.Is(txErr, pricing.ErrCouponNotFound) ||
			errors.Is(txErr, pricing.ErrCouponExpired) ||
			errors.Is(txErr, pricing.ErrCouponLimitReached) ||
			errors.Is(txErr, pricing.ErrCouponNotApplicable) ||
			errors.As(txErr, &minErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": txErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order. Your cart has been kept, please try again"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":         "Order placed successfully!",
		"order_id":        order.ID,
		"subtotal":        order.Subtotal,
		"discount":        order.TotalDiscount,
		"coupon_discount": order.CouponDiscount,
		"total":           order.Total,
		"warnings":        summary.Warnings,
	})
}

// orderItems freezes the priced summary into order lines
func orderItems(summary pricing.Summary) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, models.OrderItem{
			IsBundle:       item.IsBundle,
			LotID:          item.LotID,
			Name:           item.Name,
			Image:          item.Image,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			PromoPrice:     item.PromoPrice,
			PromotionLabel: item.PromotionLabel,
			Products:       item.Products,
			OriginalPrice:  item.OriginalPrice,
			FinalPrice:     item.FinalPrice,
			Discount:       item.Discount,
		})
	}
	return items
}
