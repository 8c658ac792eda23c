package models

import (
	"time"
)

// User - The admin console account (store owner / staff)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"` // Never return this in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product - The Catalog
// LotID is the stable identifier promotions and coupons point at.
// It survives delete-and-recreate of the storage record, which is why
// it is separate from the primary key.
type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	LotID       int64  `gorm:"uniqueIndex" json:"lot_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"` // Whole rupees, no paisa
	Description string `json:"description"`
	Image       string `gorm:"type:longtext" json:"image"`
}

// ItemPromotion - A time-bounded sale price on a single lot.
// StartDate/EndDate are legacy date-only fields; the datetime fields
// take precedence when both are present. All four are stored as the
// raw strings the admin screen submits.
type ItemPromotion struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	LotID          int64  `gorm:"index" json:"lot_id"`
	MarketingLabel string `json:"marketing_label"` // e.g. "40% OFF"
	PromoPrice     int64  `json:"promo_price"`
	StartDatetime  string `json:"start_datetime"`
	EndDatetime    string `json:"end_datetime"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

// BulkPromotion - A multi-product bundle offer priced as a flat total.
// offer_type is "bogo" (get-set is free) or "buy_more" (discounted
// bundle across >= 2 buy lots, GetLotIDs empty).
type BulkPromotion struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	OfferType       string  `json:"offer_type"`
	BuyLotIDs       []int64 `gorm:"serializer:json" json:"buy_lot_ids"`
	GetLotIDs       []int64 `gorm:"serializer:json" json:"get_lot_ids"`
	DiscountPercent int64   `json:"discount_percent"`
	OfferPrice      int64   `json:"offer_price"`
	MarketingLabel  string  `json:"marketing_label"`
	StartDatetime   string  `json:"start_datetime"`
	EndDatetime     string  `json:"end_datetime"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
}

// Coupon - A checkout discount code.
// Code is NOT unique at the storage layer: the validator picks the
// first active, in-window match. Empty ApplicableProducts means the
// coupon applies to the whole catalog.
type Coupon struct {
	ID                 uint    `gorm:"primaryKey" json:"id"`
	Code               string  `gorm:"index" json:"code"` // stored uppercased
	DiscountType       string  `json:"discount_type"`     // "percentage" or "fixed"
	DiscountValue      int64   `json:"discount_value"`
	MinPurchase        int64   `json:"min_purchase"`
	MaxDiscount        int64   `json:"max_discount"` // percentage type only, 0 = no cap
	ApplicableProducts []int64 `gorm:"serializer:json" json:"applicable_products"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	UsageLimit         int64   `json:"usage_limit"` // 0 = unlimited
	UsedCount          int64   `json:"used_count"`
	Active             bool    `json:"active"`
}

// Order statuses - forward-only fulfillment workflow
const (
	StatusNotPacked      = "Not Packed"
	StatusAwaitingPickup = "Awaiting Pickup"
	StatusShipping       = "Shipping"
	StatusDelivered      = "Delivered"
)

// Order - The Transaction Header
// The priced summary is embedded verbatim at submission time; later
// catalog or promotion changes never touch a placed order.
type Order struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Name           string      `json:"name"`
	Phone          string      `json:"phone"`
	Email          string      `gorm:"index" json:"email"`
	HouseNo        string      `json:"houseNo"`
	Street         string      `json:"street"`
	Locality       string      `json:"locality"`
	City           string      `json:"city"`
	State          string      `json:"state"`
	Pincode        string      `json:"pincode"`
	Subtotal       int64       `json:"subtotal"`
	TotalDiscount  int64       `json:"discount"`
	CouponCode     string      `json:"coupon_code"`
	CouponDiscount int64       `json:"coupon_discount"`
	Total          int64       `json:"total"` // payable after all discounts, floored at 0
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	Items          []OrderItem `gorm:"foreignKey:OrderID" json:"cart"`
}

// OrderItem - One priced line of an order, frozen at checkout.
// Regular lines carry LotID/Quantity/UnitPrice; bundle lines carry the
// constituent product snapshot instead.
type OrderItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderID        uint            `gorm:"index" json:"order_id"`
	IsBundle       bool            `json:"isBundle"`
	LotID          int64           `json:"lot_id,omitempty"`
	Name           string          `json:"name"`
	Image          string          `gorm:"type:longtext" json:"image,omitempty"`
	Quantity       int             `json:"quantity,omitempty"`
	UnitPrice      int64           `json:"unit_price,omitempty"`
	PromoPrice     int64           `json:"promo_price,omitempty"` // 0 = no promotion applied
	PromotionLabel string          `json:"promotion_label,omitempty"`
	Products       []BundleProduct `gorm:"serializer:json" json:"products,omitempty"`
	OriginalPrice  int64           `json:"original_price"`
	FinalPrice     int64           `json:"final_price"`
	Discount       int64           `json:"discount"`
}

// BundleProduct - Constituent snapshot inside a bundle order line
type BundleProduct struct {
	LotID int64  `json:"lot_id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}
