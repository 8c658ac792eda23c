// Package pricing is the checkout pricing engine: it turns a cart plus
// the promotion and coupon catalogs into an itemized, deterministic
// total. Nothing in this package performs I/O; every catalog is passed
// in by the caller along with the reference instant, which is what
// keeps repeated calls byte-identical and the whole thing testable.
package pricing

import (
	"fmt"
	"time"

	"ayurveda-store/internal/models"
)

// CartLine is a regular product in the cart, merged by lot id on the
// client side.
type CartLine struct {
	LotID    int64 `json:"lot_id"`
	Quantity int   `json:"quantity"`
}

// BundleLine references a bulk promotion the customer added to the
// cart. Only the offer id crosses the wire; price and contents are
// resolved server-side so a stale or tampered cart cannot set them.
type BundleLine struct {
	PromotionID uint `json:"promotion_id"`
}

// Cart is the raw checkout input. Regular items and bundle offers are
// separate variants rather than one duck-typed list.
type Cart struct {
	Items   []CartLine   `json:"items"`
	Bundles []BundleLine `json:"bundles"`
}

// SummaryItem is one priced line of the checkout summary.
type SummaryItem struct {
	IsBundle       bool                   `json:"isBundle,omitempty"`
	LotID          int64                  `json:"lot_id,omitempty"`
	Name           string                 `json:"name"`
	Image          string                 `json:"image,omitempty"`
	Quantity       int                    `json:"quantity,omitempty"`
	UnitPrice      int64                  `json:"unit_price,omitempty"`
	PromoPrice     int64                  `json:"promo_price,omitempty"` // 0 = no promotion
	PromotionLabel string                 `json:"promotion_label,omitempty"`
	Products       []models.BundleProduct `json:"products,omitempty"`
	OriginalPrice  int64                  `json:"original_price"`
	FinalPrice     int64                  `json:"final_price"`
	Discount       int64                  `json:"discount"`
}

// Summary is the fully priced cart. Subtotal - TotalDiscount ==
// FinalTotal always holds; amounts are whole rupees. Warnings carry
// the lines that could no longer be priced and were left out.
type Summary struct {
	Items         []SummaryItem `json:"items"`
	Subtotal      int64         `json:"subtotal"`
	TotalDiscount int64         `json:"totalDiscount"`
	FinalTotal    int64         `json:"finalTotal"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// PriceCart prices every cart line against the current catalog and the
// active promotions, then aggregates. It is pure: same inputs and the
// same now produce the same Summary.
//
// A line whose product (or any bundle constituent) no longer exists in
// the catalog is EXCLUDED from the totals and reported in Warnings.
// That policy is applied uniformly; we never price a vanished product
// at zero because a zero line inside a persisted order looks like a
// free item rather than a removed one.
func PriceCart(cart Cart, products []models.Product, promos []models.ItemPromotion, bulks []models.BulkPromotion, now time.Time) Summary {
	byLot := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byLot[p.LotID] = p
	}
	bulkByID := make(map[uint]models.BulkPromotion, len(bulks))
	for _, b := range bulks {
		bulkByID[b.ID] = b
	}

	summary := Summary{Items: []SummaryItem{}}

	for _, line := range cart.Items {
		product, ok := byLot[line.LotID]
		if !ok {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("Item with Lot ID %d is no longer available and was removed from your order", line.LotID))
			continue
		}

		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}

		item := SummaryItem{
			LotID:         product.LotID,
			Name:          product.Name,
			Image:         product.Image,
			Quantity:      quantity,
			UnitPrice:     product.Price,
			OriginalPrice: product.Price * int64(quantity),
			FinalPrice:    product.Price * int64(quantity),
		}

		if promo := ResolveItemPromotion(product.LotID, promos, now); promo != nil {
			item.PromoPrice = promo.PromoPrice
			item.PromotionLabel = promo.MarketingLabel
			item.FinalPrice = promo.PromoPrice * int64(quantity)
			item.Discount = (product.Price - promo.PromoPrice) * int64(quantity)
		}

		summary.Items = append(summary.Items, item)
		summary.Subtotal += item.OriginalPrice
		summary.TotalDiscount += item.Discount
	}

	for _, line := range cart.Bundles {
		offer, ok := bulkByID[line.PromotionID]
		if !ok || !bundleStillOffered(offer, now) {
			summary.Warnings = append(summary.Warnings,
				"A bundle offer in your cart is no longer available and was removed from your order")
			continue
		}

		constituents, ok := resolveConstituents(offer, byLot)
		if !ok {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("Bundle %q is no longer available and was removed from your order", offer.MarketingLabel))
			continue
		}

		// Original price is the sum of the parts at their CURRENT
		// catalog price. The discount stays negative when an offer is
		// priced above its parts: that is an upstream data-entry error
		// the admin must see, not something to clamp away.
		var originalTotal int64
		for _, p := range constituents {
			originalTotal += p.Price
		}

		item := SummaryItem{
			IsBundle:      true,
			Name:          offer.MarketingLabel,
			Products:      constituents,
			OriginalPrice: originalTotal,
			FinalPrice:    offer.OfferPrice,
			Discount:      originalTotal - offer.OfferPrice,
		}

		summary.Items = append(summary.Items, item)
		summary.Subtotal += item.OriginalPrice
		summary.TotalDiscount += item.Discount
	}

	summary.FinalTotal = summary.Subtotal - summary.TotalDiscount
	return summary
}

// bundleStillOffered re-checks the offer window at pricing time. A
// bundle that expired between add-to-cart and checkout is treated the
// same as a deleted product.
func bundleStillOffered(offer models.BulkPromotion, now time.Time) bool {
	start, end := promoWindow(offer.StartDatetime, offer.StartDate, offer.EndDatetime, offer.EndDate)
	return windowContains(start, end, now)
}

// resolveConstituents snapshots the bundle's products for the order
// record. Strict: any missing lot disqualifies the whole bundle.
func resolveConstituents(offer models.BulkPromotion, byLot map[int64]models.Product) ([]models.BundleProduct, bool) {
	seen := make(map[int64]bool)
	var out []models.BundleProduct
	for _, lotID := range append(append([]int64{}, offer.BuyLotIDs...), offer.GetLotIDs...) {
		if seen[lotID] {
			continue
		}
		seen[lotID] = true
		p, ok := byLot[lotID]
		if !ok {
			return nil, false
		}
		out = append(out, models.BundleProduct{LotID: p.LotID, Name: p.Name, Price: p.Price})
	}
	return out, true
}

// PayableTotal is what the customer is actually asked to pay after the
// coupon layer. The displayed total is clamped at zero; the underlying
// coupon discount is not, since a fixed coupon can mathematically
// exceed a small cart.
func PayableTotal(summary Summary, couponDiscount int64) int64 {
	total := summary.FinalTotal - couponDiscount
	if total < 0 {
		return 0
	}
	return total
}
