package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ayurveda-store/internal/models"
)

// Coupon validation failures, one per user-facing message. Handlers
// surface these as transient notifications; none of them touch cart
// or order state.
var (
	ErrCouponEmptyCode     = errors.New("please enter a coupon code")
	ErrCouponNotFound      = errors.New("invalid or inactive coupon code")
	ErrCouponExpired       = errors.New("this coupon has expired")
	ErrCouponLimitReached  = errors.New("this coupon has reached its usage limit")
	ErrCouponNotApplicable = errors.New("this coupon does not apply to the items in your cart")
)

// MinPurchaseError carries the floor so the UI can interpolate it into
// the message.
type MinPurchaseError struct {
	Required int64
}

func (e *MinPurchaseError) Error() string {
	return fmt.Sprintf("a minimum purchase of ₹%d is required to use this coupon", e.Required)
}

// ValidateCoupon runs the eligibility checks in order, short-circuiting
// on the first failure, and computes the discount only once every check
// has passed. cartTotal is the promotion-discounted final total, NEVER
// the pre-promotion subtotal: the two discount layers are additive and
// a percentage coupon must not stack against the original price.
//
// Codes are matched case-insensitively; duplicates are legal at the
// storage layer and the first active record wins. The validator never
// mutates UsedCount - redemption is the order transaction's job.
func ValidateCoupon(code string, coupons []models.Coupon, now time.Time, cartTotal int64, cartLotIDs []int64) (*models.Coupon, int64, error) {
	// 1. A code must be entered at all
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, 0, ErrCouponEmptyCode
	}

	// 2. Find the first active record with that code
	var coupon *models.Coupon
	for i := range coupons {
		if coupons[i].Active && strings.ToUpper(coupons[i].Code) == code {
			coupon = &coupons[i]
			break
		}
	}
	if coupon == nil {
		return nil, 0, ErrCouponNotFound
	}

	// 3. Time window (closed on both ends, absent side unbounded)
	if !windowContains(coupon.StartDate, coupon.EndDate, now) {
		return nil, 0, ErrCouponExpired
	}

	// 4. Usage limit (0 = unlimited)
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return nil, 0, ErrCouponLimitReached
	}

	// 5. Minimum purchase floor
	if cartTotal < coupon.MinPurchase {
		return nil, 0, &MinPurchaseError{Required: coupon.MinPurchase}
	}

	// 6. Lot applicability: an empty list means the whole catalog,
	// otherwise at least one cart item must be on the list
	if len(coupon.ApplicableProducts) > 0 && !anyLotApplicable(coupon.ApplicableProducts, cartLotIDs) {
		return nil, 0, ErrCouponNotApplicable
	}

	return coupon, couponDiscount(coupon, cartTotal), nil
}

func anyLotApplicable(applicable, cartLots []int64) bool {
	allowed := make(map[int64]bool, len(applicable))
	for _, lotID := range applicable {
		allowed[lotID] = true
	}
	for _, lotID := range cartLots {
		if allowed[lotID] {
			return true
		}
	}
	return false
}

// couponDiscount computes the rupee discount for an eligible coupon.
// Percentage discounts round to the nearest rupee and respect the cap;
// fixed discounts are returned as-is even when they exceed the cart
// total - the caller clamps the DISPLAYED total at zero instead.
func couponDiscount(coupon *models.Coupon, cartTotal int64) int64 {
	if coupon.DiscountType == "percentage" {
		discount := (cartTotal*coupon.DiscountValue + 50) / 100
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
		return discount
	}
	return coupon.DiscountValue
}
