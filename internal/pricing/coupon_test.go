package pricing

import (
	"errors"
	"testing"
	"time"

	"ayurveda-store/internal/models"
)

func activeCoupon() models.Coupon {
	return models.Coupon{
		Code:          "SAVE10",
		DiscountType:  "percentage",
		DiscountValue: 10,
		Active:        true,
	}
}

func TestValidateCoupon_EmptyCode(t *testing.T) {
	_, _, err := ValidateCoupon("   ", []models.Coupon{activeCoupon()}, testNow, 1000, nil)
	if !errors.Is(err, ErrCouponEmptyCode) {
		t.Errorf("expected ErrCouponEmptyCode, got %v", err)
	}
}

func TestValidateCoupon_NotFound(t *testing.T) {
	_, _, err := ValidateCoupon("NOPE", []models.Coupon{activeCoupon()}, testNow, 1000, nil)
	if !errors.Is(err, ErrCouponNotFound) {
		t.Errorf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestValidateCoupon_InactiveRecordIsNotFound(t *testing.T) {
	coupon := activeCoupon()
	coupon.Active = false
	_, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 1000, nil)
	if !errors.Is(err, ErrCouponNotFound) {
		t.Errorf("inactive coupon must read as not found, got %v", err)
	}
}

func TestValidateCoupon_CaseInsensitiveMatch(t *testing.T) {
	coupon, discount, err := ValidateCoupon("save10", []models.Coupon{activeCoupon()}, testNow, 1000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coupon.Code != "SAVE10" {
		t.Errorf("expected normalized match on SAVE10, got %q", coupon.Code)
	}
	if discount != 100 {
		t.Errorf("expected discount 100, got %d", discount)
	}
}

func TestValidateCoupon_Expired(t *testing.T) {
	coupon := activeCoupon()
	coupon.EndDate = testNow.Add(-time.Hour).Format("2006-01-02T15:04")
	_, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 1000, nil)
	if !errors.Is(err, ErrCouponExpired) {
		t.Errorf("expected ErrCouponExpired, got %v", err)
	}
}

func TestValidateCoupon_NotYetStarted(t *testing.T) {
	coupon := activeCoupon()
	coupon.StartDate = testNow.Add(time.Hour).Format("2006-01-02T15:04")
	_, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 1000, nil)
	if !errors.Is(err, ErrCouponExpired) {
		t.Errorf("expected ErrCouponExpired before the start date, got %v", err)
	}
}

func TestValidateCoupon_LimitReached(t *testing.T) {
	coupon := activeCoupon()
	coupon.UsageLimit = 5
	coupon.UsedCount = 5
	_, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 1000, nil)
	if !errors.Is(err, ErrCouponLimitReached) {
		t.Errorf("expected ErrCouponLimitReached, got %v", err)
	}
}

func TestValidateCoupon_ZeroLimitIsUnlimited(t *testing.T) {
	coupon := activeCoupon()
	coupon.UsedCount = 100000
	if _, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 1000, nil); err != nil {
		t.Errorf("usage limit 0 must be unlimited, got %v", err)
	}
}

func TestValidateCoupon_BelowMinimumCarriesFloor(t *testing.T) {
	coupon := activeCoupon()
	coupon.MinPurchase = 500
	_, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 499, nil)

	var minErr *MinPurchaseError
	if !errors.As(err, &minErr) {
		t.Fatalf("expected MinPurchaseError, got %v", err)
	}
	if minErr.Required != 500 {
		t.Errorf("expected floor 500 in the error, got %d", minErr.Required)
	}
}

func TestValidateCoupon_PercentageCapClamps(t *testing.T) {
	// 50 percent of 1000 is 500, capped down to 100
	coupon := models.Coupon{
		Code: "HALF", DiscountType: "percentage", DiscountValue: 50,
		MaxDiscount: 100, Active: true,
	}
	_, discount, err := ValidateCoupon("HALF", []models.Coupon{coupon}, testNow, 1000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if discount != 100 {
		t.Errorf("expected capped discount 100, got %d", discount)
	}
}

func TestValidateCoupon_PercentageRoundsToNearestRupee(t *testing.T) {
	coupon := models.Coupon{Code: "TEN", DiscountType: "percentage", DiscountValue: 10, Active: true}
	_, discount, err := ValidateCoupon("TEN", []models.Coupon{coupon}, testNow, 1205, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10% of 1205 = 120.5, rounds to 121
	if discount != 121 {
		t.Errorf("expected rounded discount 121, got %d", discount)
	}
}

func TestValidateCoupon_FixedExceedingTotalNotClamped(t *testing.T) {
	coupon := models.Coupon{Code: "FLAT200", DiscountType: "fixed", DiscountValue: 200, Active: true}
	_, discount, err := ValidateCoupon("FLAT200", []models.Coupon{coupon}, testNow, 150, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The discount itself stays 200; only the displayed total clamps
	if discount != 200 {
		t.Errorf("fixed discount must not be clamped, got %d", discount)
	}
	if payable := PayableTotal(Summary{FinalTotal: 150}, discount); payable != 0 {
		t.Errorf("expected displayed total 0, got %d", payable)
	}
}

func TestValidateCoupon_DuplicateCodesFirstActiveWins(t *testing.T) {
	coupons := []models.Coupon{
		{Code: "SAVE10", DiscountType: "fixed", DiscountValue: 50, Active: false},
		{Code: "SAVE10", DiscountType: "fixed", DiscountValue: 75, Active: true},
		{Code: "SAVE10", DiscountType: "fixed", DiscountValue: 99, Active: true},
	}
	coupon, discount, err := ValidateCoupon("SAVE10", coupons, testNow, 1000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coupon.DiscountValue != 75 || discount != 75 {
		t.Errorf("expected the first ACTIVE duplicate to win, got value %d", coupon.DiscountValue)
	}
}

func TestValidateCoupon_LotApplicability(t *testing.T) {
	coupon := activeCoupon()
	coupon.ApplicableProducts = []int64{1402, 1403}

	_, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 1000, []int64{1401})
	if !errors.Is(err, ErrCouponNotApplicable) {
		t.Errorf("expected ErrCouponNotApplicable, got %v", err)
	}

	if _, _, err := ValidateCoupon("SAVE10", []models.Coupon{coupon}, testNow, 1000, []int64{1401, 1403}); err != nil {
		t.Errorf("one matching lot should satisfy applicability, got %v", err)
	}
}

func TestValidateCoupon_EmptyApplicabilityMeansAllProducts(t *testing.T) {
	if _, _, err := ValidateCoupon("SAVE10", []models.Coupon{activeCoupon()}, testNow, 1000, []int64{42}); err != nil {
		t.Errorf("empty applicable list must accept any cart, got %v", err)
	}
}

func TestValidateCoupon_NeverMutatesUsedCount(t *testing.T) {
	coupons := []models.Coupon{activeCoupon()}
	if _, _, err := ValidateCoupon("SAVE10", coupons, testNow, 1000, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coupons[0].UsedCount != 0 {
		t.Errorf("validator must not consume usage, got used_count %d", coupons[0].UsedCount)
	}
}
