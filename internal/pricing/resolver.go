package pricing

import (
	"time"

	"ayurveda-store/internal/models"
)

// The admin screens submit datetime-local strings; older promotion
// records only carry a plain date. Both shapes must keep working.
var windowLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func parseWindowTime(raw string) (time.Time, bool) {
	for _, layout := range windowLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// windowContains reports whether now falls inside the [start, end]
// window. Either side may be empty (unbounded). The interval is closed:
// a promotion starting or ending exactly now is still active. A window
// field that is present but unparseable disqualifies the record, so
// malformed rows are skipped instead of aborting the whole pass.
func windowContains(start, end string, now time.Time) bool {
	if start != "" {
		t, ok := parseWindowTime(start)
		if !ok || now.Before(t) {
			return false
		}
	}
	if end != "" {
		t, ok := parseWindowTime(end)
		if !ok || now.After(t) {
			return false
		}
	}
	return true
}

// The datetime field wins over the legacy date-only field when a record
// carries both.
func promoWindow(startDatetime, startDate, endDatetime, endDate string) (string, string) {
	start := startDatetime
	if start == "" {
		start = startDate
	}
	end := endDatetime
	if end == "" {
		end = endDate
	}
	return start, end
}

// ResolveItemPromotion returns the promotion active on the given lot at
// the given instant, or nil. It is a linear scan and the FIRST match
// wins: catalog authors are responsible for keeping windows per lot
// non-overlapping, overlap is order-dependent rather than an error.
func ResolveItemPromotion(lotID int64, promos []models.ItemPromotion, now time.Time) *models.ItemPromotion {
	for i := range promos {
		p := &promos[i]
		if p.LotID != lotID {
			continue
		}
		if p.PromoPrice <= 0 {
			continue // malformed record, skip it
		}
		start, end := promoWindow(p.StartDatetime, p.StartDate, p.EndDatetime, p.EndDate)
		if windowContains(start, end, now) {
			return p
		}
	}
	return nil
}

// Bundle is a bulk promotion with its lot ids resolved against the
// current catalog, ready for display or pricing.
type Bundle struct {
	Offer    models.BulkPromotion `json:"offer"`
	Products []models.Product     `json:"products"`
}

// ResolveActiveBundles filters bulk promotions down to the ones whose
// time window contains now and whose referenced lots ALL resolve to an
// existing product. A bundle missing any of its lots is dropped
// silently: offering a partial bundle at the full flat price would
// overcharge the customer.
func ResolveActiveBundles(bulks []models.BulkPromotion, products []models.Product, now time.Time) []Bundle {
	byLot := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byLot[p.LotID] = p
	}

	var bundles []Bundle
	for _, b := range bulks {
		if len(b.BuyLotIDs) == 0 {
			continue // malformed record, skip it
		}
		start, end := promoWindow(b.StartDatetime, b.StartDate, b.EndDatetime, b.EndDate)
		if !windowContains(start, end, now) {
			continue
		}

		resolved, ok := resolveBundleProducts(b, byLot)
		if !ok {
			continue
		}
		bundles = append(bundles, Bundle{Offer: b, Products: resolved})
	}
	return bundles
}

// resolveBundleProducts maps the union of buy+get lots to products,
// preserving order and de-duplicating lots listed on both sides.
func resolveBundleProducts(b models.BulkPromotion, byLot map[int64]models.Product) ([]models.Product, bool) {
	seen := make(map[int64]bool)
	var resolved []models.Product
	for _, lotID := range append(append([]int64{}, b.BuyLotIDs...), b.GetLotIDs...) {
		if seen[lotID] {
			continue
		}
		seen[lotID] = true
		p, ok := byLot[lotID]
		if !ok {
			return nil, false
		}
		resolved = append(resolved, p)
	}
	return resolved, true
}
