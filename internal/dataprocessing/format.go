package dataprocessing

import (
	"fmt"

	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// NotAvailable is the display marker for unknown fields
const NotAvailable = "N/A"

// FormatFloat renders an optional numeric field with two decimal places,
// "N/A" when unknown. A true zero renders as "0.00".
func FormatFloat(f *float64) string {
	if f == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *f)
}

// FormatRank renders an optional rank
func FormatRank(rank *int) string {
	if rank == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%d", *rank)
}

// FormatChange renders the percentage change for a period, "N/A" when the
// period is unknown for the record. A 0.0 change renders as "0.00%".
func FormatChange(r domain.MarketRecord, p domain.Period) string {
	v, ok := r.Change(p)
	if !ok {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", v)
}

// FormatCategory renders the enrichment label, "N/A" when enrichment did
// not produce one.
func FormatCategory(r domain.MarketRecord) string {
	if r.Category == "" {
		return NotAvailable
	}
	return r.Category
}
