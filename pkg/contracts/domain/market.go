package domain

import (
	"time"
)

// Period identifies a price-change lookback window
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period1y  Period = "1y"
)

// Periods lists the supported change periods in display order
var Periods = []Period{Period24h, Period7d, Period30d, Period1y}

// Valid reports whether p is a known period token
func (p Period) Valid() bool {
	switch p {
	case Period24h, Period7d, Period30d, Period1y:
		return true
	}
	return false
}

// MarketRecord is the canonical market record produced by normalization.
// Pointer fields and missing ChangePct keys encode "unknown"; a normalized
// record is never mutated after it is built, so unknown stays distinguishable
// from a true zero all the way to display and export.
type MarketRecord struct {
	ID        string             `json:"id" validate:"required"`
	Name      string             `json:"name,omitempty"`
	Symbol    string             `json:"symbol,omitempty"`
	Rank      *int               `json:"rank,omitempty" validate:"omitempty,min=1"`
	Price     *float64           `json:"price,omitempty" validate:"omitempty,min=0"`
	MarketCap *float64           `json:"market_cap,omitempty" validate:"omitempty,min=0"`
	Volume24h *float64           `json:"volume_24h,omitempty" validate:"omitempty,min=0"`
	ChangePct map[Period]float64 `json:"change_pct,omitempty"`
	Category  string             `json:"category,omitempty"`
}

// Change returns the percentage change for the period and whether it is known
func (r MarketRecord) Change(p Period) (float64, bool) {
	v, ok := r.ChangePct[p]
	return v, ok
}

// Batch is one complete set of market records retrieved together. A batch
// replaces the prior one as a unit; records inside it are read-only.
type Batch struct {
	Currency  string         `json:"currency"`
	FetchedAt time.Time      `json:"fetched_at"`
	Records   []MarketRecord `json:"records"`
	// Dropped counts raw records discarded during normalization,
	// typically for missing an id.
	Dropped int `json:"dropped"`
}

// SortDirection orders a sorted view
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Valid reports whether d is a known direction
func (d SortDirection) Valid() bool {
	return d == SortAscending || d == SortDescending
}

// Toggle returns the opposite direction
func (d SortDirection) Toggle() SortDirection {
	if d == SortAscending {
		return SortDescending
	}
	return SortAscending
}
