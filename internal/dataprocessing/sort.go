package dataprocessing

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// SortKey identifies a sortable column
type SortKey string

const (
	SortByRank      SortKey = "rank"
	SortByPrice     SortKey = "price"
	SortByMarketCap SortKey = "market_cap"
	SortByVolume    SortKey = "volume"
	SortByChange24h SortKey = "change_24h"
	SortByChange7d  SortKey = "change_7d"
	SortByChange30d SortKey = "change_30d"
	SortByChange1y  SortKey = "change_1y"
	SortByName      SortKey = "name"
	SortByCategory  SortKey = "category"
)

// sortKeys holds every known key; string-typed keys compare with collation,
// the rest numerically.
var sortKeys = map[SortKey]bool{
	SortByRank:      false,
	SortByPrice:     false,
	SortByMarketCap: false,
	SortByVolume:    false,
	SortByChange24h: false,
	SortByChange7d:  false,
	SortByChange30d: false,
	SortByChange1y:  false,
	SortByName:      true,
	SortByCategory:  true,
}

// Valid reports whether k is a known sort key
func (k SortKey) Valid() bool {
	_, ok := sortKeys[k]
	return ok
}

// IsString reports whether k compares lexicographically
func (k SortKey) IsString() bool {
	return sortKeys[k]
}

// SortState is the transient view state of a sorted table. It is owned by
// the caller and passed in per request, never stored on records.
type SortState struct {
	Key       SortKey              `json:"key"`
	Direction domain.SortDirection `json:"direction"`
}

// NextSortState applies the dashboard's click rule: selecting a new column
// sorts it descending; selecting the current column flips the direction.
func NextSortState(cur SortState, clicked SortKey) SortState {
	if cur.Key == clicked && cur.Direction.Valid() {
		return SortState{Key: clicked, Direction: cur.Direction.Toggle()}
	}
	return SortState{Key: clicked, Direction: domain.SortDescending}
}

// Sorter orders market records. The collator makes string keys compare
// locale-aware; a Sorter is immutable and safe to share once built.
type Sorter struct {
	collator *collate.Collator
}

// NewSorter creates a sorter collating strings for the given BCP 47 tag
func NewSorter(locale string) (*Sorter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Sorter{collator: collate.New(tag)}, nil
}

// Sort returns a new slice ordered by key and direction. The input slice is
// never mutated. The sort is stable: records comparing equal keep their
// input order for every key and direction.
//
// Numeric keys compare absent values as zero. That mirrors the dashboard's
// long-standing behavior and is intentional: an unranked coin sorts with
// rank 0, not at some arbitrary end.
func (s *Sorter) Sort(records []domain.MarketRecord, key SortKey, dir domain.SortDirection) []domain.MarketRecord {
	out := make([]domain.MarketRecord, len(records))
	copy(out, records)

	if key.IsString() {
		sort.SliceStable(out, func(i, j int) bool {
			cmp := s.collator.CompareString(stringValue(out[i], key), stringValue(out[j], key))
			if dir == domain.SortAscending {
				return cmp < 0
			}
			return cmp > 0
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := numericValue(out[i], key), numericValue(out[j], key)
		if dir == domain.SortAscending {
			return a < b
		}
		return a > b
	})
	return out
}

// numericValue reads the sort key off a record, coercing absent to zero.
// The record itself is left untouched.
func numericValue(r domain.MarketRecord, key SortKey) float64 {
	switch key {
	case SortByRank:
		if r.Rank != nil {
			return float64(*r.Rank)
		}
	case SortByPrice:
		if r.Price != nil {
			return *r.Price
		}
	case SortByMarketCap:
		if r.MarketCap != nil {
			return *r.MarketCap
		}
	case SortByVolume:
		if r.Volume24h != nil {
			return *r.Volume24h
		}
	case SortByChange24h:
		if v, ok := r.Change(domain.Period24h); ok {
			return v
		}
	case SortByChange7d:
		if v, ok := r.Change(domain.Period7d); ok {
			return v
		}
	case SortByChange30d:
		if v, ok := r.Change(domain.Period30d); ok {
			return v
		}
	case SortByChange1y:
		if v, ok := r.Change(domain.Period1y); ok {
			return v
		}
	}
	return 0
}

// stringValue reads a string sort key, absent as empty string
func stringValue(r domain.MarketRecord, key SortKey) string {
	switch key {
	case SortByName:
		return r.Name
	case SortByCategory:
		return r.Category
	}
	return ""
}
