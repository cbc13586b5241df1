package dataprocessing

import (
	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// RankRange is a closed interval over the rank field, labelled with the
// bucket name its records land in.
type RankRange struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

// Contains reports whether rank falls inside the closed interval
func (r RankRange) Contains(rank int) bool {
	return rank >= r.Min && rank <= r.Max
}

// DefaultRanges returns the dashboard's standard split: the eight
// top-ranked coins versus the rest of the fetched universe. The ranges are
// non-overlapping and gap-free over ranks 1..maxRank.
func DefaultRanges(maxRank int) []RankRange {
	return []RankRange{
		{Name: "majors", Min: 1, Max: 8},
		{Name: "alts", Min: 9, Max: maxRank},
	}
}

// Partition splits records into named buckets by rank. A record with no
// rank, or whose rank falls in no range, lands in no bucket; that is not an
// error. Every named range appears in the result, empty or not, and input
// order is preserved inside each bucket.
//
// Overlapping ranges place a record in every bucket that contains it. Call
// sites using overlapping ranges must say so where they define them.
func Partition(records []domain.MarketRecord, ranges []RankRange) map[string][]domain.MarketRecord {
	buckets := make(map[string][]domain.MarketRecord, len(ranges))
	for _, rr := range ranges {
		buckets[rr.Name] = []domain.MarketRecord{}
	}

	for _, rec := range records {
		if rec.Rank == nil {
			continue
		}
		for _, rr := range ranges {
			if rr.Contains(*rec.Rank) {
				buckets[rr.Name] = append(buckets[rr.Name], rec)
			}
		}
	}

	return buckets
}
