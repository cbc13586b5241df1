package dataprocessing

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// RawRecord is one loosely-typed market record as delivered by a fetch
// source, before normalization. Keys follow the CoinGecko markets payload.
type RawRecord map[string]interface{}

// Field names extracted from raw records. Mapping is explicit so a payload
// change upstream fails visibly instead of silently zeroing columns.
const (
	fieldID        = "id"
	fieldName      = "name"
	fieldSymbol    = "symbol"
	fieldRank      = "market_cap_rank"
	fieldPrice     = "current_price"
	fieldMarketCap = "market_cap"
	fieldVolume    = "total_volume"
)

// changeFields maps each supported period to its raw field name
var changeFields = map[domain.Period]string{
	domain.Period24h: "price_change_percentage_24h",
	domain.Period7d:  "price_change_percentage_7d_in_currency",
	domain.Period30d: "price_change_percentage_30d_in_currency",
	domain.Period1y:  "price_change_percentage_1y_in_currency",
}

// recordValidator enforces the MarketRecord struct tags as a final gate
// behind the per-field guards below.
var recordValidator = validator.New(validator.WithRequiredStructEnabled())

// Normalize converts raw records into canonical MarketRecords. Records
// without an id (or otherwise breaching the MarketRecord contract) are
// dropped; the second return value counts them so the caller can log one
// diagnostic per batch. Every other missing or malformed field, negative
// numerics included, is simply left absent on the result.
func Normalize(raws []RawRecord) ([]domain.MarketRecord, int) {
	records := make([]domain.MarketRecord, 0, len(raws))
	dropped := 0

	for _, raw := range raws {
		id, ok := stringField(raw, fieldID)
		if !ok || id == "" {
			dropped++
			continue
		}

		rec := domain.MarketRecord{
			ID: id,
		}
		if name, ok := stringField(raw, fieldName); ok {
			rec.Name = name
		}
		if symbol, ok := stringField(raw, fieldSymbol); ok {
			rec.Symbol = symbol
		}
		if rank, ok := intField(raw, fieldRank); ok && rank >= 1 {
			rec.Rank = &rank
		}
		if price, ok := floatField(raw, fieldPrice); ok && price >= 0 {
			rec.Price = &price
		}
		if cap, ok := floatField(raw, fieldMarketCap); ok && cap >= 0 {
			rec.MarketCap = &cap
		}
		if vol, ok := floatField(raw, fieldVolume); ok && vol >= 0 {
			rec.Volume24h = &vol
		}

		for period, field := range changeFields {
			if pct, ok := floatField(raw, field); ok {
				if rec.ChangePct == nil {
					rec.ChangePct = make(map[domain.Period]float64, len(changeFields))
				}
				rec.ChangePct[period] = pct
			}
		}

		if err := recordValidator.Struct(rec); err != nil {
			dropped++
			continue
		}

		records = append(records, rec)
	}

	return records, dropped
}

// stringField extracts a string value, tolerating absent and null
func stringField(raw RawRecord, key string) (string, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// floatField extracts a numeric value. JSON decoding yields float64 for
// numbers, but sources occasionally ship numbers as strings or
// json.Number, so both are accepted.
func floatField(raw RawRecord, key string) (float64, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// intField extracts an integer value, truncating fractional input
func intField(raw RawRecord, key string) (int, bool) {
	f, ok := floatField(raw, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}
