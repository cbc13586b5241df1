package exporter

import (
	"fmt"
	"strconv"

	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// cellKind discriminates how a cell is written
type cellKind int

const (
	cellEmpty cellKind = iota
	cellString
	cellNumber
)

// Cell is one CSV cell value. Strings are always quoted on output, numbers
// are written raw, and the zero Cell is an empty (unknown) cell.
type Cell struct {
	kind cellKind
	s    string
	n    float64
}

// StringCell builds a quoted string cell
func StringCell(s string) Cell {
	return Cell{kind: cellString, s: s}
}

// NumberCell builds a raw numeric cell
func NumberCell(n float64) Cell {
	return Cell{kind: cellNumber, n: n}
}

// IntCell builds a raw integer cell
func IntCell(n int) Cell {
	return Cell{kind: cellNumber, n: float64(n)}
}

// EmptyCell builds an empty cell for an unknown value
func EmptyCell() Cell {
	return Cell{kind: cellEmpty}
}

// optionalFloat maps an optional field to a number or empty cell
func optionalFloat(f *float64) Cell {
	if f == nil {
		return EmptyCell()
	}
	return NumberCell(*f)
}

// Column pairs a header with an extractor applied to each record
type Column struct {
	Header string
	Value  func(domain.MarketRecord) Cell
}

// DefaultColumns returns the dashboard's standard export column set. The
// change columns follow the requested periods in order.
func DefaultColumns(periods []domain.Period) []Column {
	columns := []Column{
		{Header: "Rank", Value: func(r domain.MarketRecord) Cell {
			if r.Rank == nil {
				return EmptyCell()
			}
			return IntCell(*r.Rank)
		}},
		{Header: "Name", Value: func(r domain.MarketRecord) Cell {
			return StringCell(r.Name)
		}},
		{Header: "Symbol", Value: func(r domain.MarketRecord) Cell {
			return StringCell(r.Symbol)
		}},
		{Header: "Price", Value: func(r domain.MarketRecord) Cell {
			return optionalFloat(r.Price)
		}},
		{Header: "MarketCap", Value: func(r domain.MarketRecord) Cell {
			return optionalFloat(r.MarketCap)
		}},
		{Header: "Volume24h", Value: func(r domain.MarketRecord) Cell {
			return optionalFloat(r.Volume24h)
		}},
	}

	for _, period := range periods {
		p := period
		columns = append(columns, Column{
			Header: fmt.Sprintf("Change%s", p),
			Value: func(r domain.MarketRecord) Cell {
				v, ok := r.Change(p)
				if !ok {
					return EmptyCell()
				}
				return NumberCell(v)
			},
		})
	}

	columns = append(columns, Column{
		Header: "Category",
		Value: func(r domain.MarketRecord) Cell {
			if r.Category == "" {
				return EmptyCell()
			}
			return StringCell(r.Category)
		},
	})

	return columns
}

// formatNumber writes a numeric cell with the shortest exact representation
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
