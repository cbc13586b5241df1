package services

import "errors"

// Market service errors
var (
	// ErrUnknownCurrency reports a currency the dashboard is not configured for
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrBatchNotFound reports that no batch has been fetched yet for a currency
	ErrBatchNotFound = errors.New("no market data available")

	// ErrNothingToExport reports an export request over an empty batch
	ErrNothingToExport = errors.New("nothing to export")

	// ErrUpstreamFetch reports a failed fetch from the market data source
	ErrUpstreamFetch = errors.New("market data fetch failed")
)
