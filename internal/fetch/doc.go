// Package fetch retrieves raw market records from a CoinGecko-compatible
// REST API and enriches them with per-record category labels.
//
// The client delivers one finite batch of loosely-typed records per call;
// normalization of that batch belongs to the dataprocessing package.
// There is no retry or backoff: a failed fetch surfaces as an error for
// the caller to report, and the next refresh cycle tries again.
package fetch
