// Package dataprocessing implements the pure tabular core of the screener:
// normalization of raw market records, sorting, rank partitioning, and
// display formatting.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Normalizer: maps loosely-typed raw records onto domain.MarketRecord
// 2. Sorter: stable, direction-aware ordering over any declared sort key
// 3. Partitioner: splits records into named buckets by rank ranges
// 4. Formatter: renders optional fields for display ("N/A" for unknown)
//
// # Data Flow
//
//	Raw records → Normalize → (Partition) → Sort → rendering / export
//
// All components are pure: inputs are never mutated, every call returns a
// fresh result, and no state is retained between calls. The only
// configuration a component carries is immutable (the Sorter's collator).
//
// # Absent versus zero
//
// Normalization leaves unknown fields absent (nil pointers, missing map
// keys) rather than defaulting them to zero. Absent values coerce to zero
// only inside sort comparisons; display formatting renders them as "N/A"
// so an unknown price never masquerades as a free coin.
package dataprocessing
