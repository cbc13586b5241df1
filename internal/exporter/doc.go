// Package exporter serializes market records to CSV.
//
// The core is Marshal, a pure function from records plus an ordered column
// spec to a single text blob. Quoting follows RFC 4180 with one fixed
// policy: string cells are always double-quoted (internal quotes doubled),
// numeric cells are written raw with no currency symbol or thousands
// separator, and unknown values become empty cells. Spreadsheet tools can
// then re-type the numeric columns without stripping decoration.
//
// Writing the blob to disk (FileWriter) or to an HTTP response is the
// caller's concern; Marshal itself performs no I/O.
package exporter
