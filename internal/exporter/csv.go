package exporter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xiaoheixi/crypto-screener/internal/config"
	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// ErrNothingToExport reports an export over zero records. It is
// informational, not a failure: the caller tells the user there is nothing
// to download instead of producing an empty file.
var ErrNothingToExport = errors.New("nothing to export")

// Marshal serializes records to a CSV blob using the ordered column spec.
// The header row comes first; rows are newline-joined with a trailing
// newline. Records and columns are read-only inputs.
func Marshal(records []domain.MarketRecord, columns []Column) (string, error) {
	if len(records) == 0 {
		return "", ErrNothingToExport
	}

	var b strings.Builder

	for i, col := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(col.Header)
	}
	b.WriteByte('\n')

	for _, rec := range records {
		for i, col := range columns {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCell(&b, col.Value(rec))
		}
		b.WriteByte('\n')
	}

	return b.String(), nil
}

// writeCell writes one cell with the package's quoting policy: strings
// always quoted with internal quotes doubled, numbers raw, unknowns empty.
func writeCell(b *strings.Builder, cell Cell) {
	switch cell.kind {
	case cellString:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cell.s, `"`, `""`))
		b.WriteByte('"')
	case cellNumber:
		b.WriteString(formatNumber(cell.n))
	}
}

// Filename builds the download filename convention: <prefix>_<ISO-date>.csv
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("2006-01-02"))
}

// FileWriter persists export blobs under the configured export directory
type FileWriter struct {
	cfg    config.ExportConfig
	logger *slog.Logger
}

// NewFileWriter creates a file writer for the export directory
func NewFileWriter(cfg config.ExportConfig, logger *slog.Logger) *FileWriter {
	return &FileWriter{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// Write stores a CSV blob under the export dir using the filename
// convention and returns the full path.
func (w *FileWriter) Write(blob string, now time.Time) (string, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(w.cfg.Dir, Filename(w.cfg.Prefix, now))
	if err := os.WriteFile(path, []byte(blob), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	w.logger.Info("wrote CSV export",
		slog.String("path", path),
		slog.Int("bytes", len(blob)))

	return path, nil
}
