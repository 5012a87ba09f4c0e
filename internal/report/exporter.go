package report

import (
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/expenses/internal/naming"
)

// Exporter writes one report per tag group into a folder.
type Exporter struct {
	Folder     string
	Template   string // e.g. naming.DefaultReportTemplate
	DateFormat string // strftime pattern for {start} and {end}
	Start, End civil.Date
	// Writer overrides the extension-based choice from WriterFor.
	Writer Writer
	Log    zerolog.Logger
}

// Export writes every group and returns the written paths in group order.
// Files written before a failure are left in place.
func (e *Exporter) Export(groups []Group, receiptCols int) ([]string, error) {
	if err := os.MkdirAll(e.Folder, 0o755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}

	var written []string
	for _, g := range groups {
		name := naming.ReportName(e.Template, e.DateFormat, e.Start, e.End, g.Tag)
		path := filepath.Join(e.Folder, name)

		w := e.Writer
		if w == nil {
			w = WriterFor(path)
		}
		if err := w.Write(path, Rows(g, receiptCols)); err != nil {
			return written, fmt.Errorf("writing report for tag %q: %w", g.Tag, err)
		}
		e.Log.Info().Str("tag", g.Tag).Int("rows", len(g.Transactions)).Str("path", path).Msg("wrote report")
		written = append(written, path)
	}
	return written, nil
}
