// Package pipeline runs one export: fetch, filter, extract, classify,
// format, download receipts, write reports.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/expenses/internal/classify"
	"github.com/cleared-dev/expenses/internal/config"
	"github.com/cleared-dev/expenses/internal/gitops"
	"github.com/cleared-dev/expenses/internal/importer"
	"github.com/cleared-dev/expenses/internal/logger"
	"github.com/cleared-dev/expenses/internal/model"
	"github.com/cleared-dev/expenses/internal/monzo"
	"github.com/cleared-dev/expenses/internal/naming"
	"github.com/cleared-dev/expenses/internal/receipts"
	"github.com/cleared-dev/expenses/internal/report"
	"github.com/cleared-dev/expenses/internal/runlog"
)

// Fetcher lists raw transactions for an inclusive date range.
type Fetcher interface {
	ListTransactions(ctx context.Context, accountID string, start, end civil.Date) ([]monzo.RawTransaction, error)
}

// ReceiptDownloader saves attachments and annotates transactions with the
// saved paths.
type ReceiptDownloader interface {
	DownloadAll(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error)
}

// Deps are the collaborators of a run. Nil fields get defaults built from
// the config.
type Deps struct {
	Fetcher  Fetcher
	Receipts ReceiptDownloader
	Out      io.Writer // progress lines
	Now      func() time.Time
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Count    int
	Total    decimal.Decimal
	Reports  []string
	Receipts []string
	Commit   string // short hash, empty when nothing was committed
}

// Run executes the export described by cfg.
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)
	deps = withDefaults(cfg, deps, log)
	out := deps.Out

	log.Info().
		Str("account", cfg.Monzo.AccountID).
		Str("start", cfg.StartDate.String()).
		Str("end", cfg.EndDate.String()).
		Msg("starting export")

	fmt.Fprintln(out, "Fetching transactions")
	raw, err := deps.Fetcher.ListTransactions(ctx, cfg.Monzo.AccountID, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	log.Debug().Int("count", len(raw)).Msg("fetched transactions")

	fmt.Fprintln(out, "Processing")
	txns, err := Prepare(raw, cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("expenses", len(txns)).Msg("extracted expenses")

	if cfg.DownloadReceipts {
		fmt.Fprintln(out, "Downloading receipts")
		txns, err = deps.Receipts.DownloadAll(ctx, txns)
		if err != nil {
			return nil, fmt.Errorf("downloading receipts: %w", err)
		}
	} else {
		fmt.Fprintln(out, "Skipping receipt download")
	}

	fmt.Fprintln(out, "Writing reports")
	exp := &report.Exporter{
		Folder:     cfg.Output.Folder,
		Template:   cfg.Output.FilenameTemplate,
		DateFormat: cfg.Output.DateFormat,
		Start:      cfg.StartDate,
		End:        cfg.EndDate,
		Log:        log,
	}
	receiptCols := 0
	if cfg.DownloadReceipts {
		receiptCols = report.ReceiptColumns(txns)
	}
	reports, err := exp.Export(report.GroupByTag(txns), receiptCols)
	if err != nil {
		return nil, fmt.Errorf("exporting reports: %w", err)
	}

	sum := &Summary{
		RunID:   runID,
		Count:   len(txns),
		Total:   model.Total(txns),
		Reports: reports,
	}
	for _, t := range txns {
		sum.Receipts = append(sum.Receipts, t.Receipts...)
	}

	if err := recordRun(cfg, deps.Now(), sum); err != nil {
		return nil, err
	}

	if cfg.Git.AutoCommit {
		hash, err := commitOutput(cfg, sum)
		if err != nil {
			return nil, err
		}
		sum.Commit = hash
	}

	fmt.Fprintln(out, "Done.")
	fmt.Fprintf(out, "Generated %d expenses, worth %s.\n", sum.Count, sum.Total.StringFixed(2))
	return sum, nil
}

// Prepare filters raw records to expenses and derives every per-transaction
// field except receipts.
func Prepare(raw []monzo.RawTransaction, cfg *config.Config) ([]model.Transaction, error) {
	expenses := importer.FilterExpenses(raw, cfg.ExpenseCategory)
	txns, err := importer.ExtractAll(expenses, cfg.Monzo.HomeCurrency)
	if err != nil {
		return nil, fmt.Errorf("extracting transactions: %w", err)
	}
	txns = classify.Apply(txns, cfg.Monzo.HomeCurrency)
	return naming.Apply(txns, cfg.Output.DateFormat), nil
}

func withDefaults(cfg *config.Config, deps Deps, log zerolog.Logger) Deps {
	if deps.Fetcher == nil {
		deps.Fetcher = monzo.NewClient(cfg.Monzo.BaseURL, cfg.Monzo.Token, monzo.WithTimeout(cfg.HTTPTimeout))
	}
	if deps.Receipts == nil {
		deps.Receipts = receipts.NewDownloader(cfg.Output.Folder,
			receipts.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
			receipts.WithLogger(log))
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return deps
}

func recordRun(cfg *config.Config, now time.Time, sum *Summary) error {
	var entries []runlog.Entry
	for _, p := range sum.Receipts {
		entries = append(entries, runlog.Entry{Timestamp: now, RunID: sum.RunID, Action: runlog.ActionReceipt, Path: p})
	}
	for _, p := range sum.Reports {
		entries = append(entries, runlog.Entry{Timestamp: now, RunID: sum.RunID, Action: runlog.ActionReport, Path: p})
	}
	entries = append(entries, runlog.Entry{
		Timestamp: now,
		RunID:     sum.RunID,
		Action:    runlog.ActionSummary,
		Details: fmt.Sprintf("%s..%s count=%d total=%s",
			cfg.StartDate, cfg.EndDate, sum.Count, sum.Total.StringFixed(2)),
	})
	if err := runlog.Append(cfg.Output.Folder, entries); err != nil {
		return fmt.Errorf("writing run log: %w", err)
	}
	return nil
}

func commitOutput(cfg *config.Config, sum *Summary) (string, error) {
	folder := cfg.Output.Folder
	if !gitops.IsRepo(folder) {
		return "", nil
	}

	var paths []string
	for _, p := range append(append(append([]string{}, sum.Receipts...), sum.Reports...), runlog.Path(folder)) {
		rel, err := filepath.Rel(folder, p)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", p, err)
		}
		paths = append(paths, rel)
	}

	msg := fmt.Sprintf("expenses: %s to %s (%d expenses)", cfg.StartDate, cfg.EndDate, sum.Count)
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(folder, paths, msg, author)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("committing output: %w", err)
	}
	return hash, nil
}
