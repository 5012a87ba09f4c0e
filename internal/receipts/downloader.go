// Package receipts saves receipt images attached to transactions.
package receipts

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/expenses/internal/model"
)

// defaultSubtype matches the implicit text/plain of a response with no
// Content-Type.
const defaultSubtype = "plain"

// DownloadError is returned when a receipt cannot be fetched or saved.
type DownloadError struct {
	URL        string
	Path       string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("download %s to %s: %v", e.URL, e.Path, e.Err)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Downloader fetches attachments into a base folder, one at a time.
type Downloader struct {
	baseFolder string
	client     *http.Client
	log        zerolog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Downloader) { d.log = l }
}

// NewDownloader returns a Downloader writing under baseFolder.
func NewDownloader(baseFolder string, opts ...Option) *Downloader {
	d := &Downloader{
		baseFolder: baseFolder,
		client:     http.DefaultClient,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadAll downloads receipts for every transaction in order and returns
// the annotated copies. The first failure aborts.
func (d *Downloader) DownloadAll(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		got, err := d.Download(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, got)
	}
	return out, nil
}

// Download saves every attachment of t and returns a copy of t with
// Receipts holding the saved paths in attachment order. A single
// attachment is saved as <filename>.<ext>; several are numbered
// <filename>_1.<ext>, <filename>_2.<ext>, ...
func (d *Downloader) Download(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	if len(t.Attachments) == 0 {
		return t, nil
	}
	if err := os.MkdirAll(d.baseFolder, 0o755); err != nil {
		return t, &DownloadError{URL: t.Attachments[0].FileURL, Path: d.baseFolder, Err: fmt.Errorf("creating folder: %w", err)}
	}

	paths := make([]string, 0, len(t.Attachments))
	for i, a := range t.Attachments {
		base := t.Filename
		if len(t.Attachments) > 1 {
			base = fmt.Sprintf("%s_%d", t.Filename, i+1)
		}
		path, err := d.fetch(ctx, a.FileURL, filepath.Join(d.baseFolder, base))
		if err != nil {
			return t, err
		}
		d.log.Debug().Str("transaction", t.ID).Str("path", path).Msg("saved receipt")
		paths = append(paths, path)
	}
	return t.WithReceipts(paths), nil
}

// fetch GETs url and writes the body to dest plus an extension taken from
// the response content type. It returns the final path.
func (d *Downloader) fetch(ctx context.Context, url, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &DownloadError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	path := dest + "." + ContentSubtype(resp.Header.Get("Content-Type"))
	// Transactions with the same date, purpose and amounts share a filename.
	// The later receipt replaces the earlier one.
	if _, err := os.Stat(path); err == nil {
		d.log.Warn().Str("url", url).Str("path", path).Msg("overwriting existing receipt")
	}
	f, err := os.Create(path)
	if err != nil {
		return "", &DownloadError{URL: url, Path: path, Err: err}
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", &DownloadError{URL: url, Path: path, Err: fmt.Errorf("writing file: %w", err)}
	}
	if err := f.Close(); err != nil {
		return "", &DownloadError{URL: url, Path: path, Err: err}
	}
	return path, nil
}

// ContentSubtype returns the subtype of a Content-Type header value, e.g.
// "jpeg" for "image/jpeg; charset=binary". An empty or malformed header
// yields "plain".
func ContentSubtype(contentType string) string {
	if contentType == "" {
		return defaultSubtype
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return defaultSubtype
	}
	_, sub, ok := strings.Cut(mediaType, "/")
	if !ok || sub == "" {
		return defaultSubtype
	}
	return sub
}
