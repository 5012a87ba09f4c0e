package monzo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.monzo.com"

// FetchError is returned when listing transactions fails for any reason.
type FetchError struct {
	Op         string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the Monzo API with a bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	base    *http.Client
	timeout time.Duration
}

// WithHTTPClient sets the underlying client the bearer transport wraps.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.base = c }
}

// WithTimeout sets an overall request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// NewClient returns a Client that authenticates every request with token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	if o.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.base)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = o.timeout

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// ListTransactions returns every transaction on accountID created in the
// inclusive date range [start, end]. Merchants are expanded inline.
func (c *Client) ListTransactions(ctx context.Context, accountID string, start, end civil.Date) ([]RawTransaction, error) {
	q := url.Values{}
	q.Set("account_id", accountID)
	q.Set("expand[]", "merchant")
	q.Set("since", start.In(time.UTC).Format(time.RFC3339))
	// end is inclusive, so the exclusive upper bound is the following midnight.
	q.Set("before", end.AddDays(1).In(time.UTC).Format(time.RFC3339))

	const op = "list transactions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions?"+q.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode, Err: apiError(body)}
	}

	var parsed transactionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing response: %w", err)}
	}
	if parsed.Transactions == nil {
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode, Err: errors.New("response has no transactions array")}
	}
	return parsed.Transactions, nil
}

func apiError(body []byte) error {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		if e.Code != "" {
			return fmt.Errorf("%s: %s", e.Code, e.Message)
		}
		return errors.New(e.Message)
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		text = "empty response"
	}
	return errors.New(text)
}
