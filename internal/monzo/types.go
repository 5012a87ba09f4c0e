// Package monzo is a minimal client for the Monzo transactions API.
package monzo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawTransaction is a transaction as returned by GET /transactions.
type RawTransaction struct {
	ID            string       `json:"id"`
	Category      string       `json:"category"`
	Created       string       `json:"created"`
	Merchant      *Merchant    `json:"merchant"`
	Amount        *int64       `json:"amount"`
	Currency      string       `json:"currency"`
	LocalAmount   *int64       `json:"local_amount"`
	LocalCurrency string       `json:"local_currency"`
	Notes         *string      `json:"notes"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

// Merchant holds the expanded merchant details. When the request was not
// expanded the API sends a bare merchant ID, which decodes into ID only.
type Merchant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// UnmarshalJSON accepts either a merchant object or a merchant ID string.
func (m *Merchant) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decoding merchant id: %w", err)
		}
		*m = Merchant{ID: id}
		return nil
	}
	type plain Merchant
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding merchant: %w", err)
	}
	*m = Merchant(p)
	return nil
}

// Attachment is a receipt image uploaded against a transaction.
type Attachment struct {
	ID       string `json:"id"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type,omitempty"`
}

type transactionsResponse struct {
	Transactions []RawTransaction `json:"transactions"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
