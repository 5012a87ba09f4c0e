package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/expenses/internal/model"
	"github.com/cleared-dev/expenses/internal/monzo"
)

// DefaultHomeCurrency is the account's settlement currency when none is configured.
const DefaultHomeCurrency = "GBP"

// tagDelimiter is stripped from both ends of a tag.
const tagDelimiter = "#"

var minorUnits = decimal.NewFromInt(100)

// FormatError reports a raw record that is missing a required field or has
// one that cannot be parsed.
type FormatError struct {
	ID    string
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("transaction %s: field %s: %v", e.ID, e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

var errMissing = errors.New("missing")

// FilterExpenses returns the records whose category is category, in order.
func FilterExpenses(raw []monzo.RawTransaction, category string) []monzo.RawTransaction {
	var out []monzo.RawTransaction
	for _, r := range raw {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// ExtractAll extracts every record, stopping at the first failure.
func ExtractAll(raw []monzo.RawTransaction, homeCurrency string) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(raw))
	for i, r := range raw {
		txn, err := Extract(r, homeCurrency)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// Extract projects a raw API record onto a Transaction. A null merchant or
// null notes are treated as empty strings.
func Extract(r monzo.RawTransaction, homeCurrency string) (model.Transaction, error) {
	if homeCurrency == "" {
		homeCurrency = DefaultHomeCurrency
	}

	if r.Created == "" {
		return model.Transaction{}, &FormatError{ID: r.ID, Field: "created", Err: errMissing}
	}
	created, err := time.Parse(time.RFC3339Nano, r.Created)
	if err != nil {
		return model.Transaction{}, &FormatError{ID: r.ID, Field: "created", Err: err}
	}

	if r.Amount == nil {
		return model.Transaction{}, &FormatError{ID: r.ID, Field: "amount", Err: errMissing}
	}
	if r.Currency == "" {
		return model.Transaction{}, &FormatError{ID: r.ID, Field: "currency", Err: errMissing}
	}

	txn := model.Transaction{
		ID:            r.ID,
		Created:       created,
		Amount:        fromMinorUnits(*r.Amount),
		Currency:      r.Currency,
		LocalCurrency: r.LocalCurrency,
	}

	if r.Merchant != nil {
		txn.Merchant = r.Merchant.Name
		txn.MerchantCategory = r.Merchant.Category
	}
	if r.Notes != nil {
		txn.Tag = NormalizeTag(*r.Notes)
	}

	if r.LocalCurrency != homeCurrency {
		if r.LocalAmount == nil {
			return model.Transaction{}, &FormatError{ID: r.ID, Field: "local_amount", Err: errMissing}
		}
		txn.LocalAmount = decimal.NewNullDecimal(fromMinorUnits(*r.LocalAmount))
	}

	for _, a := range r.Attachments {
		txn.Attachments = append(txn.Attachments, model.Attachment{ID: a.ID, FileURL: a.FileURL})
	}
	return txn, nil
}

// NormalizeTag turns a notes field into a grouping tag: surrounding
// whitespace first, then surrounding '#' characters.
func NormalizeTag(notes string) string {
	return strings.Trim(strings.TrimSpace(notes), tagDelimiter)
}

func fromMinorUnits(v int64) decimal.Decimal {
	return decimal.NewFromInt(v).Abs().Div(minorUnits)
}
