package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatePlaces is the precision exchange rates are reported at.
const RatePlaces = 4

// Attachment is a receipt file attached to a transaction.
type Attachment struct {
	ID        string
	FileURL   string
	LocalPath string // set once downloaded
}

// Transaction is one expense transaction after extraction.
type Transaction struct {
	ID               string
	Created          time.Time
	Merchant         string
	MerchantCategory string
	Amount           decimal.Decimal     // settlement currency, never negative
	Currency         string              // settlement currency
	LocalAmount      decimal.NullDecimal // valid iff LocalCurrency != home currency
	LocalCurrency    string
	Tag              string

	Purpose         string
	FullDescription string
	Filename        string

	Attachments []Attachment
	Receipts    []string // local paths, in attachment order
}

// HasLocalAmount reports whether the transaction was charged in a foreign currency.
func (t Transaction) HasLocalAmount() bool {
	return t.LocalAmount.Valid
}

// Rate returns the exchange rate as settlement units per local unit, rounded
// to RatePlaces. ok is false when there is no local amount.
func (t Transaction) Rate() (rate decimal.Decimal, ok bool) {
	if !t.LocalAmount.Valid || t.LocalAmount.Decimal.IsZero() {
		return decimal.Zero, false
	}
	return t.Amount.DivRound(t.LocalAmount.Decimal, RatePlaces), true
}

// Hour returns the UTC hour of day the transaction was created.
func (t Transaction) Hour() int {
	return t.Created.UTC().Hour()
}

// WithReceipts returns a copy of t carrying the given receipt paths. The
// i-th path is also recorded as the LocalPath of the i-th attachment.
func (t Transaction) WithReceipts(paths []string) Transaction {
	out := t
	out.Receipts = append([]string(nil), paths...)
	out.Attachments = append([]Attachment(nil), t.Attachments...)
	for i := range out.Attachments {
		if i < len(paths) {
			out.Attachments[i].LocalPath = paths[i]
		}
	}
	return out
}

// Total sums the settlement amounts of txns.
func Total(txns []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total
}
