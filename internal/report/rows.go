// Package report groups expenses by tag and writes one spreadsheet per tag.
package report

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/expenses/internal/model"
)

// Header is the fixed part of every report's header row. Receipt columns
// receipt_0, receipt_1, ... follow it.
const Header = "create_dt,full_description,local_amt,local_currency,amount,currency,rate"

const (
	numFixed         = 7
	amountPlaces     = 2
	receiptPrefix    = "receipt_"
	colCreated       = 0
	colDescription   = 1
	colLocalAmount   = 2
	colLocalCurrency = 3
	colAmount        = 4
	colCurrency      = 5
	colRate          = 6
)

// Number is a numeric cell shown with a fixed number of decimal places.
type Number struct {
	Value  decimal.Decimal
	Places int32
}

func (n Number) String() string {
	return n.Value.StringFixed(n.Places)
}

// A row holds string, Number and civil.Date cells. The empty string is a
// blank cell.
type Row []any

// Group is the set of transactions sharing one tag.
type Group struct {
	Tag          string
	Transactions []model.Transaction
}

// GroupByTag groups txns by exact tag, in the order each tag is first seen.
// The empty tag is a group like any other.
func GroupByTag(txns []model.Transaction) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, t := range txns {
		i, seen := index[t.Tag]
		if !seen {
			i = len(groups)
			index[t.Tag] = i
			groups = append(groups, Group{Tag: t.Tag})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
	}
	return groups
}

// ReceiptColumns returns how many receipt columns the reports need: the
// largest receipt count of any transaction in the run.
func ReceiptColumns(txns []model.Transaction) int {
	n := 0
	for _, t := range txns {
		if len(t.Receipts) > n {
			n = len(t.Receipts)
		}
	}
	return n
}

// HeaderRow returns the header with receiptCols receipt columns appended.
func HeaderRow(receiptCols int) Row {
	var row Row
	for _, h := range strings.Split(Header, ",") {
		row = append(row, h)
	}
	for i := 0; i < receiptCols; i++ {
		row = append(row, fmt.Sprintf("%s%d", receiptPrefix, i))
	}
	return row
}

// MarshalRow converts a transaction to a report row. Amounts and the rate
// are Number cells, the date is a civil.Date. Absent values are blank.
func MarshalRow(t model.Transaction, receiptCols int) Row {
	row := make(Row, numFixed+receiptCols)
	for i := range row {
		row[i] = ""
	}
	row[colCreated] = civil.DateOf(t.Created.UTC())
	row[colDescription] = t.FullDescription
	if t.HasLocalAmount() {
		row[colLocalAmount] = Number{Value: t.LocalAmount.Decimal, Places: amountPlaces}
	}
	row[colLocalCurrency] = t.LocalCurrency
	row[colAmount] = Number{Value: t.Amount, Places: amountPlaces}
	row[colCurrency] = t.Currency
	if rate, ok := t.Rate(); ok {
		row[colRate] = Number{Value: rate, Places: model.RatePlaces}
	}
	for i := 0; i < receiptCols && i < len(t.Receipts); i++ {
		row[numFixed+i] = t.Receipts[i]
	}
	return row
}

// FormatRow renders every cell as text: numbers at their fixed places and
// dates as YYYY-MM-DD.
func FormatRow(row Row) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch c := v.(type) {
		case nil:
		case string:
			out[i] = c
		case fmt.Stringer:
			out[i] = c.String()
		default:
			out[i] = fmt.Sprint(c)
		}
	}
	return out
}

// Rows returns the header plus one row per transaction in g.
func Rows(g Group, receiptCols int) []Row {
	rows := make([]Row, 0, len(g.Transactions)+1)
	rows = append(rows, HeaderRow(receiptCols))
	for _, t := range g.Transactions {
		rows = append(rows, MarshalRow(t, receiptCols))
	}
	return rows
}
