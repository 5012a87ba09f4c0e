// Package naming builds the human-readable strings attached to each expense:
// the report description, the receipt base filename and report filenames.
package naming

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/ncruces/go-strftime"

	"github.com/cleared-dev/expenses/internal/model"
)

// DefaultDateFormat renders dates as YYYYMMDD.
const DefaultDateFormat = "%Y%m%d"

// DefaultReportTemplate is the report filename template.
const DefaultReportTemplate = "{start}_{end}_summary{tag}.xlsx"

const (
	descDateLayout  = "02/01"
	amountPlaces    = 2
	filenameJoin    = "_"
	placeholderFrom = "{start}"
	placeholderTo   = "{end}"
	placeholderTag  = "{tag}"
)

var symbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

// Symbol returns the display symbol for a currency code. Codes without a
// known symbol are shown as the code followed by a space.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}

// Description renders the one-line summary used in the report.
//
//	03/07 Lunch, Pret A Manger, £12.50
//	05/07 Taxi to work, Free Now, €10.00, £8.90, €1=£0.8900
func Description(t model.Transaction) string {
	date := t.Created.UTC().Format(descDateLayout)
	home := Symbol(t.Currency)

	if !t.HasLocalAmount() {
		return fmt.Sprintf("%s %s, %s, %s%s", date, t.Purpose, t.Merchant, home, t.Amount.StringFixed(amountPlaces))
	}
	local := Symbol(t.LocalCurrency)
	desc := fmt.Sprintf("%s %s, %s, %s%s, %s%s",
		date, t.Purpose, t.Merchant,
		local, t.LocalAmount.Decimal.StringFixed(amountPlaces),
		home, t.Amount.StringFixed(amountPlaces))
	// A zero local amount has no rate.
	if rate, ok := t.Rate(); ok {
		desc += fmt.Sprintf(", %s1=%s%s", local, home, rate.StringFixed(model.RatePlaces))
	}
	return desc
}

// Filename returns the receipt base filename, without extension. dateFormat
// is a strftime pattern.
func Filename(t model.Transaction, dateFormat string) string {
	if dateFormat == "" {
		dateFormat = DefaultDateFormat
	}
	parts := []string{
		strftime.Format(dateFormat, t.Created.UTC()),
		t.Purpose,
	}
	if t.HasLocalAmount() {
		parts = append(parts, t.LocalAmount.Decimal.StringFixed(amountPlaces)+t.LocalCurrency)
	}
	parts = append(parts, t.Amount.StringFixed(amountPlaces)+t.Currency)
	return strings.Join(parts, filenameJoin)
}

// Apply returns copies of txns with FullDescription and Filename set.
func Apply(txns []model.Transaction, dateFormat string) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	for i, t := range txns {
		t.FullDescription = Description(t)
		t.Filename = Filename(t, dateFormat)
		out[i] = t
	}
	return out
}

// ReportName fills in a report filename template. {start} and {end} are
// rendered with dateFormat; {tag} becomes "_<tag>", or nothing for the
// untagged group.
func ReportName(template, dateFormat string, start, end civil.Date, tag string) string {
	if dateFormat == "" {
		dateFormat = DefaultDateFormat
	}
	suffix := ""
	if tag != "" {
		suffix = "_" + tag
	}
	r := strings.NewReplacer(
		placeholderFrom, formatDate(dateFormat, start),
		placeholderTo, formatDate(dateFormat, end),
		placeholderTag, suffix,
	)
	return r.Replace(template)
}

func formatDate(format string, d civil.Date) string {
	return strftime.Format(format, d.In(time.UTC))
}
