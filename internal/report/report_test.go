package report

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/expenses/internal/model"
)

func expense(tag, amount string, receipts ...string) model.Transaction {
	return model.Transaction{
		Created:         time.Date(2019, 7, 3, 12, 0, 0, 0, time.UTC),
		FullDescription: "03/07 Lunch, Pret, £" + amount,
		Amount:          decimal.RequireFromString(amount),
		Currency:        "GBP",
		LocalCurrency:   "GBP",
		Tag:             tag,
		Receipts:        receipts,
	}
}

func TestGroupByTag(t *testing.T) {
	txns := []model.Transaction{
		expense("client", "1"),
		expense("", "2"),
		expense("client", "3"),
		expense("trip", "4"),
		expense("", "5"),
	}
	groups := GroupByTag(txns)
	require.Len(t, groups, 3)

	assert.Equal(t, "client", groups[0].Tag)
	assert.Equal(t, "", groups[1].Tag)
	assert.Equal(t, "trip", groups[2].Tag)

	require.Len(t, groups[0].Transactions, 2)
	assert.Equal(t, "1", groups[0].Transactions[0].Amount.String())
	assert.Equal(t, "3", groups[0].Transactions[1].Amount.String())
	assert.Len(t, groups[1].Transactions, 2)

	assert.Nil(t, GroupByTag(nil))
}

func TestReceiptColumns(t *testing.T) {
	assert.Equal(t, 0, ReceiptColumns([]model.Transaction{expense("", "1")}))
	assert.Equal(t, 2, ReceiptColumns([]model.Transaction{
		expense("", "1", "a"),
		expense("x", "1", "b", "c"),
		expense("", "1"),
	}))
}

func TestHeaderRow(t *testing.T) {
	assert.Equal(t,
		[]string{"create_dt", "full_description", "local_amt", "local_currency", "amount", "currency", "rate"},
		FormatRow(HeaderRow(0)))
	assert.Equal(t, []string{"receipt_0", "receipt_1"}, FormatRow(HeaderRow(2))[7:])
}

func TestMarshalRow(t *testing.T) {
	home := expense("", "12.5", "/r/a.jpeg")
	assert.Equal(t,
		[]string{"2019-07-03", "03/07 Lunch, Pret, £12.5", "", "GBP", "12.50", "GBP", "", "/r/a.jpeg", ""},
		FormatRow(MarshalRow(home, 2)))

	foreign := expense("", "8.9")
	foreign.LocalAmount = decimal.NewNullDecimal(decimal.RequireFromString("10"))
	foreign.LocalCurrency = "EUR"
	row := FormatRow(MarshalRow(foreign, 0))
	require.Len(t, row, 7)
	assert.Equal(t, "10.00", row[colLocalAmount])
	assert.Equal(t, "EUR", row[colLocalCurrency])
	assert.Equal(t, "0.8900", row[colRate])
}

func TestMarshalRow_CellTypes(t *testing.T) {
	foreign := expense("", "8.9")
	foreign.LocalAmount = decimal.NewNullDecimal(decimal.RequireFromString("10"))
	foreign.LocalCurrency = "EUR"
	row := MarshalRow(foreign, 0)

	assert.Equal(t, civil.Date{Year: 2019, Month: 7, Day: 3}, row[colCreated])
	require.IsType(t, Number{}, row[colAmount])
	assert.Equal(t, int32(2), row[colAmount].(Number).Places)
	require.IsType(t, Number{}, row[colRate])
	assert.Equal(t, int32(4), row[colRate].(Number).Places)

	assert.Equal(t, "", MarshalRow(expense("", "1"), 0)[colRate], "absent rate is a blank cell")
}

func TestRows(t *testing.T) {
	g := Group{Tag: "client", Transactions: []model.Transaction{expense("client", "1"), expense("client", "2")}}
	rows := Rows(g, 1)
	require.Len(t, rows, 3)
	assert.Equal(t, "receipt_0", rows[0][7])
	assert.Equal(t, "2.00", FormatRow(rows[2])[colAmount])
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := []Row{HeaderRow(0), MarshalRow(expense("", "1.5"), 0)}
	require.NoError(t, CSVWriter{}.Write(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, FormatRow(rows[0]), got[0])
	assert.Equal(t, []string{"2019-07-03", "03/07 Lunch, Pret, £1.5", "", "GBP", "1.50", "GBP", ""}, got[1])
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	rows := []Row{HeaderRow(1), MarshalRow(expense("", "1.5", "/r/x.png"), 1)}
	require.NoError(t, XLSXWriter{}.Write(path, rows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "create_dt", got[0][0])
	assert.Equal(t, "receipt_0", got[0][7])
	assert.Equal(t, "2019-07-03", got[1][colCreated])
	assert.Equal(t, "1.50", got[1][colAmount])
	assert.Equal(t, "/r/x.png", got[1][7])
}

func TestXLSXWriter_NumericCells(t *testing.T) {
	foreign := expense("", "8.9")
	foreign.LocalAmount = decimal.NewNullDecimal(decimal.RequireFromString("10"))
	foreign.LocalCurrency = "EUR"

	path := filepath.Join(t.TempDir(), "out.xlsx")
	rows := []Row{HeaderRow(0), MarshalRow(foreign, 0), MarshalRow(expense("", "12.5"), 0)}
	require.NoError(t, XLSXWriter{}.Write(path, rows))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	raw := func(cell string) string {
		t.Helper()
		v, err := f.GetCellValue("Sheet1", cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	formatted := func(cell string) string {
		t.Helper()
		v, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		return v
	}

	// Stored as numbers, displayed at fixed places.
	assert.Equal(t, "8.9", raw("E2"))
	assert.Equal(t, "8.90", formatted("E2"))
	assert.Equal(t, "10", raw("C2"))
	assert.Equal(t, "0.89", raw("G2"))
	assert.Equal(t, "0.8900", formatted("G2"))
	assert.Equal(t, "12.5", raw("E3"))

	// The date is a serial number shown as YYYY-MM-DD.
	serial, err := strconv.ParseFloat(raw("A2"), 64)
	require.NoError(t, err)
	assert.InDelta(t, 43649, serial, 0.0001)
	assert.Equal(t, "2019-07-03", formatted("A2"))

	// Absent values are blank, not empty strings.
	assert.Equal(t, "", raw("C3"))
	assert.Equal(t, "", raw("G3"))
}

func TestXLSXWriter_NamedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, XLSXWriter{Sheet: "Expenses"}.Write(path, []Row{HeaderRow(0)}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Expenses"}, f.GetSheetList())
}

func TestWriterFor(t *testing.T) {
	assert.IsType(t, XLSXWriter{}, WriterFor("a/b.xlsx"))
	assert.IsType(t, XLSXWriter{}, WriterFor("a/b.XLSX"))
	assert.IsType(t, CSVWriter{}, WriterFor("a/b.csv"))
	assert.IsType(t, CSVWriter{}, WriterFor("a/b"))
}

func exporter(dir, template string) *Exporter {
	return &Exporter{
		Folder:     dir,
		Template:   template,
		DateFormat: "%Y%m%d",
		Start:      civil.Date{Year: 2019, Month: 7, Day: 1},
		End:        civil.Date{Year: 2019, Month: 8, Day: 4},
	}
}

func TestExport_OneFilePerTag(t *testing.T) {
	dir := t.TempDir()
	txns := []model.Transaction{expense("", "1"), expense("client", "2"), expense("", "3")}

	paths, err := exporter(dir, "{start}_{end}_summary{tag}.csv").Export(GroupByTag(txns), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "20190701_20190804_summary.csv"),
		filepath.Join(dir, "20190701_20190804_summary_client.csv"),
	}, paths)

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header + two untagged rows")
	assert.Len(t, rows[0], 7, "no receipt columns")
}

func TestExport_XLSXByDefault(t *testing.T) {
	dir := t.TempDir()
	paths, err := exporter(dir, "{start}_{end}_summary{tag}.xlsx").Export(GroupByTag([]model.Transaction{expense("t", "1")}), 0)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

type failingWriter struct {
	failOn string
	calls  []string
}

func (w *failingWriter) Write(path string, _ []Row) error {
	w.calls = append(w.calls, filepath.Base(path))
	if filepath.Base(path) == w.failOn {
		return errors.New("disk full")
	}
	return nil
}

func TestExport_StopsOnFailureKeepingEarlierFiles(t *testing.T) {
	dir := t.TempDir()
	w := &failingWriter{failOn: "r_b.csv"}
	e := exporter(dir, "r{tag}.csv")
	e.Writer = w

	txns := []model.Transaction{expense("a", "1"), expense("b", "2"), expense("c", "3")}
	written, err := e.Export(GroupByTag(txns), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `tag "b"`)
	assert.Equal(t, []string{filepath.Join(dir, "r_a.csv")}, written)
	assert.Equal(t, []string{"r_a.csv", "r_b.csv"}, w.calls)
}
