package classify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/expenses/internal/model"
)

func txn(merchant, category string, amount string, hour int, local string) model.Transaction {
	return model.Transaction{
		Merchant:         merchant,
		MerchantCategory: category,
		Amount:           decimal.RequireFromString(amount),
		Currency:         "GBP",
		LocalCurrency:    local,
		Created:          time.Date(2019, 7, 3, hour, 15, 0, 0, time.UTC),
	}
}

func TestPurpose(t *testing.T) {
	tests := []struct {
		name string
		txn  model.Transaction
		want string
	}{
		{"airline", txn("Aer Lingus", "transport", "250", 10, "EUR"), Flights},
		{"air beats meal time", txn("Ryanair", "eating_out", "30", 12, "GBP"), Flights},
		{"air matched case-insensitively", txn("BRITISH AIRWAYS", "", "99", 20, "GBP"), Flights},
		{"expensive hotel", txn("Grand Hotel", "holidays", "150", 20, "GBP"), Hotel},
		{"cheap hotel falls through to meal", txn("Grand Hotel", "holidays", "80", 20, "GBP"), Dinner},
		{"hotel at exactly 100 falls through", txn("Grand Hotel", "holidays", "100", 12, "GBP"), Lunch},
		{"bus home", txn("City Bus", "transport", "2", 16, "GBP"), BusHome},
		{"bus in the morning", txn("City Bus", "transport", "2", 10, "GBP"), Bus},
		{"bus at 15 is not home", txn("City Bus", "transport", "2", 15, "GBP"), Bus},
		{"bus abroad in evening", txn("City Bus", "transport", "2", 18, "EUR"), Bus},
		{"bus name outside transport is a meal", txn("Bus Stop Cafe", "eating_out", "5", 8, "GBP"), Breakfast},
		{"taxi to airport", txn("Addison Lee", "transport", "40", 6, "GBP"), TaxiToAirport},
		{"taxi to work", txn("Free Now", "transport", "15", 8, "EUR"), TaxiToWork},
		{"taxi to DUB airport", txn("Free Now", "transport", "30", 17, "EUR"), TaxiToDUBAirport},
		{"taxi home", txn("Uber", "transport", "25", 22, "GBP"), TaxiHome},
		{"taxi at 15 GBP", txn("Uber", "transport", "25", 15, "GBP"), TaxiHome},
		{"taxi midday", txn("Uber", "transport", "10", 13, "GBP"), Taxi},
		{"taxi other currency", txn("Uber", "transport", "10", 9, "USD"), Taxi},
		{"breakfast starts at 7", txn("Pret", "eating_out", "5", 7, "GBP"), Breakfast},
		{"lunch starts at 11", txn("Pret", "eating_out", "8", 11, "GBP"), Lunch},
		{"dinner starts at 15", txn("Nandos", "eating_out", "20", 15, "GBP"), Dinner},
		{"late dinner", txn("Nandos", "eating_out", "20", 23, "GBP"), Dinner},
		{"midnight is unclassified", txn("Kebab", "eating_out", "9", 0, "GBP"), Unclassified},
		{"early morning is unclassified", txn("Kebab", "eating_out", "9", 6, "GBP"), Unclassified},
		{"empty merchant", txn("", "", "9", 12, "GBP"), Lunch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Purpose(tt.txn, "GBP"))
		})
	}
}

func TestPurpose_BusHomeUsesHomeCurrency(t *testing.T) {
	bus := txn("Dublin Bus", "transport", "3", 18, "EUR")
	assert.Equal(t, BusHome, Purpose(bus, "EUR"))
	assert.Equal(t, Bus, Purpose(bus, "GBP"))
}

func TestApply(t *testing.T) {
	in := []model.Transaction{
		txn("Aer Lingus", "transport", "250", 10, "EUR"),
		txn("Pret", "eating_out", "5", 12, "GBP"),
	}
	out := Apply(in, "GBP")

	assert.Equal(t, Flights, out[0].Purpose)
	assert.Equal(t, Lunch, out[1].Purpose)
	assert.Empty(t, in[0].Purpose, "input is not modified")
}
