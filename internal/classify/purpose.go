// Package classify guesses what an expense was for. It is a heuristic:
// an empty purpose is a normal outcome.
package classify

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/expenses/internal/model"
)

// Purposes assigned by the cascade.
const (
	Flights          = "Flights"
	Hotel            = "Hotel"
	BusHome          = "Bus home"
	Bus              = "Bus"
	TaxiToAirport    = "Taxi to airport"
	TaxiToWork       = "Taxi to work"
	TaxiToDUBAirport = "Taxi to DUB airport"
	TaxiHome         = "Taxi home"
	Taxi             = "Taxi"
	Breakfast        = "Breakfast"
	Lunch            = "Lunch"
	Dinner           = "Dinner"
	Unclassified     = ""
)

const transportCategory = "transport"

var hotelThreshold = decimal.NewFromInt(100)

// Purpose runs the rule cascade over t. Rules overlap, so order matters:
// the first rule that matches wins.
func Purpose(t model.Transaction, homeCurrency string) string {
	merchant := strings.ToLower(t.Merchant)
	hour := t.Hour()
	transport := t.MerchantCategory == transportCategory

	if strings.Contains(merchant, "air") || strings.Contains(merchant, "aer") {
		return Flights
	}

	if strings.Contains(merchant, "hotel") && t.Amount.GreaterThan(hotelThreshold) {
		return Hotel
	}

	if strings.Contains(merchant, "bus") && transport {
		if hour > 15 && t.LocalCurrency == homeCurrency {
			return BusHome
		}
		return Bus
	}

	if transport {
		switch {
		case hour < 12 && t.LocalCurrency == "GBP":
			return TaxiToAirport
		case hour < 12 && t.LocalCurrency == "EUR":
			return TaxiToWork
		case hour >= 15 && t.LocalCurrency == "EUR":
			return TaxiToDUBAirport
		case hour >= 15 && t.LocalCurrency == "GBP":
			return TaxiHome
		default:
			return Taxi
		}
	}

	switch {
	case hour >= 7 && hour < 11:
		return Breakfast
	case hour >= 11 && hour < 15:
		return Lunch
	case hour >= 15:
		return Dinner
	default:
		return Unclassified
	}
}

// Apply returns copies of txns with Purpose set.
func Apply(txns []model.Transaction, homeCurrency string) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	for i, t := range txns {
		t.Purpose = Purpose(t, homeCurrency)
		out[i] = t
	}
	return out
}
