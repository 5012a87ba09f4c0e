package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/expenses/internal/classify"
	"github.com/cleared-dev/expenses/internal/importer"
	"github.com/cleared-dev/expenses/internal/model"
)

func newClassifyCommand() *cobra.Command {
	var (
		merchant      string
		category      string
		amount        string
		at            string
		localCurrency string
		homeCurrency  string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the purpose the classifier assigns to a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("parsing --amount: %w", err)
			}
			created, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("parsing --time: %w", err)
			}
			if localCurrency == "" {
				localCurrency = homeCurrency
			}

			t := model.Transaction{
				Created:          created,
				Merchant:         merchant,
				MerchantCategory: category,
				Amount:           amt.Abs(),
				Currency:         homeCurrency,
				LocalCurrency:    localCurrency,
			}
			purpose := classify.Purpose(t, homeCurrency)
			if purpose == classify.Unclassified {
				fmt.Fprintln(cmd.OutOrStdout(), "(unclassified)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), purpose)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&merchant, "merchant", "", "merchant name")
	f.StringVar(&category, "category", "", "merchant category, e.g. transport")
	f.StringVar(&amount, "amount", "0", "amount in the home currency")
	f.StringVar(&at, "time", "", "transaction time, RFC3339")
	f.StringVar(&localCurrency, "local-currency", "", "currency charged locally (default: home currency)")
	f.StringVar(&homeCurrency, "home-currency", importer.DefaultHomeCurrency, "account home currency")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}
