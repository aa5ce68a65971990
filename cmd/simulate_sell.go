package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var simulateSellCmd = &cobra.Command{
	Use:   "simulate-sell",
	Short: "Preview the payout of selling shares right now",
	Long: `Asks a running server for the exact tax, commission and net payout a
sell of --amount shares of --option would produce at this moment,
without moving anything.`,
	RunE: runSimulateSell,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	simAPIBase  string
	simMarketID string
	simOption   string
	simAmount   string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(simulateSellCmd)

	simulateSellCmd.Flags().StringVar(&simAPIBase, "api", "http://localhost:8080", "Base URL of the market server")
	simulateSellCmd.Flags().StringVar(&simMarketID, "market", "", "Market identifier")
	simulateSellCmd.Flags().StringVar(&simOption, "option", "", "Option the shares are staked on")
	simulateSellCmd.Flags().StringVar(&simAmount, "amount", "", "Gross amount of shares to sell")

	_ = simulateSellCmd.MarkFlagRequired("market")
	_ = simulateSellCmd.MarkFlagRequired("option")
	_ = simulateSellCmd.MarkFlagRequired("amount")
}

func runSimulateSell(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	q.Set("option", simOption)
	q.Set("amount", simAmount)

	resp, err := http.Get(fmt.Sprintf("%s/api/markets/%s/simulate-sell?%s", simAPIBase, simMarketID, q.Encode()))
	if err != nil {
		return fmt.Errorf("get quote: %w", err)
	}
	defer resp.Body.Close()

	return printAPIResponse(resp, http.StatusOK)
}
