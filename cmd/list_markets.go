package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listMarketsCmd = &cobra.Command{
	Use:   "list-markets",
	Short: "List markets on a running server",
	RunE:  runListMarkets,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	listAPIBase  string
	listMarketID string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listMarketsCmd)

	listMarketsCmd.Flags().StringVar(&listAPIBase, "api", "http://localhost:8080", "Base URL of the market server")
	listMarketsCmd.Flags().StringVar(&listMarketID, "market", "", "Show the full snapshot of one market instead")
}

func runListMarkets(cmd *cobra.Command, args []string) error {
	url := listAPIBase + "/api/markets"
	if listMarketID != "" {
		url += "/" + listMarketID
	}

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("get markets: %w", err)
	}
	defer resp.Body.Close()

	return printAPIResponse(resp, http.StatusOK)
}
