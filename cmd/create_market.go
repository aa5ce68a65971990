package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cruisectl/truthmarket/pkg/httpserver"
)

//nolint:gochecknoglobals // Cobra boilerplate
var createMarketCmd = &cobra.Command{
	Use:   "create-market",
	Short: "Create a market on a running server",
	Long: `Creates a new binary prediction market through the HTTP API.

The market opens immediately and closes after --duration. The oracle
price of --asset at resolution time decides the outcome against
--target-price.`,
	RunE: runCreateMarket,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	createAPIBase    string
	createAdmin      string
	createBps        uint32
	createBuyToken   string
	createAsset      string
	createRule       string
	createTarget     string
	createDuration   time.Duration
	createTitle      string
	createMarketDesc string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(createMarketCmd)

	createMarketCmd.Flags().StringVar(&createAPIBase, "api", "http://localhost:8080", "Base URL of the market server")
	createMarketCmd.Flags().StringVar(&createAdmin, "admin", "", "Admin account that may resolve the market")
	createMarketCmd.Flags().Uint32Var(&createBps, "commission-bps", 100, "Commission in basis points")
	createMarketCmd.Flags().StringVar(&createBuyToken, "buy-token", "uusd", "Settlement token denomination")
	createMarketCmd.Flags().StringVar(&createAsset, "asset", "BTC", "Asset the market tracks")
	createMarketCmd.Flags().StringVar(&createRule, "rule", "price_at", "Resolution rule (price_at or up_down)")
	createMarketCmd.Flags().StringVar(&createTarget, "target-price", "", "Target price deciding the outcome")
	createMarketCmd.Flags().DurationVar(&createDuration, "duration", 24*time.Hour, "Time until the market closes")
	createMarketCmd.Flags().StringVar(&createTitle, "title", "", "Market title")
	createMarketCmd.Flags().StringVar(&createMarketDesc, "description", "", "Market description")

	_ = createMarketCmd.MarkFlagRequired("admin")
	_ = createMarketCmd.MarkFlagRequired("target-price")
	_ = createMarketCmd.MarkFlagRequired("title")
}

func runCreateMarket(cmd *cobra.Command, args []string) error {
	now := time.Now().UTC()
	body := httpserver.CreateMarketRequest{
		Admin:         createAdmin,
		CommissionBps: createBps,
		BuyToken:      createBuyToken,
		StartTime:     now.Format(time.RFC3339),
		EndTime:       now.Add(createDuration).Format(time.RFC3339),
		Title:         createTitle,
		Description:   createMarketDesc,
		AssetToTrack:  createAsset,
		Rule:          createRule,
		TargetPrice:   createTarget,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := http.Post(createAPIBase+"/api/markets", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post market: %w", err)
	}
	defer resp.Body.Close()

	return printAPIResponse(resp, http.StatusCreated)
}

// printAPIResponse pretty-prints the server's JSON reply, failing when the
// status is not the expected one.
func printAPIResponse(resp *http.Response, wantStatus int) error {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	fmt.Println(string(pretty))

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
