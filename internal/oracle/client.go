package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Client is an HTTP client for a price feed exposing
// GET {base}/price?asset={symbol} returning {"asset": ..., "price": "..."}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a price feed client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type priceResponse struct {
	Asset string `json:"asset"`
	Price string `json:"price"`
}

// FetchPrice fetches the current price for the asset. Prices arrive as
// decimal strings and are parsed without ever passing through a float.
func (c *Client) FetchPrice(ctx context.Context, asset string) (Quote, error) {
	params := url.Values{}
	params.Add("asset", asset)
	requestURL := fmt.Sprintf("%s/price?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching-price",
		zap.String("url", requestURL),
		zap.String("asset", asset))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, types.ErrUpstream("price feed request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Quote{}, types.ErrUpstream("price feed returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, types.ErrUpstream("read response body: %v", err)
	}

	var pr priceResponse
	err = json.Unmarshal(body, &pr)
	if err != nil {
		return Quote{}, types.ErrUpstream("unmarshal response: %v", err)
	}

	price, err := fixedpoint.DecFromString(pr.Price)
	if err != nil {
		return Quote{}, types.ErrUpstream("parse price %q: %v", pr.Price, err)
	}

	c.logger.Debug("fetched-price",
		zap.String("asset", asset),
		zap.String("price", price.String()))

	return Quote{Asset: asset, Price: price, ObservedAt: time.Now()}, nil
}
