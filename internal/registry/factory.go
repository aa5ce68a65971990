package registry

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/market"
	"github.com/cruisectl/truthmarket/internal/oracle"
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Params describes the market to create. ID is optional; a random UUID is
// assigned when empty.
type Params struct {
	ID            string
	Admin         string
	CommissionBps uint32
	BuyToken      string
	StartTime     time.Time
	EndTime       time.Time

	Title       string
	Description string
	BannerURL   string

	Oracle           string
	ResolutionSource string
	AssetToTrack     string
	Rule             market.Rule
	TargetPrice      fixedpoint.Dec
}

// Factory instantiates markets under one registry address.
type Factory struct {
	registry common.Address
	prices   oracle.Source
	logger   *zap.Logger
}

// NewFactory creates a Factory deriving market addresses under registry.
func NewFactory(registry common.Address, prices oracle.Source, logger *zap.Logger) *Factory {
	return &Factory{registry: registry, prices: prices, logger: logger}
}

// Instantiated is the outcome of a successful market creation: the engine
// ready to accept transitions, plus the creation result to execute and
// publish. The instructions issue the two settlement tokens the market
// mints receipts in.
type Instantiated struct {
	Market *market.Market
	Result *market.Result
}

// Instantiate validates params, records the tracked asset's current price
// as the market's initial price, derives the address and settlement-token
// denominations and builds the market in Pending status. Creation fails if
// the oracle cannot produce a price: a market without an anchored initial
// price could never resolve meaningfully.
func (f *Factory) Instantiate(ctx context.Context, p Params) (*Instantiated, error) {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}

	opts, err := p.Rule.Options()
	if err != nil {
		return nil, err
	}

	quote, err := f.prices.FetchPrice(ctx, p.AssetToTrack)
	if err != nil {
		return nil, types.ErrUpstream("fetch initial price for %s: %v", p.AssetToTrack, err)
	}

	addr := DeriveAddress(f.registry, id)

	cfg := market.Config{
		ID:            id,
		Admin:         p.Admin,
		CommissionBps: p.CommissionBps,
		Options: [2]market.MarketOption{
			{Text: opts[0], TokenDenom: TokenDenom(opts[0], id, addr)},
			{Text: opts[1], TokenDenom: TokenDenom(opts[1], id, addr)},
		},
		BuyToken:  p.BuyToken,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,

		Title:       p.Title,
		Description: p.Description,
		BannerURL:   p.BannerURL,

		Oracle:           p.Oracle,
		ResolutionSource: p.ResolutionSource,
		AssetToTrack:     p.AssetToTrack,
		Rule:             p.Rule,
		TargetPrice:      p.TargetPrice,
		InitialPrice:     quote.Price,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := market.New(cfg, market.NewState(cfg.BuyToken), market.NewShareLedger(), addr.Hex())

	instructions := make([]types.Instruction, 0, 2)
	for _, opt := range cfg.Options {
		instructions = append(instructions, types.NewIssue(
			addr.Hex(),
			opt.TokenDenom,
			strings.ToUpper(opt.Text),
			0,
			opt.Text+" settlement token for market "+id,
		))
	}

	f.logger.Info("market-instantiated",
		zap.String("market_id", id),
		zap.String("address", addr.Hex()),
		zap.String("asset", cfg.AssetToTrack),
		zap.String("initial_price", cfg.InitialPrice.String()),
		zap.String("target_price", cfg.TargetPrice.String()))

	return &Instantiated{
		Market: m,
		Result: market.NewCreateResult(&cfg, addr.Hex(), instructions),
	}, nil
}
