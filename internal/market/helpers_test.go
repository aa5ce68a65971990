package market

import (
	"time"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

const (
	testMarketAddr = "market-1-addr"
	testAdmin      = "admin-addr"
	testBuyToken   = "uusdc"
	testYesDenom   = "truthyes_market-1"
	testNoDenom    = "truthno_market-1"
)

var (
	testStart = time.Unix(1_700_000_000, 0).UTC()
	testEnd   = testStart.Add(1000 * time.Second)
)

// testConfig returns a PriceAt market with the given commission.
func testConfig(commissionBps uint32) Config {
	return Config{
		ID:            "market-1",
		Admin:         testAdmin,
		CommissionBps: commissionBps,
		Options: [2]MarketOption{
			{Text: "Yes", TokenDenom: testYesDenom},
			{Text: "No", TokenDenom: testNoDenom},
		},
		BuyToken:         testBuyToken,
		StartTime:        testStart,
		EndTime:          testEnd,
		Title:            "Will BTC be above 97000?",
		Description:      "Resolves Yes if BTC >= 97000 at end time",
		ResolutionSource: "price-feed",
		Oracle:           "oracle-addr",
		AssetToTrack:     "BTC",
		Rule:             RulePriceAt,
		TargetPrice:      fixedpoint.MustDec("97000"),
		InitialPrice:     fixedpoint.MustDec("95000"),
	}
}

// newTestMarket builds a fresh pending market.
func newTestMarket(commissionBps uint32) *Market {
	cfg := testConfig(commissionBps)
	return New(cfg, NewState(cfg.BuyToken), NewShareLedger(), testMarketAddr)
}

func buyCoin(amount uint64) types.Coin {
	return types.NewCoin(testBuyToken, fixedpoint.NewAmount(amount))
}

func yesCoin(amount uint64) types.Coin {
	return types.NewCoin(testYesDenom, fixedpoint.NewAmount(amount))
}

func noCoin(amount uint64) types.Coin {
	return types.NewCoin(testNoDenom, fixedpoint.NewAmount(amount))
}

// mustBuy applies a buy and panics on failure; for test setup only.
func mustBuy(m *Market, user, option string, amount uint64) *Result {
	res, err := m.Buy(BuyInput{Buyer: user, Option: option, Payment: buyCoin(amount)})
	if err != nil {
		panic(err)
	}
	return res
}

// mustResolve resolves with the given price at end time; for test setup.
func mustResolve(m *Market, price string) *Result {
	res, err := m.Resolve(ResolveInput{Caller: testAdmin, Now: testEnd, Price: fixedpoint.MustDec(price)})
	if err != nil {
		panic(err)
	}
	return res
}

func attrValue(res *Result, key string) string {
	for _, a := range res.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
