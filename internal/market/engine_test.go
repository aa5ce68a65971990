package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

func TestBuy_HappyPath(t *testing.T) {
	m := newTestMarket(500)

	res, err := m.Buy(BuyInput{Buyer: "user1", Option: "Yes", Payment: buyCoin(1000)})
	require.NoError(t, err)

	st := m.State()
	assert.Equal(t, "950", st.TotalStakeA.String())
	assert.Equal(t, "0", st.TotalStakeB.String())
	assert.Equal(t, "950", st.TotalValue.Amount.String())
	assert.Equal(t, "1000", st.Volume.String())
	assert.Equal(t, uint64(1), st.NumBettors)

	share, ok := m.Shares().Get("user1", "Yes")
	require.True(t, ok)
	assert.Equal(t, "950", share.Amount.String())
	assert.False(t, share.Withdrawn)

	// Deposit the payment, mint the receipt to the buyer, remit the
	// commission to the admin.
	require.Len(t, res.Instructions, 3)
	assert.Equal(t, types.InstructionTransfer, res.Instructions[0].Kind)
	assert.Equal(t, testBuyToken, res.Instructions[0].Coin.Denom)
	assert.Equal(t, "1000", res.Instructions[0].Coin.Amount.String())
	assert.Equal(t, "user1", res.Instructions[0].Sender)
	assert.Equal(t, testMarketAddr, res.Instructions[0].Recipient)

	assert.Equal(t, types.InstructionMint, res.Instructions[1].Kind)
	assert.Equal(t, testYesDenom, res.Instructions[1].Coin.Denom)
	assert.Equal(t, "950", res.Instructions[1].Coin.Amount.String())
	assert.Equal(t, "user1", res.Instructions[1].Recipient)

	assert.Equal(t, types.InstructionTransfer, res.Instructions[2].Kind)
	assert.Equal(t, "50", res.Instructions[2].Coin.Amount.String())
	assert.Equal(t, testAdmin, res.Instructions[2].Recipient)

	assert.Equal(t, EventBuyShare, res.Event)
	assert.Equal(t, "1000", attrValue(res, "amount"))
	assert.Equal(t, "950", attrValue(res, "net_amount"))
}

func TestBuy_ParticipantCountedOncePerUser(t *testing.T) {
	m := newTestMarket(500)

	mustBuy(m, "user1", "Yes", 1000)
	mustBuy(m, "user1", "Yes", 500)
	mustBuy(m, "user1", "No", 200) // second option, same bettor
	mustBuy(m, "user2", "No", 300)

	assert.Equal(t, uint64(2), m.State().NumBettors)

	share, ok := m.Shares().Get("user1", "Yes")
	require.True(t, ok)
	assert.Equal(t, "1425", share.Amount.String(), "950 + 475 accumulate on one record")
}

func TestBuy_ZeroCommissionSkipsCommissionTransfer(t *testing.T) {
	m := newTestMarket(0)

	res, err := m.Buy(BuyInput{Buyer: "user1", Option: "Yes", Payment: buyCoin(1000)})
	require.NoError(t, err)

	// Deposit and mint only.
	require.Len(t, res.Instructions, 2)
	assert.Equal(t, types.InstructionTransfer, res.Instructions[0].Kind)
	assert.Equal(t, types.InstructionMint, res.Instructions[1].Kind)
}

func TestBuy_Failures(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(m *Market)
		input         BuyInput
		expectedClass types.ErrorClass
	}{
		{
			name:          "wrong-denomination",
			input:         BuyInput{Buyer: "u", Option: "Yes", Payment: yesCoin(100)},
			expectedClass: types.ErrClassValidation,
		},
		{
			name:          "zero-amount",
			input:         BuyInput{Buyer: "u", Option: "Yes", Payment: buyCoin(0)},
			expectedClass: types.ErrClassValidation,
		},
		{
			name:          "unknown-option",
			input:         BuyInput{Buyer: "u", Option: "Maybe", Payment: buyCoin(100)},
			expectedClass: types.ErrClassValidation,
		},
		{
			name:          "already-resolved",
			setup:         func(m *Market) { mustResolve(m, "98000") },
			input:         BuyInput{Buyer: "u", Option: "Yes", Payment: buyCoin(100)},
			expectedClass: types.ErrClassStateConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMarket(500)
			if tt.setup != nil {
				tt.setup(m)
			}
			before := m.State()

			_, err := m.Buy(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.expectedClass, types.ClassOf(err))

			// No partial mutation on failure.
			assert.Equal(t, before, m.State())
		})
	}
}

func TestSell_HappyPathAtStart(t *testing.T) {
	m := newTestMarket(500)
	mustBuy(m, "user1", "Yes", 1000) // position 950

	res, err := m.Sell(SellInput{Seller: "user1", Option: "Yes", Payment: yesCoin(400), Now: testStart})
	require.NoError(t, err)

	// Zero tax at start; commission 5% of 400 = 20; net 380.
	assert.Equal(t, "0", attrValue(res, "tax_amount"))
	assert.Equal(t, "20", attrValue(res, "commission_amount"))
	assert.Equal(t, "380", attrValue(res, "final_amount"))

	share, _ := m.Shares().Get("user1", "Yes")
	assert.Equal(t, "550", share.Amount.String(), "share decreases by the gross amount")

	st := m.State()
	assert.Equal(t, "570", st.TotalStakeA.String(), "950 - 380: only the net leaves the pool")
	assert.Equal(t, "570", st.TotalValue.Amount.String())
	assert.Equal(t, "1400", st.Volume.String(), "volume counts gross both ways")

	// Return the receipt, burn it, pay the seller, remit the commission.
	require.Len(t, res.Instructions, 4)
	assert.Equal(t, types.InstructionTransfer, res.Instructions[0].Kind)
	assert.Equal(t, testYesDenom, res.Instructions[0].Coin.Denom)
	assert.Equal(t, testMarketAddr, res.Instructions[0].Recipient)
	assert.Equal(t, types.InstructionBurn, res.Instructions[1].Kind)
	assert.Equal(t, "400", res.Instructions[1].Coin.Amount.String())
	assert.Equal(t, types.InstructionTransfer, res.Instructions[2].Kind)
	assert.Equal(t, "380", res.Instructions[2].Coin.Amount.String())
	assert.Equal(t, "user1", res.Instructions[2].Recipient)
	assert.Equal(t, types.InstructionTransfer, res.Instructions[3].Kind)
	assert.Equal(t, "20", res.Instructions[3].Coin.Amount.String())
	assert.Equal(t, testAdmin, res.Instructions[3].Recipient)
}

func TestSell_AtEndEverythingTaxed(t *testing.T) {
	m := newTestMarket(500)
	mustBuy(m, "user1", "Yes", 1000)

	res, err := m.Sell(SellInput{Seller: "user1", Option: "Yes", Payment: yesCoin(400), Now: testEnd})
	require.NoError(t, err)

	assert.Equal(t, "1", attrValue(res, "tax_rate"))
	assert.Equal(t, "0", attrValue(res, "final_amount"))

	// Return and burn only: nothing to pay out, no commission on zero.
	require.Len(t, res.Instructions, 2)
	assert.Equal(t, types.InstructionTransfer, res.Instructions[0].Kind)
	assert.Equal(t, types.InstructionBurn, res.Instructions[1].Kind)

	// The taxed amount stays in the pool for remaining participants.
	st := m.State()
	assert.Equal(t, "950", st.TotalStakeA.String())
	assert.Equal(t, "950", st.TotalValue.Amount.String())
}

func TestSell_Failures(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(m *Market)
		input         SellInput
		expectedClass types.ErrorClass
	}{
		{
			name:          "no-share-record",
			input:         SellInput{Seller: "stranger", Option: "Yes", Payment: yesCoin(100), Now: testStart},
			expectedClass: types.ErrClassNotFound,
		},
		{
			name: "insufficient-balance",
			setup: func(m *Market) {
				mustBuy(m, "user1", "Yes", 100) // position 95
			},
			input:         SellInput{Seller: "user1", Option: "Yes", Payment: yesCoin(500), Now: testStart},
			expectedClass: types.ErrClassValidation,
		},
		{
			name:          "unknown-option",
			input:         SellInput{Seller: "user1", Option: "Maybe", Payment: yesCoin(100), Now: testStart},
			expectedClass: types.ErrClassValidation,
		},
		{
			name: "wrong-denomination",
			setup: func(m *Market) {
				mustBuy(m, "user1", "Yes", 1000)
			},
			input:         SellInput{Seller: "user1", Option: "Yes", Payment: noCoin(100), Now: testStart},
			expectedClass: types.ErrClassValidation,
		},
		{
			name: "already-resolved",
			setup: func(m *Market) {
				mustBuy(m, "user1", "Yes", 1000)
				mustResolve(m, "98000")
			},
			input:         SellInput{Seller: "user1", Option: "Yes", Payment: yesCoin(100), Now: testEnd},
			expectedClass: types.ErrClassStateConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMarket(500)
			if tt.setup != nil {
				tt.setup(m)
			}
			before := m.State()

			_, err := m.Sell(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.expectedClass, types.ClassOf(err))
			assert.Equal(t, before, m.State())
		})
	}
}

// Simulating a sell reports exactly the figures a real sell at the same
// timestamp applies.
func TestSimulateSell_RoundTripsWithRealSell(t *testing.T) {
	for _, offset := range []time.Duration{0, 137 * time.Second, 500 * time.Second, 999 * time.Second} {
		now := testStart.Add(offset)

		m := newTestMarket(500)
		mustBuy(m, "user1", "Yes", 10_000)

		quote, err := m.SimulateSell("Yes", fixedpoint.NewAmount(3000), now)
		require.NoError(t, err)

		res, err := m.Sell(SellInput{Seller: "user1", Option: "Yes", Payment: yesCoin(3000), Now: now})
		require.NoError(t, err)

		assert.Equal(t, quote.TaxRate.String(), attrValue(res, "tax_rate"))
		assert.Equal(t, quote.TaxAmount.String(), attrValue(res, "tax_amount"))
		assert.Equal(t, quote.AmountAfterTax.String(), attrValue(res, "amount_after_tax"))
		assert.Equal(t, quote.Commission.String(), attrValue(res, "commission_amount"))
		assert.Equal(t, quote.NetPayout.String(), attrValue(res, "final_amount"))
	}
}

func TestSimulateSell_Validation(t *testing.T) {
	m := newTestMarket(500)

	_, err := m.SimulateSell("Maybe", fixedpoint.NewAmount(100), testStart)
	assert.Equal(t, types.ErrClassValidation, types.ClassOf(err))

	_, err = m.SimulateSell("Yes", fixedpoint.Amount{}, testStart)
	assert.Equal(t, types.ErrClassValidation, types.ClassOf(err))
}

func TestResolve_TargetReachedAndMissed(t *testing.T) {
	tests := []struct {
		name           string
		rule           Rule
		price          string
		expectedWinner string
	}{
		{name: "price-at-reached", rule: RulePriceAt, price: "98000", expectedWinner: "Yes"},
		{name: "price-at-exact", rule: RulePriceAt, price: "97000", expectedWinner: "Yes"},
		{name: "price-at-missed", rule: RulePriceAt, price: "96999.99", expectedWinner: "No"},
		{name: "up-down-reached", rule: RuleUpDown, price: "99000", expectedWinner: "Up"},
		{name: "up-down-missed", rule: RuleUpDown, price: "90000", expectedWinner: "Down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(500)
			cfg.Rule = tt.rule
			opts, err := tt.rule.Options()
			require.NoError(t, err)
			cfg.Options[0].Text = opts[0]
			cfg.Options[1].Text = opts[1]

			m := New(cfg, NewState(cfg.BuyToken), NewShareLedger(), testMarketAddr)

			res, err := m.Resolve(ResolveInput{Caller: testAdmin, Now: testEnd, Price: fixedpoint.MustDec(tt.price)})
			require.NoError(t, err)

			winner, ok := m.State().Status.Winner()
			require.True(t, ok)
			assert.Equal(t, tt.expectedWinner, winner.Text)
			assert.Equal(t, tt.expectedWinner, attrValue(res, "winning_option"))
			assert.Empty(t, res.Instructions, "resolution moves no funds")
		})
	}
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(m *Market)
		input         ResolveInput
		expectedClass types.ErrorClass
	}{
		{
			name:          "non-admin",
			input:         ResolveInput{Caller: "mallory", Now: testEnd, Price: fixedpoint.MustDec("98000")},
			expectedClass: types.ErrClassAuthorization,
		},
		{
			name:          "before-end-time",
			input:         ResolveInput{Caller: testAdmin, Now: testEnd.Add(-time.Second), Price: fixedpoint.MustDec("98000")},
			expectedClass: types.ErrClassStateConflict,
		},
		{
			name:          "second-resolve",
			setup:         func(m *Market) { mustResolve(m, "98000") },
			input:         ResolveInput{Caller: testAdmin, Now: testEnd, Price: fixedpoint.MustDec("1")},
			expectedClass: types.ErrClassStateConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMarket(500)
			if tt.setup != nil {
				tt.setup(m)
			}
			before := m.State()

			_, err := m.Resolve(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.expectedClass, types.ClassOf(err))
			assert.Equal(t, before, m.State(), "a failed resolve must not re-evaluate the outcome")
		})
	}
}

func TestWithdraw_WinnerCollectsOnce(t *testing.T) {
	m := newTestMarket(500)
	mustBuy(m, "user1", "Yes", 1000) // 950
	mustBuy(m, "user2", "No", 2000)  // 1900
	mustResolve(m, "98000")          // Yes wins

	res, err := m.Withdraw(WithdrawInput{User: "user1", Payment: yesCoin(950)})
	require.NoError(t, err)

	// Return the receipt, retire it, pay the winnings.
	require.Len(t, res.Instructions, 3)
	assert.Equal(t, types.InstructionTransfer, res.Instructions[0].Kind)
	assert.Equal(t, testYesDenom, res.Instructions[0].Coin.Denom)
	assert.Equal(t, types.InstructionBurn, res.Instructions[1].Kind)
	assert.Equal(t, types.InstructionTransfer, res.Instructions[2].Kind)
	assert.Equal(t, testBuyToken, res.Instructions[2].Coin.Denom)
	assert.Equal(t, "2850", res.Instructions[2].Coin.Amount.String())
	assert.Equal(t, "user1", res.Instructions[2].Recipient)

	share, _ := m.Shares().Get("user1", "Yes")
	assert.True(t, share.Withdrawn)

	// Second attempt: state conflict, nothing moves.
	_, err = m.Withdraw(WithdrawInput{User: "user1", Payment: yesCoin(950)})
	assert.Equal(t, types.ErrClassStateConflict, types.ClassOf(err))
}

func TestWithdraw_Failures(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(m *Market)
		input         WithdrawInput
		expectedClass types.ErrorClass
	}{
		{
			name: "not-resolved",
			setup: func(m *Market) {
				mustBuy(m, "user1", "Yes", 1000)
			},
			input:         WithdrawInput{User: "user1", Payment: yesCoin(950)},
			expectedClass: types.ErrClassStateConflict,
		},
		{
			name: "loser-has-no-winning-share",
			setup: func(m *Market) {
				mustBuy(m, "user1", "Yes", 1000)
				mustBuy(m, "user2", "No", 2000)
				mustResolve(m, "98000")
			},
			input:         WithdrawInput{User: "user2", Payment: yesCoin(1)},
			expectedClass: types.ErrClassNotFound,
		},
		{
			name: "wrong-receipt-denomination",
			setup: func(m *Market) {
				mustBuy(m, "user1", "Yes", 1000)
				mustResolve(m, "98000")
			},
			input:         WithdrawInput{User: "user1", Payment: noCoin(1)},
			expectedClass: types.ErrClassValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMarket(500)
			if tt.setup != nil {
				tt.setup(m)
			}

			_, err := m.Withdraw(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.expectedClass, types.ClassOf(err))
		})
	}
}

// The running totals always equal the sum of live share amounts, and the
// pool moves only by what changes hands with users.
func TestConservation_TotalsMatchShares(t *testing.T) {
	m := newTestMarket(500)

	mustBuy(m, "user1", "Yes", 1000)
	mustBuy(m, "user2", "No", 2000)
	mustBuy(m, "user3", "Yes", 777)
	_, err := m.Sell(SellInput{Seller: "user1", Option: "Yes", Payment: yesCoin(200), Now: testStart.Add(250 * time.Second)})
	require.NoError(t, err)

	sumA := fixedpoint.Amount{}
	sumB := fixedpoint.Amount{}
	for _, e := range m.Shares().All() {
		switch e.Key.Option {
		case "Yes":
			sumA = sumA.Add(e.Share.Amount)
		case "No":
			sumB = sumB.Add(e.Share.Amount)
		}
	}

	st := m.State()
	// Sells shrink the total by net but the share by gross, so shares can
	// only lag the totals by the retained tax+commission.
	assert.LessOrEqual(t, sumA.Cmp(st.TotalStakeA), 0)
	assert.Equal(t, 0, sumB.Cmp(st.TotalStakeB))
	assert.Equal(t, 0, st.TotalValue.Amount.Cmp(st.TotalStakeA.Add(st.TotalStakeB)))
}
