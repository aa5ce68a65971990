package market

import (
	"time"

	"github.com/cruisectl/truthmarket/pkg/types"
)

// SellInput is a request to exit part of a position by returning the
// option's settlement tokens for burning.
type SellInput struct {
	// Seller is the acting user's account identity.
	Seller string
	// Option is the label of the outcome being exited.
	Option string
	// Payment is the option's settlement-token coin returned for burning;
	// its amount is the gross sell amount.
	Payment types.Coin
	// Now is the caller-supplied current time used for the exit tax.
	Now time.Time
}

// Sell exits a position. The gross amount is taxed by elapsed market time,
// commission is taken on the post-tax amount, and only the final net
// leaves the pool; tax and commission remainders stay in for the other
// participants. The returned settlement tokens are burned, and volume
// grows by the gross amount.
func (m *Market) Sell(in SellInput) (*Result, error) {
	if m.state.Status.IsResolved() {
		return nil, reject("sell", types.ErrStateConflict("cannot sell shares after market is resolved"))
	}
	option, slot, ok := m.cfg.OptionByText(in.Option)
	if !ok {
		return nil, reject("sell", types.ErrValidation("invalid option %q", in.Option))
	}
	if in.Payment.Denom != option.TokenDenom {
		return nil, reject("sell", types.ErrValidation("payment must be in %s, got %s", option.TokenDenom, in.Payment.Denom))
	}
	if in.Payment.Amount.IsZero() {
		return nil, reject("sell", types.ErrValidation("sell amount must be positive"))
	}

	gross := in.Payment.Amount
	share, ok := m.shares.Get(in.Seller, option.Text)
	if !ok {
		return nil, reject("sell", types.ErrNotFound("no shares found for user"))
	}
	if share.Amount.LT(gross) {
		return nil, reject("sell", types.ErrValidation("insufficient shares: have %s, selling %s", share.Amount.String(), gross.String()))
	}

	quote := quoteSell(&m.cfg, gross, in.Now)

	err := m.shares.debit(in.Seller, option.Text, gross)
	if err != nil {
		return nil, reject("sell", types.ErrValidation("debit share: %v", err))
	}
	// The slot total and the pool shrink only by what actually leaves.
	err = m.state.subStake(slot, quote.NetPayout)
	if err != nil {
		return nil, reject("sell", types.ErrValidation("stake total underflow: %v", err))
	}
	m.state.TotalValue.Amount, err = m.state.TotalValue.Amount.Sub(quote.NetPayout)
	if err != nil {
		return nil, reject("sell", types.ErrValidation("pool underflow: %v", err))
	}
	m.state.Volume = m.state.Volume.Add(gross)

	// The receipt tokens come back to the market and are retired there.
	instructions := []types.Instruction{
		types.NewTransfer(in.Payment, in.Seller, m.address),
		types.NewBurn(types.NewCoin(option.TokenDenom, gross), m.address),
	}
	if !quote.NetPayout.IsZero() {
		instructions = append(instructions,
			types.NewTransfer(types.NewCoin(m.cfg.BuyToken, quote.NetPayout), m.address, in.Seller))
	}
	if !quote.Commission.IsZero() {
		instructions = append(instructions,
			types.NewTransfer(types.NewCoin(m.cfg.BuyToken, quote.Commission), m.address, m.cfg.Admin))
	}

	SellsTotal.Inc()

	return &Result{
		Event: EventSellShare,
		Attributes: attrs{}.
			add("market_id", m.cfg.ID).
			add("option", option.Text).
			add("tokens_sent", gross.String()).
			add("tax_rate", quote.TaxRate.String()).
			add("tax_amount", quote.TaxAmount.String()).
			add("amount_after_tax", quote.AmountAfterTax.String()).
			add("commission_amount", quote.Commission.String()).
			add("final_amount", quote.NetPayout.String()).
			add("user", in.Seller).
			add("total_value", m.state.TotalValue.Amount.String()).
			add("total_volume", m.state.Volume.String()).
			add("odds", oddsAttribute(&m.cfg, &m.state)),
		Instructions: instructions,
	}, nil
}
