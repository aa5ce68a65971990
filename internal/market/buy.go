package market

import (
	"github.com/cruisectl/truthmarket/pkg/types"
)

// BuyInput is a request to stake settlement tokens on one option.
type BuyInput struct {
	// Buyer is the acting user's account identity.
	Buyer string
	// Option is the label of the chosen outcome.
	Option string
	// Payment is the settlement-token coin supplied with the call.
	Payment types.Coin
}

// reject records a rejected transition and passes the error through.
func reject(transition string, err error) error {
	TransitionsRejectedTotal.WithLabelValues(transition, string(types.ClassOf(err))).Inc()
	return err
}

// Buy stakes the payment on an option. The commission slice goes to the
// admin; the net amount is credited to the buyer's share, the slot total
// and the pool, and the option's settlement token is minted to the buyer
// as a transferable receipt. Volume grows by the gross amount.
func (m *Market) Buy(in BuyInput) (*Result, error) {
	if m.state.Status.IsResolved() {
		return nil, reject("buy", types.ErrStateConflict("market is already resolved"))
	}
	if in.Payment.Denom != m.cfg.BuyToken {
		return nil, reject("buy", types.ErrValidation("payment must be in %s, got %s", m.cfg.BuyToken, in.Payment.Denom))
	}
	if in.Payment.Amount.IsZero() {
		return nil, reject("buy", types.ErrValidation("payment amount must be positive"))
	}
	option, slot, ok := m.cfg.OptionByText(in.Option)
	if !ok {
		return nil, reject("buy", types.ErrValidation("invalid option %q", in.Option))
	}

	gross := in.Payment.Amount
	commission := commissionAmount(gross, m.cfg.CommissionBps)
	net, err := gross.Sub(commission)
	if err != nil {
		return nil, reject("buy", types.ErrValidation("commission exceeds payment: %v", err))
	}

	// First position in either option counts a new bettor.
	if !m.shares.HasAny(in.Buyer, m.cfg.Options) {
		m.state.NumBettors++
	}

	m.shares.credit(in.Buyer, option.Text, net)
	m.state.addStake(slot, net)
	m.state.TotalValue.Amount = m.state.TotalValue.Amount.Add(net)
	m.state.Volume = m.state.Volume.Add(gross)

	// The payment moves into the market account first; the commission
	// slice is paid out of it.
	instructions := []types.Instruction{
		types.NewTransfer(in.Payment, in.Buyer, m.address),
		types.NewMint(types.NewCoin(option.TokenDenom, net), in.Buyer),
	}
	if !commission.IsZero() {
		instructions = append(instructions,
			types.NewTransfer(types.NewCoin(m.cfg.BuyToken, commission), m.address, m.cfg.Admin))
	}

	BuysTotal.Inc()

	return &Result{
		Event: EventBuyShare,
		Attributes: attrs{}.
			add("market_id", m.cfg.ID).
			add("option", option.Text).
			add("amount", gross.String()).
			add("net_amount", net.String()).
			add("commission_amount", commission.String()).
			add("user", in.Buyer).
			add("total_value", m.state.TotalValue.Amount.String()).
			add("total_volume", m.state.Volume.String()).
			add("odds", oddsAttribute(&m.cfg, &m.state)),
		Instructions: instructions,
	}, nil
}
