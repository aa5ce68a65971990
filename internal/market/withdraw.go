package market

import (
	"github.com/cruisectl/truthmarket/pkg/types"
)

// WithdrawInput is a request to collect winnings after resolution. The
// winning option's settlement token is returned as proof of position: a
// bearer capability, not just information.
type WithdrawInput struct {
	// User is the acting user's account identity.
	User string
	// Payment is the winning option's settlement-token coin presented as
	// the receipt.
	Payment types.Coin
}

// Withdraw pays out a winning position once. It requires a resolved
// market, a share in the winning option and an unset withdrawal flag; the
// flag flips one-way before the payout instruction is emitted, so a second
// attempt fails with a state conflict and moves nothing.
func (m *Market) Withdraw(in WithdrawInput) (*Result, error) {
	winner, ok := m.state.Status.Winner()
	if !ok {
		return nil, reject("withdraw", types.ErrStateConflict("market is not resolved yet"))
	}
	if in.Payment.Denom != winner.TokenDenom {
		return nil, reject("withdraw", types.ErrValidation("withdrawal requires the winning token %s, got %s", winner.TokenDenom, in.Payment.Denom))
	}
	if in.Payment.Amount.IsZero() {
		return nil, reject("withdraw", types.ErrValidation("payment amount must be positive"))
	}

	share, ok := m.shares.Get(in.User, winner.Text)
	if !ok {
		return nil, reject("withdraw", types.ErrNotFound("no winning shares found for user"))
	}
	if share.Withdrawn {
		return nil, reject("withdraw", types.ErrStateConflict("user has already withdrawn their winnings"))
	}

	winnings := ActualWinnings(&m.cfg, &m.state, m.shares, in.User)

	m.shares.markWithdrawn(in.User, winner.Text)

	// The receipt comes back to the market and is retired before the
	// payout leaves.
	instructions := []types.Instruction{
		types.NewTransfer(in.Payment, in.User, m.address),
		types.NewBurn(in.Payment, m.address),
	}
	if !winnings.Amount.IsZero() {
		instructions = append(instructions, types.NewTransfer(winnings, m.address, in.User))
	}

	WithdrawsTotal.Inc()

	return &Result{
		Event: EventWithdraw,
		Attributes: attrs{}.
			add("market_id", m.cfg.ID).
			add("user", in.User).
			add("winning_option", winner.Text).
			add("total_winnings", winnings.Amount.String()),
		Instructions: instructions,
	}, nil
}
