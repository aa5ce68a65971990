package market

import (
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// OptionOdds pairs an option label with its pari-mutuel odds. Odds are
// always reported with their label, never by bare slot position, so the
// A/B-to-label pairing cannot be swapped by accident.
type OptionOdds struct {
	Option string         `json:"option"`
	Odds   fixedpoint.Dec `json:"odds"`
}

// oddsForSlot returns the pari-mutuel odds for one slot: the opposing pool
// divided by this slot's pool, zero when this slot's pool is empty.
func oddsForSlot(st *State, slot int) fixedpoint.Dec {
	this := st.stakeForSlot(slot)
	other := st.stakeForSlot(1 - slot)
	if this.IsZero() {
		return fixedpoint.ZeroDec()
	}
	return fixedpoint.DecFromRatio(other, this)
}

// Odds returns both options' odds in slot order, each labeled.
func Odds(cfg *Config, st *State) [2]OptionOdds {
	return [2]OptionOdds{
		{Option: cfg.Options[0].Text, Odds: oddsForSlot(st, 0)},
		{Option: cfg.Options[1].Text, Odds: oddsForSlot(st, 1)},
	}
}

// OptionWinnings is a user's potential payout for one labeled option.
type OptionWinnings struct {
	Option   string     `json:"option"`
	Winnings types.Coin `json:"potential_winnings"`
}

// potentialForSlot computes a user's potential payout for one slot:
// the stake back in full plus floor(stake * odds), their pro-rata claim on
// the opposing pool.
func potentialForSlot(cfg *Config, st *State, shares *ShareLedger, user string, slot int) fixedpoint.Amount {
	share, ok := shares.Get(user, cfg.Options[slot].Text)
	if !ok || share.Amount.IsZero() {
		return fixedpoint.Amount{}
	}
	odds := oddsForSlot(st, slot)
	return share.Amount.Add(odds.MulAmountFloor(share.Amount))
}

// PotentialWinnings returns the user's potential payout for both options,
// labeled, in the buy token.
func PotentialWinnings(cfg *Config, st *State, shares *ShareLedger, user string) [2]OptionWinnings {
	var out [2]OptionWinnings
	for slot := 0; slot < 2; slot++ {
		out[slot] = OptionWinnings{
			Option:   cfg.Options[slot].Text,
			Winnings: types.NewCoin(cfg.BuyToken, potentialForSlot(cfg, st, shares, user, slot)),
		}
	}
	return out
}

// ActualWinnings returns the user's realized payout: the potential payout
// of the winning option when the market is resolved and the user holds a
// share in it, zero otherwise.
func ActualWinnings(cfg *Config, st *State, shares *ShareLedger, user string) types.Coin {
	winner, ok := st.Status.Winner()
	if !ok {
		return types.NewCoin(cfg.BuyToken, fixedpoint.Amount{})
	}
	_, slot, ok := cfg.OptionByText(winner.Text)
	if !ok {
		return types.NewCoin(cfg.BuyToken, fixedpoint.Amount{})
	}
	return types.NewCoin(cfg.BuyToken, potentialForSlot(cfg, st, shares, user, slot))
}
