package market

import (
	"fmt"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Phase is the coarse lifecycle phase of a market.
//
// Only Pending and Resolved are reachable: no transition produces Active,
// Closed or Cancelled. They stay in the model pending product clarification
// (introducing them would change who may buy/sell/withdraw and when), and
// the handlers treat every non-Resolved phase as open for trading.
type Phase uint8

const (
	// PhasePending - created, open for buys and sells.
	PhasePending Phase = iota
	// PhaseActive - reserved, unreachable.
	PhaseActive
	// PhaseClosed - reserved, unreachable.
	PhaseClosed
	// PhaseResolved - outcome fixed, only withdrawals proceed.
	PhaseResolved
	// PhaseCancelled - reserved, unreachable.
	PhaseCancelled
)

// String returns the phase name used in logs, events and storage.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	case PhaseResolved:
		return "resolved"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// PhaseFromString parses a phase name stored by String.
func PhaseFromString(s string) (Phase, error) {
	for _, p := range []Phase{PhasePending, PhaseActive, PhaseClosed, PhaseResolved, PhaseCancelled} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Status is the market status as tagged state: a winner exists exactly when
// the phase is Resolved. Constructed only via StatusPending and
// StatusResolved, so "resolved implies outcome present" holds by type.
type Status struct {
	phase  Phase
	winner MarketOption
}

// StatusPending returns the initial status.
func StatusPending() Status {
	return Status{phase: PhasePending}
}

// StatusResolved returns a terminal status carrying the winning option.
func StatusResolved(winner MarketOption) Status {
	return Status{phase: PhaseResolved, winner: winner}
}

// Phase returns the lifecycle phase.
func (s Status) Phase() Phase {
	return s.phase
}

// Winner returns the winning option and true when the market is resolved.
func (s Status) Winner() (MarketOption, bool) {
	if s.phase != PhaseResolved {
		return MarketOption{}, false
	}
	return s.winner, true
}

// IsResolved reports whether the one-way resolve transition has happened.
func (s Status) IsResolved() bool {
	return s.phase == PhaseResolved
}

// String renders "pending" or "resolved(Yes)".
func (s Status) String() string {
	if s.phase == PhaseResolved {
		return fmt.Sprintf("resolved(%s)", s.winner.Text)
	}
	return s.phase.String()
}

// State is the mutable aggregate state of one market instance. It is
// created zeroed at instantiation, mutated by every buy/sell/resolve, and
// never deleted.
type State struct {
	Status Status

	// TotalValue is the pooled settlement-token value: the net amount that
	// has actually changed hands with users (post-commission on buys,
	// post-tax-and-commission on sells). Retained tax and commission stay
	// inside the pool for remaining participants.
	TotalValue types.Coin

	// NumBettors counts distinct users who ever held a position.
	NumBettors uint64

	// TotalStakeA and TotalStakeB are the running net stakes per slot.
	TotalStakeA fixedpoint.Amount
	TotalStakeB fixedpoint.Amount

	// Volume is cumulative lifetime gross flow: pre-commission buys plus
	// pre-tax sells.
	Volume fixedpoint.Amount
}

// NewState returns the zeroed initial state for a market settling in
// buyToken.
func NewState(buyToken string) State {
	return State{
		Status:     StatusPending(),
		TotalValue: types.NewCoin(buyToken, fixedpoint.Amount{}),
	}
}

// stakeForSlot returns the running total for slot 0 or 1.
func (s *State) stakeForSlot(slot int) fixedpoint.Amount {
	if slot == 0 {
		return s.TotalStakeA
	}
	return s.TotalStakeB
}

// addStake increases the running total for a slot.
func (s *State) addStake(slot int, amount fixedpoint.Amount) {
	if slot == 0 {
		s.TotalStakeA = s.TotalStakeA.Add(amount)
	} else {
		s.TotalStakeB = s.TotalStakeB.Add(amount)
	}
}

// subStake decreases the running total for a slot.
func (s *State) subStake(slot int, amount fixedpoint.Amount) error {
	if slot == 0 {
		updated, err := s.TotalStakeA.Sub(amount)
		if err != nil {
			return err
		}
		s.TotalStakeA = updated
		return nil
	}
	updated, err := s.TotalStakeB.Sub(amount)
	if err != nil {
		return err
	}
	s.TotalStakeB = updated
	return nil
}
