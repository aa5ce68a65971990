package token

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Denomination is the registered metadata of one issued token.
type Denomination struct {
	Denom       string
	Issuer      string
	Symbol      string
	Precision   uint32
	Description string
}

// SimBank is an in-memory token ledger used in simulation mode and tests.
// Minted supply is unbounded; transfers and burns require balance.
type SimBank struct {
	mu       sync.Mutex
	denoms   map[string]Denomination
	balances map[string]map[string]fixedpoint.Amount // account -> denom -> amount
	logger   *zap.Logger
}

// NewSimBank creates an empty bank.
func NewSimBank(logger *zap.Logger) *SimBank {
	return &SimBank{
		denoms:   make(map[string]Denomination),
		balances: make(map[string]map[string]fixedpoint.Amount),
		logger:   logger,
	}
}

// Credit seeds an account balance directly, bypassing instructions. Used to
// fund users in simulation mode.
func (b *SimBank) Credit(account, denom string, amount fixedpoint.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, denom, amount)
}

// Balance returns the account's balance in denom.
func (b *SimBank) Balance(account, denom string) fixedpoint.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account][denom]
}

// Denom returns the metadata of an issued denomination.
func (b *SimBank) Denom(denom string) (Denomination, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.denoms[denom]
	return d, ok
}

// Execute applies the batch in order against a scratch copy of the ledger
// and swaps it in only when every instruction succeeds.
func (b *SimBank) Execute(instructions []types.Instruction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := b.clone()
	for i, ins := range instructions {
		if err := b.apply(ins); err != nil {
			b.denoms = snapshot.denoms
			b.balances = snapshot.balances
			return fmt.Errorf("instruction %d (%s %s): %w", i, ins.Kind, ins.Coin.String(), err)
		}
	}

	b.logger.Debug("executed-instructions", zap.Int("count", len(instructions)))
	return nil
}

func (b *SimBank) apply(ins types.Instruction) error {
	switch ins.Kind {
	case types.InstructionIssue:
		if _, exists := b.denoms[ins.Coin.Denom]; exists {
			return fmt.Errorf("denom %s already issued", ins.Coin.Denom)
		}
		b.denoms[ins.Coin.Denom] = Denomination{
			Denom:       ins.Coin.Denom,
			Issuer:      ins.Sender,
			Symbol:      ins.Symbol,
			Precision:   ins.Precision,
			Description: ins.Description,
		}
		return nil
	case types.InstructionMint:
		b.credit(ins.Recipient, ins.Coin.Denom, ins.Coin.Amount)
		return nil
	case types.InstructionBurn:
		return b.debit(ins.Sender, ins.Coin.Denom, ins.Coin.Amount)
	case types.InstructionTransfer:
		if err := b.debit(ins.Sender, ins.Coin.Denom, ins.Coin.Amount); err != nil {
			return err
		}
		b.credit(ins.Recipient, ins.Coin.Denom, ins.Coin.Amount)
		return nil
	default:
		return fmt.Errorf("unknown instruction kind %q", ins.Kind)
	}
}

func (b *SimBank) credit(account, denom string, amount fixedpoint.Amount) {
	if b.balances[account] == nil {
		b.balances[account] = make(map[string]fixedpoint.Amount)
	}
	b.balances[account][denom] = b.balances[account][denom].Add(amount)
}

func (b *SimBank) debit(account, denom string, amount fixedpoint.Amount) error {
	updated, err := b.balances[account][denom].Sub(amount)
	if err != nil {
		return fmt.Errorf("account %s: %w", account, err)
	}
	if b.balances[account] == nil {
		b.balances[account] = make(map[string]fixedpoint.Amount)
	}
	b.balances[account][denom] = updated
	return nil
}

func (b *SimBank) clone() *SimBank {
	denoms := make(map[string]Denomination, len(b.denoms))
	for k, v := range b.denoms {
		denoms[k] = v
	}
	balances := make(map[string]map[string]fixedpoint.Amount, len(b.balances))
	for acct, byDenom := range b.balances {
		inner := make(map[string]fixedpoint.Amount, len(byDenom))
		for d, amt := range byDenom {
			inner[d] = amt
		}
		balances[acct] = inner
	}
	return &SimBank{denoms: denoms, balances: balances}
}
