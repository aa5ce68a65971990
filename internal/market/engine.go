package market

import (
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Market owns the three records of one market instance: the immutable
// Config, the State singleton and the share ledger. Handlers are invoked in
// the total order established by the surrounding replication layer, one at
// a time; nothing here needs locks.
type Market struct {
	cfg    Config
	state  State
	shares *ShareLedger

	// Address is the market's own account identity: the sender of its
	// outbound transfers and burns.
	address string
}

// New assembles a Market from its records. address is the market's own
// account identity.
func New(cfg Config, st State, shares *ShareLedger, address string) *Market {
	if shares == nil {
		shares = NewShareLedger()
	}
	return &Market{cfg: cfg, state: st, shares: shares, address: address}
}

// Config returns the immutable configuration.
func (m *Market) Config() Config {
	return m.cfg
}

// State returns a copy of the current state.
func (m *Market) State() State {
	return m.state
}

// Shares returns the share ledger.
func (m *Market) Shares() *ShareLedger {
	return m.shares
}

// Address returns the market's own account identity.
func (m *Market) Address() string {
	return m.address
}

// Result is the output of a successful transition: the event to observe
// and the ordered token-movement instructions for the token subsystem. The
// mutated records are read back via State and Shares; storage commits them
// atomically with instruction execution or not at all.
type Result struct {
	Event        string              `json:"event"`
	Attributes   []types.Attribute   `json:"attributes"`
	Instructions []types.Instruction `json:"instructions"`
}
