package market

import (
	"sort"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
)

// ShareKey identifies a position record: one user, one option label.
type ShareKey struct {
	User   string
	Option string
}

// Share is a user's recorded stake in one option. A user has at most one
// Share per option, so at most two in total. Shares are never deleted, even
// at zero amount; Withdrawn flips false to true exactly once and never
// reverts.
type Share struct {
	Amount    fixedpoint.Amount `json:"amount"`
	Withdrawn bool              `json:"withdrawn"`
}

// ShareEntry pairs a key with its record for iteration.
type ShareEntry struct {
	Key   ShareKey
	Share Share
}

// ShareLedger holds the per-(user, option) positions of one market with
// O(1) point lookup. It tracks which keys a transition touched so the
// storage layer can commit exactly those records.
type ShareLedger struct {
	shares map[ShareKey]Share
	dirty  map[ShareKey]struct{}
}

// NewShareLedger creates an empty ledger.
func NewShareLedger() *ShareLedger {
	return &ShareLedger{
		shares: make(map[ShareKey]Share),
		dirty:  make(map[ShareKey]struct{}),
	}
}

// Load seeds the ledger from persisted records without marking them dirty.
func (l *ShareLedger) Load(entries map[ShareKey]Share) {
	for k, s := range entries {
		l.shares[k] = s
	}
}

// Get returns the share for (user, option) and whether it exists.
func (l *ShareLedger) Get(user, option string) (Share, bool) {
	s, ok := l.shares[ShareKey{User: user, Option: option}]
	return s, ok
}

// HasAny reports whether user holds a share in any of the given options.
func (l *ShareLedger) HasAny(user string, options [2]MarketOption) bool {
	for _, opt := range options {
		if _, ok := l.shares[ShareKey{User: user, Option: opt.Text}]; ok {
			return true
		}
	}
	return false
}

// credit increases (or creates) the share for (user, option).
func (l *ShareLedger) credit(user, option string, amount fixedpoint.Amount) {
	key := ShareKey{User: user, Option: option}
	s := l.shares[key]
	s.Amount = s.Amount.Add(amount)
	l.shares[key] = s
	l.dirty[key] = struct{}{}
}

// debit decreases the share for (user, option). The caller has already
// checked the balance; an underflow here is a programming error.
func (l *ShareLedger) debit(user, option string, amount fixedpoint.Amount) error {
	key := ShareKey{User: user, Option: option}
	s := l.shares[key]
	updated, err := s.Amount.Sub(amount)
	if err != nil {
		return err
	}
	s.Amount = updated
	l.shares[key] = s
	l.dirty[key] = struct{}{}
	return nil
}

// markWithdrawn flips the one-way withdrawal flag.
func (l *ShareLedger) markWithdrawn(user, option string) {
	key := ShareKey{User: user, Option: option}
	s := l.shares[key]
	s.Withdrawn = true
	l.shares[key] = s
	l.dirty[key] = struct{}{}
}

// Dirty returns the keys touched since the last ResetDirty, in a stable
// (user, option) order so commits are deterministic.
func (l *ShareLedger) Dirty() []ShareEntry {
	entries := make([]ShareEntry, 0, len(l.dirty))
	for k := range l.dirty {
		entries = append(entries, ShareEntry{Key: k, Share: l.shares[k]})
	}
	sortEntries(entries)
	return entries
}

// ResetDirty clears the touched-key set after a successful commit.
func (l *ShareLedger) ResetDirty() {
	l.dirty = make(map[ShareKey]struct{})
}

// All returns every share entry in stable order.
func (l *ShareLedger) All() []ShareEntry {
	entries := make([]ShareEntry, 0, len(l.shares))
	for k, s := range l.shares {
		entries = append(entries, ShareEntry{Key: k, Share: s})
	}
	sortEntries(entries)
	return entries
}

// ForUser returns the user's entries (at most two) in stable order.
func (l *ShareLedger) ForUser(user string, options [2]MarketOption) []ShareEntry {
	entries := make([]ShareEntry, 0, 2)
	for _, opt := range options {
		key := ShareKey{User: user, Option: opt.Text}
		if s, ok := l.shares[key]; ok {
			entries = append(entries, ShareEntry{Key: key, Share: s})
		}
	}
	return entries
}

func sortEntries(entries []ShareEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Key.User != entries[j].Key.User {
			return entries[i].Key.User < entries[j].Key.User
		}
		return entries[i].Key.Option < entries[j].Key.Option
	})
}
