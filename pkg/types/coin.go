// Package types holds the shared domain types passed between the settlement
// engine and its collaborators: coins, token-movement instructions, event
// attributes and the error taxonomy.
package types

import (
	"fmt"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
)

// Coin is an amount of a named token denomination.
type Coin struct {
	Denom  string            `json:"denom"`
	Amount fixedpoint.Amount `json:"amount"`
}

// NewCoin creates a Coin.
func NewCoin(denom string, amount fixedpoint.Amount) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// String renders the coin as "<amount><denom>".
func (c Coin) String() string {
	return fmt.Sprintf("%s%s", c.Amount.String(), c.Denom)
}

// Attribute is a structured key/value pair attached to an emitted event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attr creates an Attribute.
func Attr(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}
