// Package token executes the token-movement instructions the settlement
// engine emits. The engine never touches balances directly: it describes
// issues, mints, burns and transfers, and an Executor applies them in
// emission order.
package token

import (
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Executor applies instructions in order. Implementations must apply all of
// a batch or none of it; a failure part way through means the surrounding
// commit is aborted.
type Executor interface {
	Execute(instructions []types.Instruction) error
}
