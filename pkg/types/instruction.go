package types

// InstructionKind identifies a token-subsystem operation requested by the
// engine. The engine only emits these; execution is the token subsystem's
// job and happens atomically with the state commit or not at all.
type InstructionKind string

const (
	// InstructionIssue creates a new mintable/burnable token denomination.
	InstructionIssue InstructionKind = "issue"
	// InstructionMint mints Coin to Recipient.
	InstructionMint InstructionKind = "mint"
	// InstructionBurn burns Coin from the market's own balance.
	InstructionBurn InstructionKind = "burn"
	// InstructionTransfer moves Coin from Sender to Recipient.
	InstructionTransfer InstructionKind = "transfer"
)

// Instruction is one outbound token-movement request. Instructions carry
// their emission order; the token subsystem must apply them in sequence.
type Instruction struct {
	Kind      InstructionKind `json:"kind"`
	Coin      Coin            `json:"coin"`
	Sender    string          `json:"sender,omitempty"`
	Recipient string          `json:"recipient,omitempty"`

	// Issue-only metadata.
	Symbol      string `json:"symbol,omitempty"`
	Precision   uint32 `json:"precision,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewIssue creates a token-issuance instruction for a new denomination.
func NewIssue(issuer, denom, symbol string, precision uint32, description string) Instruction {
	return Instruction{
		Kind:        InstructionIssue,
		Coin:        Coin{Denom: denom},
		Sender:      issuer,
		Symbol:      symbol,
		Precision:   precision,
		Description: description,
	}
}

// NewMint creates a mint instruction crediting recipient.
func NewMint(coin Coin, recipient string) Instruction {
	return Instruction{Kind: InstructionMint, Coin: coin, Recipient: recipient}
}

// NewBurn creates a burn instruction against sender's balance.
func NewBurn(coin Coin, sender string) Instruction {
	return Instruction{Kind: InstructionBurn, Coin: coin, Sender: sender}
}

// NewTransfer creates a transfer instruction from sender to recipient.
func NewTransfer(coin Coin, sender, recipient string) Instruction {
	return Instruction{Kind: InstructionTransfer, Coin: coin, Sender: sender, Recipient: recipient}
}
