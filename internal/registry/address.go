// Package registry instantiates markets: it derives their deterministic
// addresses, assigns settlement-token denominations, validates creation
// parameters and emits the token issuance instructions.
package registry

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// marketCodeSeed pins the code-hash input of the derivation so addresses
// change if the market program ever does.
const marketCodeSeed = "truthmarket/market/v1"

// DeriveAddress computes the deterministic address a market with the given
// id gets under this registry. Same registry and id always produce the same
// address, so replicas agree without coordination.
func DeriveAddress(registry common.Address, marketID string) common.Address {
	salt := crypto.Keccak256Hash([]byte(marketID))
	codeHash := crypto.Keccak256([]byte(marketCodeSeed))
	return crypto.CreateAddress2(registry, salt, codeHash)
}

// TokenDenom builds the settlement-token denomination for one option of a
// market: a lowercase prefix of the option text, the market id and the
// market address, unique per (market, option).
func TokenDenom(optionText, marketID string, marketAddr common.Address) string {
	prefix := strings.ToLower(strings.ReplaceAll(optionText, " ", ""))
	return fmt.Sprintf("truth%s_%s-%s", prefix, marketID, strings.ToLower(marketAddr.Hex()))
}
