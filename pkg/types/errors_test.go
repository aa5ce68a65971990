package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{name: "authorization", err: ErrUnauthorized("only admin may resolve"), expected: ErrClassAuthorization},
		{name: "validation", err: ErrValidation("invalid option %q", "Maybe"), expected: ErrClassValidation},
		{name: "state-conflict", err: ErrStateConflict("market already resolved"), expected: ErrClassStateConflict},
		{name: "not-found", err: ErrNotFound("no shares for user"), expected: ErrClassNotFound},
		{name: "upstream", err: ErrUpstream("no price for asset"), expected: ErrClassUpstream},
		{name: "wrapped", err: fmt.Errorf("apply buy: %w", ErrValidation("zero amount")), expected: ErrClassValidation},
		{name: "unclassified", err: fmt.Errorf("boom"), expected: ErrorClass("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassOf(tt.err))
		})
	}
}

func TestMarketError_Message(t *testing.T) {
	err := ErrValidation("invalid option %q", "Maybe")
	assert.Equal(t, `validation: invalid option "Maybe"`, err.Error())
}
