package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "mintledger/pkg/domain-errors"
)

// TestParsePrincipal_Invariants validates the parsing invariant:
// "principals must be valid, non-empty, non-nil UUIDs".
func TestParsePrincipal_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePrincipal("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPrincipal))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePrincipal("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPrincipal))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePrincipal(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPrincipal))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		p, err := ParsePrincipal(valid.String())
		require.NoError(t, err)
		assert.Equal(t, Principal(valid), p)
		assert.False(t, p.IsNil())
	})
}

func TestParseTokenID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseTokenID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-decimal input", func(t *testing.T) {
		for _, in := range []string{"0x1f", "-5", "12ab", " 7"} {
			_, err := ParseTokenID(in)
			require.Error(t, err, "input %q", in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	t.Run("canonicalizes leading zeros", func(t *testing.T) {
		id, err := ParseTokenID("007")
		require.NoError(t, err)
		assert.Equal(t, TokenID("7"), id)
	})

	t.Run("accepts large identifiers", func(t *testing.T) {
		in := "10000000000000000000000000000000" // 10**31, beyond uint64
		id, err := ParseTokenID(in)
		require.NoError(t, err)
		assert.Equal(t, TokenID(in), id)
	})
}
