package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("correct horse battery staple", WithCost(MinCost))
	require.NoError(t, err)

	assert.NoError(t, Compare(hash, "correct horse battery staple"))
	assert.Error(t, Compare(hash, "wrong"))
	assert.ErrorIs(t, Compare("", "x"), ErrEmpty)
}

func TestHashRejectsInput(t *testing.T) {
	_, err := Hash("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Hash(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestValidateStrength(t *testing.T) {
	assert.Error(t, ValidateStrength("password"))
	assert.NoError(t, ValidateStrength("Tr0ub4dor&3-horse-staple"))
	assert.ErrorIs(t, ValidateStrength(strings.Repeat("aB3$", 30)), ErrTooLong)
}

func TestNewHasher(t *testing.T) {
	hash, err := NewHasher(WithCost(MinCost))("Tr0ub4dor&3-horse-staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))
}
