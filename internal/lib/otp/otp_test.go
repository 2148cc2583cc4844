package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code must be numeric: %s", code)
		}
		seen[code] = true
	}
	// При 50 генерациях шестизначных кодов коллизии всех значений невозможны
	assert.Greater(t, len(seen), 1)
}
