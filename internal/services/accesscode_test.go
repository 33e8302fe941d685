package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessCode(t *testing.T) {
	t.Run("shape", func(t *testing.T) {
		code, err := GenerateAccessCode()
		require.NoError(t, err)
		assert.Regexp(t, "^[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$", code)
	})

	t.Run("alphabet drops ambiguous characters", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			code, err := GenerateAccessCode()
			require.NoError(t, err)
			for _, forbidden := range "0O1I" {
				assert.NotContains(t, code, string(forbidden))
			}
		}
	})

	t.Run("draws do not repeat in practice", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 500; i++ {
			code, err := GenerateAccessCode()
			require.NoError(t, err)
			require.False(t, seen[code], "repeated code %s", code)
			seen[code] = true
		}
	})
}

func TestNormalizeAccessCode(t *testing.T) {
	assert.Equal(t, "ABCD-EFGH-JKLM", NormalizeAccessCode("  abcd-efgh-jklm\n"))
	assert.Equal(t, "ABCD-EFGH-JKLM", NormalizeAccessCode("ABCD-EFGH-JKLM"))
	assert.Equal(t, "", NormalizeAccessCode("   "))
}

func TestLooksLikeAccessCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ABCD-EFGH-JKLM", true},
		{"ZZZZ-2345-WXYZ", true},
		{"abcd-efgh-jklm", false}, // callers normalize first
		{"ABCD-EFGH-JKL", false},
		{"ABCDEFGHJKLM", false},
		{"ABCD_EFGH_JKLM", false},
		{"ABC0-EFGH-JKLM", false}, // 0 not in alphabet
		{"0b44b1e0-9f3a-4f1c-8a6b-2f17b8f4c111", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeAccessCode(tt.in), "input %q", tt.in)
	}
}

func TestAccessCodeConstants(t *testing.T) {
	// The generated length with separators is what the shape check expects.
	code, err := GenerateAccessCode()
	require.NoError(t, err)
	assert.True(t, looksLikeAccessCode(code))
	assert.Equal(t, 2, strings.Count(code, accessCodeSeparator))
}
