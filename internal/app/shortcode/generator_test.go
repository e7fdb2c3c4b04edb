package shortcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDefault(t *testing.T) {
	code := GenerateDefault()

	require.Len(t, code, DefaultLength)
	assert.True(t, IsAlphanumeric(code), "unexpected character in %q", code)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{"zero length", 0, 0},
		{"negative length", -3, 0},
		{"length 1", 1, 1},
		{"length 3", 3, 3},
		{"length 10", 10, 10},
		{"length 15", 15, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := Generate(tt.length)
			assert.Len(t, code, tt.want)
			assert.True(t, IsAlphanumeric(code), "unexpected character in %q", code)
		})
	}
}

func TestGenerate_ZeroIsEmpty(t *testing.T) {
	assert.Equal(t, "", Generate(0))
}

func TestGenerate_Spread(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		seen[GenerateDefault()] = struct{}{}
	}
	// 62^6 codes: a handful of duplicates in 100 draws would already be astronomically unlikely.
	assert.Greater(t, len(seen), 95)
}

func TestGenerate_CoversAlphabet(t *testing.T) {
	seen := make(map[rune]bool)
	for _, c := range Generate(20000) {
		seen[c] = true
	}
	assert.Len(t, seen, len(alphabet))
}

func TestIsAlphanumeric(t *testing.T) {
	assert.True(t, IsAlphanumeric("abcXYZ019"))
	assert.True(t, IsAlphanumeric(""))
	assert.False(t, IsAlphanumeric("ab-c"))
	assert.False(t, IsAlphanumeric("héllo"))
	assert.False(t, IsAlphanumeric("a b"))
}
