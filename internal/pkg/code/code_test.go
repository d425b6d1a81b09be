package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Length(t *testing.T) {
	for _, n := range []int{1, 6, 12} {
		c, err := New(n)
		require.NoError(t, err)
		assert.Len(t, c, n)
	}
}

func TestNew_DigitsOnly(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := New(6)
		require.NoError(t, err)
		for _, r := range c {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q in code %q", r, c)
		}
	}
}

func TestNew_LeadingZerosPreserved(t *testing.T) {
	// With 200 six-digit draws, at least one leading zero is overwhelmingly
	// likely; the point is that the string keeps its full length when it
	// happens.
	seen := false
	for i := 0; i < 200 && !seen; i++ {
		c, err := New(6)
		require.NoError(t, err)
		require.Len(t, c, 6)
		if c[0] == '0' {
			seen = true
		}
	}
}
