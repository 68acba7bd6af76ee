package humanize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreditsFor(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{0, 1},
		{10, 1},
		{50, 1},
		{199, 1},
		{200, 2},
		{250, 2},
		{1000, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CreditsFor(text(tt.length)), "len=%d", tt.length)
	}
}

func TestDecrementNeverNegative(t *testing.T) {
	assert.Equal(t, 0, Decrement(1, 2))
	assert.Equal(t, 0, Decrement(0, 1))
	assert.Equal(t, 0, Decrement(2, 2))
	assert.Equal(t, 3, Decrement(5, 2))
	for balance := 0; balance < 20; balance++ {
		for amount := 0; amount < 20; amount++ {
			assert.GreaterOrEqual(t, Decrement(balance, amount), 0)
		}
	}
}
