package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLegacy(t *testing.T) {
	tests := []struct {
		input    string
		expected Amount
	}{
		{"12.34", 1234},
		{"25", 25},
		{"0.5", 50},
		{"10.0", 1000},
		{" 7.5 ", 750},
		{"1500", 1500},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLegacy(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseLegacy_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "NaN", "Inf"} {
		_, err := ParseLegacy(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestParseMajor(t *testing.T) {
	a, err := ParseMajor("25")
	require.NoError(t, err)
	assert.Equal(t, Amount(2500), a)

	a, err = ParseMajor("12.349")
	require.NoError(t, err)
	assert.Equal(t, Amount(1235), a)

	_, err = ParseMajor("twelve")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFromMajorAndBack(t *testing.T) {
	assert.Equal(t, Amount(1999), FromMajor(19.99))
	assert.InDelta(t, 19.99, Amount(1999).Major(), 0.0001)
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "12.34", Amount(1234).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "-1.50", Amount(-150).String())
}
