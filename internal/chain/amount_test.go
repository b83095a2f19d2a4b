package chain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInvalidAmount = errors.New("invalid amount")

func TestParseDecimalAmount_ValidAmounts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"1.5 with 9 decimals", "1.5", 9, "1500000000"},
		{"1.5 with 18 decimals", "1.5", 18, "1500000000000000000"},
		{"100 no decimal", "100", 9, "100000000000"},
		{".5 no integer", ".5", 9, "500000000"},
		{"0 value", "0", 9, "0"},
		{"many decimals truncated", "1.1234567891234", 9, "1123456789"},
		{"fewer decimals padded", "1.1", 9, "1100000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDecimalAmount(tt.amount, tt.decimals, errInvalidAmount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDecimalAmount_InvalidAmounts(t *testing.T) {
	t.Parallel()
	invalidCases := []struct {
		name   string
		amount string
	}{
		{"empty string", ""},
		{"negative", "-1"},
		{"multiple decimals", "1.2.3"},
		{"letters", "abc"},
		{"letters in decimal", "1.abc"},
		{"spaces", " 1.5"},
	}

	for _, tt := range invalidCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDecimalAmount(tt.amount, NAVAXDecimals, errInvalidAmount)
			require.ErrorIs(t, err, errInvalidAmount)
		})
	}
}

func TestFormatDecimalAmount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		want     string
	}{
		{"1.5 AVAX", big.NewInt(1_500_000_000), 9, "1.5"},
		{"nil amount", nil, 9, "0"},
		{"zero", big.NewInt(0), 9, "0.0"},
		{"one nAVAX", big.NewInt(1), 9, "0.000000001"},
		{"ten AVAX", big.NewInt(10_000_000_000), 9, "10.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatDecimalAmount(tt.amount, tt.decimals))
		})
	}
}

func TestParseAVAX(t *testing.T) {
	t.Parallel()
	got, err := ParseAVAX(" 25.5 ", errInvalidAmount)
	require.NoError(t, err)
	assert.Equal(t, "25500000000", got.String())
	assert.Equal(t, "25.5", FormatAVAX(got))

	_, err = ParseAVAX("x", errInvalidAmount)
	require.ErrorIs(t, err, errInvalidAmount)
}

func TestWeiConversions(t *testing.T) {
	t.Parallel()
	oneAVAXWei, ok := new(big.Int).SetString("1000000000000000000", 10)
	require.True(t, ok)

	assert.Equal(t, "1000000000", WeiToNAVAX(oneAVAXWei).String())
	assert.Equal(t, oneAVAXWei.String(), NAVAXToWei(big.NewInt(1_000_000_000)).String())

	// Dust below one nAVAX is truncated.
	assert.Equal(t, "0", WeiToNAVAX(big.NewInt(999_999_999)).String())
	assert.Equal(t, "0", WeiToNAVAX(nil).String())
	assert.Equal(t, "0", NAVAXToWei(nil).String())
}
