package reward_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/sigil-earn/internal/reward"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

const year = 365 * 24 * time.Hour

func avax(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func TestCalc_KnownValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		amount   *big.Int
		duration time.Duration
		supply   *big.Int
		fee      decimal.Decimal
		want     string
	}{
		{"full year with 2% fee", avax(2000), year, avax(400_000_000), decimal.NewFromInt(2), "188160000000"},
		{"half year no fee", avax(2000), year / 2, avax(400_000_000), decimal.Zero, "88000000000"},
		{"longer than a year is capped", avax(2000), 2 * year, avax(400_000_000), decimal.NewFromInt(2), "188160000000"},
		{"100% fee", avax(2000), year, avax(400_000_000), decimal.NewFromInt(100), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := reward.Calc(tt.amount, tt.duration, tt.supply, tt.fee, false)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCalc_ZeroAmount(t *testing.T) {
	t.Parallel()
	got := reward.Calc(big.NewInt(0), year, avax(400_000_000), decimal.NewFromInt(2), false)
	assert.Equal(t, 0, got.Sign())
}

func TestCalc_SupplyAtCap(t *testing.T) {
	t.Parallel()
	supplyCap := reward.ConfigFor(false).SupplyCap.BigInt()

	for _, isTest := range []bool{false, true} {
		for _, d := range []time.Duration{time.Hour, year / 3, year} {
			for _, fee := range []int64{0, 2, 20} {
				got := reward.Calc(avax(1_000_000), d, supplyCap, decimal.NewFromInt(fee), isTest)
				assert.Equal(t, 0, got.Sign(), "duration %s fee %d test %v", d, fee, isTest)
			}
		}
	}

	over := new(big.Int).Add(supplyCap, big.NewInt(1))
	assert.Equal(t, 0, reward.Calc(avax(10), year, over, decimal.Zero, false).Sign())
}

func TestCalc_NonNegative(t *testing.T) {
	t.Parallel()
	amounts := []*big.Int{big.NewInt(1), avax(25), avax(1_000_000), nil}
	supplies := []*big.Int{avax(1), avax(400_000_000), avax(719_999_999), big.NewInt(0), nil}
	durations := []time.Duration{-time.Hour, 0, 14 * 24 * time.Hour, year}
	fees := []decimal.Decimal{decimal.NewFromInt(-5), decimal.Zero, decimal.NewFromFloat(2.5), decimal.NewFromInt(150)}

	for _, a := range amounts {
		for _, s := range supplies {
			for _, d := range durations {
				for _, f := range fees {
					got := reward.Calc(a, d, s, f, false)
					require.NotNil(t, got)
					assert.GreaterOrEqual(t, got.Sign(), 0)
				}
			}
		}
	}
}

func TestCalc_TinyStakeKeepsPrecision(t *testing.T) {
	t.Parallel()
	// 1 AVAX for a year against 400M supply still earns a non-zero reward.
	got := reward.Calc(avax(1), year, avax(400_000_000), decimal.Zero, false)
	assert.Equal(t, "96000000", got.String())
}

func TestCalc_TruncatesFractionalNAVAX(t *testing.T) {
	t.Parallel()
	// The exact reward is 45312.9526... nAVAX.
	got := reward.Calc(big.NewInt(2_000_006), 100*24*time.Hour, avax(400_000_000), decimal.NewFromInt(2), false)
	assert.Equal(t, "45312", got.String())
}

func TestValidateClaim_RejectsRoundedUpReward(t *testing.T) {
	t.Parallel()
	stake := reward.Stake{
		Amount:               big.NewInt(2_000_006),
		Duration:             100 * 24 * time.Hour,
		CurrentSupply:        avax(400_000_000),
		DelegationFeePercent: decimal.NewFromInt(2),
	}

	require.NoError(t, reward.ValidateClaim(big.NewInt(45_312), stake, false))
	require.ErrorIs(t, reward.ValidateClaim(big.NewInt(45_313), stake, false), earnerr.ErrInvalidRewardAmount)
}

func TestValidateClaim(t *testing.T) {
	t.Parallel()
	stake := reward.Stake{
		Amount:               avax(2000),
		Duration:             year,
		CurrentSupply:        avax(400_000_000),
		DelegationFeePercent: decimal.NewFromInt(2),
	}

	require.NoError(t, reward.ValidateClaim(big.NewInt(188_160_000_000), stake, false))
	require.NoError(t, reward.ValidateClaim(big.NewInt(1), stake, false))

	err := reward.ValidateClaim(big.NewInt(188_160_000_001), stake, false)
	require.ErrorIs(t, err, earnerr.ErrInvalidRewardAmount)

	var se *earnerr.EarnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "188160000000", se.Details["maximum"])

	require.ErrorIs(t, reward.ValidateClaim(big.NewInt(0), stake, false), earnerr.ErrInvalidRewardAmount)
	require.ErrorIs(t, reward.ValidateClaim(nil, stake, false), earnerr.ErrInvalidRewardAmount)
}
