// Package reward computes the staking reward a delegation earns.
// All math runs on arbitrary-precision decimals; amounts are nAVAX.
package reward

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// StakingConfig holds the protocol constants the reward formula depends on.
type StakingConfig struct {
	MintingPeriod      time.Duration
	SupplyCap          decimal.Decimal // nAVAX
	MinConsumptionRate decimal.Decimal
	MaxConsumptionRate decimal.Decimal
}

// Protocol constants. Consumption rates are published per 1,000,000.
//
//nolint:gochecknoglobals // Immutable protocol parameters
var (
	mainnetConfig = StakingConfig{
		MintingPeriod:      365 * 24 * time.Hour,
		SupplyCap:          decimal.New(720_000_000, 9),
		MinConsumptionRate: decimal.New(100_000, -6),
		MaxConsumptionRate: decimal.New(120_000, -6),
	}

	fujiConfig = StakingConfig{
		MintingPeriod:      365 * 24 * time.Hour,
		SupplyCap:          decimal.New(720_000_000, 9),
		MinConsumptionRate: decimal.New(100_000, -6),
		MaxConsumptionRate: decimal.New(120_000, -6),
	}

	hundred = decimal.NewFromInt(100)
)

// divPrecision is the number of decimal places kept by intermediate divisions.
const divPrecision = 36

// ConfigFor returns the staking constants for the network mode.
func ConfigFor(isTestMode bool) StakingConfig {
	if isTestMode {
		return fujiConfig
	}
	return mainnetConfig
}

// Calc returns the reward in nAVAX for staking amount for duration, given
// the current supply and the validator's delegation fee in percent.
// It returns zero when the supply cap has been reached.
func Calc(amount *big.Int, duration time.Duration, currentSupply *big.Int, delegationFeePercent decimal.Decimal, isTestMode bool) *big.Int {
	return ConfigFor(isTestMode).Calc(amount, duration, currentSupply, delegationFeePercent)
}

// Calc computes the reward under this configuration.
func (c StakingConfig) Calc(amount *big.Int, duration time.Duration, currentSupply *big.Int, delegationFeePercent decimal.Decimal) *big.Int {
	if amount == nil || currentSupply == nil || amount.Sign() <= 0 || currentSupply.Sign() <= 0 || duration <= 0 {
		return new(big.Int)
	}

	supply := decimal.NewFromBigInt(currentSupply, 0)
	if supply.GreaterThanOrEqual(c.SupplyCap) {
		return new(big.Int)
	}

	// Staking beyond a full minting period earns no extra rate.
	periodRatio := decimal.NewFromInt(int64(duration)).DivRound(decimal.NewFromInt(int64(c.MintingPeriod)), divPrecision)
	if periodRatio.GreaterThan(decimal.NewFromInt(1)) {
		periodRatio = decimal.NewFromInt(1)
	}

	// Linear interpolation between the min and max consumption rates.
	effectiveRate := c.MinConsumptionRate.Mul(decimal.NewFromInt(1).Sub(periodRatio)).
		Add(c.MaxConsumptionRate.Mul(periodRatio))

	// unminted * (amount / supply) * periodRatio * effectiveRate, dividing last
	unminted := c.SupplyCap.Sub(supply)
	fullReward := unminted.Mul(decimal.NewFromBigInt(amount, 0)).
		Mul(periodRatio).
		Mul(effectiveRate).
		DivRound(supply, divPrecision)

	fee := clampPercent(delegationFeePercent).Div(hundred)
	rewards := fullReward.Mul(decimal.NewFromInt(1).Sub(fee))

	if rewards.IsNegative() {
		return new(big.Int)
	}
	return rewards.Truncate(0).BigInt()
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}
