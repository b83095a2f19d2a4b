package reward

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// Stake describes a delegation whose reward is being claimed.
type Stake struct {
	Amount               *big.Int
	Duration             time.Duration
	CurrentSupply        *big.Int
	DelegationFeePercent decimal.Decimal
}

// MaxReward returns the theoretical maximum reward for the stake.
func (s Stake) MaxReward(isTestMode bool) *big.Int {
	return Calc(s.Amount, s.Duration, s.CurrentSupply, s.DelegationFeePercent, isTestMode)
}

// ValidateClaim checks a requested reward withdrawal against the maximum the
// stake could have earned. It never touches the network.
func ValidateClaim(requested *big.Int, stake Stake, isTestMode bool) error {
	maxReward := stake.MaxReward(isTestMode)

	if requested == nil || requested.Sign() <= 0 || requested.Cmp(maxReward) > 0 {
		req := "0"
		if requested != nil {
			req = requested.String()
		}
		return earnerr.WithDetails(earnerr.ErrInvalidRewardAmount, map[string]string{
			"requested": req,
			"maximum":   maxReward.String(),
		})
	}
	return nil
}
