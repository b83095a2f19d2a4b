package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mrz1836/sigil-earn/internal/chain"
	"github.com/mrz1836/sigil-earn/internal/reward"
	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// stakeFlags describe the stake a reward was earned on.
type stakeFlags struct {
	amount        string
	duration      string
	supply        string
	delegationFee string
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var claimStake stakeFlags

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var claimCmd = &cobra.Command{
	Use:   "claim <amount>",
	Short: "Move a staking reward from the P-Chain to the C-Chain",
	Long: `Export a staking reward from the P-Chain and import it on the C-Chain.

The requested amount is checked against the maximum reward the described
stake could have earned before anything is sent.`,
	Example: `  sigil-earn claim 1.5 --stake 2000 --duration 14d --supply 450000000
  sigil-earn claim 0.2 --stake 25 --duration 336h --supply 450000000 --delegation-fee 2`,
	GroupID: groupEarn,
	Args:    cobra.ExactArgs(1),
	RunE:    runClaim,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	addStakeFlags(claimCmd, &claimStake)
	claimCmd.Flags().BoolVar(&skipRecovery, "skip-recovery", false, "do not sweep pending funds before claiming")
	rootCmd.AddCommand(claimCmd)
}

func addStakeFlags(cmd *cobra.Command, s *stakeFlags) {
	cmd.Flags().StringVar(&s.amount, "stake", "", "staked amount in AVAX")
	cmd.Flags().StringVar(&s.duration, "duration", "", "staking duration, e.g. 14d or 336h")
	cmd.Flags().StringVar(&s.supply, "supply", "", "current AVAX supply")
	cmd.Flags().StringVar(&s.delegationFee, "delegation-fee", "0", "delegation fee percent taken by the validator")
	_ = cmd.MarkFlagRequired("stake")
	_ = cmd.MarkFlagRequired("duration")
	_ = cmd.MarkFlagRequired("supply")
}

func runClaim(cmd *cobra.Command, args []string) error {
	amount, err := chain.ParseAVAX(args[0], earnerr.ErrInvalidRewardAmount)
	if err != nil {
		return err
	}
	stake, err := claimStake.parse()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	progress := cmd.ErrOrStderr()
	if !skipRecovery {
		if err := recoverPending(ctx, rt, progress); err != nil {
			return err
		}
	}

	res, err := rt.service.ClaimReward(ctx, rt.account, amount, stake, flowOptions(progress)...)
	if err != nil {
		return err
	}
	return formatter.Print(newTransferOutput(rt, res, amount))
}

// parse converts the flag values into a reward.Stake.
func (s stakeFlags) parse() (reward.Stake, error) {
	amount, err := chain.ParseAVAX(s.amount, earnerr.ErrInvalidAmount)
	if err != nil {
		return reward.Stake{}, earnerr.WithDetails(err, map[string]string{"stake": s.amount})
	}
	supply, err := chain.ParseAVAX(s.supply, earnerr.ErrInvalidAmount)
	if err != nil {
		return reward.Stake{}, earnerr.WithDetails(err, map[string]string{"supply": s.supply})
	}
	duration, err := parseStakeDuration(s.duration)
	if err != nil {
		return reward.Stake{}, err
	}
	fee, err := decimal.NewFromString(strings.TrimSpace(s.delegationFee))
	if err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return reward.Stake{}, earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{
			"delegation_fee": s.delegationFee,
			"reason":         "must be a percentage between 0 and 100",
		})
	}
	return reward.Stake{
		Amount:               amount,
		Duration:             duration,
		CurrentSupply:        supply,
		DelegationFeePercent: fee,
	}, nil
}

// parseStakeDuration accepts Go durations plus a whole-day "d" suffix.
func parseStakeDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	invalid := earnerr.WithDetails(earnerr.ErrInvalidInput, map[string]string{
		"duration": s,
		"reason":   "use a positive duration such as 14d or 336h",
	})

	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil || n > int64(time.Duration(1<<63-1)/(24*time.Hour)) {
			return 0, invalid
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, invalid
		}
	}
	if d <= 0 {
		return 0, invalid
	}
	return d, nil
}
