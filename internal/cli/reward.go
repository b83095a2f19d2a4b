package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/sigil-earn/internal/chain"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var rewardStake stakeFlags

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Estimate the maximum reward of a stake",
	Long: `Compute the maximum reward a stake can earn from the protocol's minting
schedule. Nothing is sent and no node is contacted.`,
	Example: `  sigil-earn reward --stake 2000 --duration 14d --supply 450000000
  sigil-earn reward --stake 25 --duration 365d --supply 450000000 --delegation-fee 2`,
	GroupID: groupEarn,
	Args:    cobra.NoArgs,
	RunE:    runReward,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	addStakeFlags(rewardCmd, &rewardStake)
	rootCmd.AddCommand(rewardCmd)
}

// RewardOutput is the printed reward estimate.
type RewardOutput struct {
	Network       string `json:"network"`
	Stake         string `json:"stake"`
	Duration      string `json:"duration"`
	Supply        string `json:"supply"`
	DelegationFee string `json:"delegation_fee_percent"`
	MaxReward     string `json:"max_reward"`
	MaxRewardNano string `json:"max_reward_navax"`
}

// String renders the text form.
func (o RewardOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Network:         %s\n", o.Network)
	fmt.Fprintf(&sb, "Stake:           %s AVAX for %s\n", o.Stake, o.Duration)
	fmt.Fprintf(&sb, "Current supply:  %s AVAX\n", o.Supply)
	fmt.Fprintf(&sb, "Delegation fee:  %s%%\n", o.DelegationFee)
	fmt.Fprintf(&sb, "Maximum reward:  %s AVAX", o.MaxReward)
	return sb.String()
}

func runReward(_ *cobra.Command, _ []string) error {
	network, err := cfg.ChainNetwork()
	if err != nil {
		return err
	}
	stake, err := rewardStake.parse()
	if err != nil {
		return err
	}

	maxReward := stake.MaxReward(network.IsTest())
	return formatter.Print(RewardOutput{
		Network:       network.String(),
		Stake:         chain.FormatAVAX(stake.Amount),
		Duration:      stake.Duration.String(),
		Supply:        chain.FormatAVAX(stake.CurrentSupply),
		DelegationFee: stake.DelegationFeePercent.String(),
		MaxReward:     chain.FormatAVAX(maxReward),
		MaxRewardNano: maxReward.String(),
	})
}
