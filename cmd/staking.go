package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brickfolio/brickfolio"
	"github.com/google/subcommands"
)

// createStakingPoolCmd opens and funds a property's staking pool.
type createStakingPoolCmd struct {
	property string
	rate     string
	duration time.Duration
	attach   string
}

func (*createStakingPoolCmd) Name() string     { return "create-staking-pool" }
func (*createStakingPoolCmd) Synopsis() string { return "open and fund a property's staking pool" }
func (*createStakingPoolCmd) Usage() string {
	return `bfo create-staking-pool -property <id> -rate <amount> -for <duration> -attach <amount>

  Admin only. -rate is the emission per second; -attach must cover the
  whole emission budget (rate x duration).
`
}

func (c *createStakingPoolCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to open a staking pool for.")
	f.StringVar(&c.rate, "rate", "", "Reward emission per second.")
	f.DurationVar(&c.duration, "for", 30*24*time.Hour, "Emission period.")
	f.StringVar(&c.attach, "attach", "", "Value attached to fund the emission.")
}

func (c *createStakingPoolCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rate, err := parseMoney(c.rate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	attached, err := parseMoney(c.attach)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewCreateStakingPool(actor(), c.property, rate, c.duration, attached))
}

// stakeCmd locks shares into a property's staking pool.
type stakeCmd struct {
	property string
	shares   string
	tier     int
}

func (*stakeCmd) Name() string     { return "stake" }
func (*stakeCmd) Synopsis() string { return "lock shares into a staking pool" }
func (*stakeCmd) Usage() string {
	return `bfo stake -property <id> -shares <quantity> [-tier <index>]

  Locks free shares under the chosen tier. Adding to an existing stake may
  re-tier it and restarts the lock. See "bfo tiers".
`
}

func (c *stakeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property whose shares to stake.")
	f.StringVar(&c.shares, "shares", "", "Quantity of shares to stake.")
	f.IntVar(&c.tier, "tier", 0, "Tier index, see \"bfo tiers\".")
}

func (c *stakeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	shares, err := parseShares(c.shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewStake(actor(), c.property, shares, c.tier))
}

// unstakeCmd withdraws staked shares, possibly paying the early penalty.
type unstakeCmd struct {
	property string
	shares   string
}

func (*unstakeCmd) Name() string     { return "unstake" }
func (*unstakeCmd) Synopsis() string { return "withdraw staked shares" }
func (*unstakeCmd) Usage() string {
	return `bfo unstake -property <id> -shares <quantity>

  Withdrawing before the lock expires costs the early-withdrawal penalty,
  taken in shares.
`
}

func (c *unstakeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property whose shares to unstake.")
	f.StringVar(&c.shares, "shares", "", "Quantity of shares to withdraw.")
}

func (c *unstakeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	shares, err := parseShares(c.shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewWithdrawStake(actor(), c.property, shares))
}

// rewardCmd pays out the caller's accrued staking rewards.
type rewardCmd struct {
	property string
}

func (*rewardCmd) Name() string     { return "reward" }
func (*rewardCmd) Synopsis() string { return "pay out accrued staking rewards" }
func (*rewardCmd) Usage() string {
	return `bfo reward -property <id>

  Pays everything accrued so far; the tier multiplier applies at payout.
`
}

func (c *rewardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property whose rewards to collect.")
}

func (c *rewardCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewGetReward(actor(), c.property))
}

// exitCmd unstakes everything and pays rewards in one operation.
type exitCmd struct {
	property string
}

func (*exitCmd) Name() string     { return "exit" }
func (*exitCmd) Synopsis() string { return "unstake everything and collect rewards" }
func (*exitCmd) Usage() string {
	return `bfo exit -property <id>

  Equivalent to unstaking the full stake then collecting rewards. The
  early-withdrawal penalty still applies inside the lock period.
`
}

func (c *exitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to exit from.")
}

func (c *exitCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewExit(actor(), c.property))
}

// tiersCmd lists the staking tier ladder.
type tiersCmd struct{}

func (*tiersCmd) Name() string     { return "tiers" }
func (*tiersCmd) Synopsis() string { return "list the staking tiers" }
func (*tiersCmd) Usage() string {
	return `bfo tiers

  Lists the staking tier ladder: minimum stake, lock duration and reward
  multiplier.
`
}

func (c *tiersCmd) SetFlags(f *flag.FlagSet) {}

func (c *tiersCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := DecodeEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Staking Tiers\n\n")
	fmt.Fprintf(&b, "| # | Label | Min Stake | Lock | Multiplier |\n")
	fmt.Fprintf(&b, "| --- | --- | --- | --- | --- |\n")
	for i, t := range e.Tiers() {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", i, t.Label, t.MinStake, t.Lock, t.MultiplierBps)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
