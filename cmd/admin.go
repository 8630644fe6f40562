package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brickfolio/brickfolio"
	"github.com/google/subcommands"
)

// adminCmd groups the administrative operations behind one command; exactly
// one action flag must be set per invocation.
type adminCmd struct {
	fee             int64
	minDistribution string
	penalty         int64
	transferTo      string
	withdraw        string

	tierLabel      string
	tierMinStake   string
	tierLock       time.Duration
	tierMultiplier int64

	property   string
	pool       string
	poolActive bool
}

func (*adminCmd) Name() string     { return "admin" }
func (*adminCmd) Synopsis() string { return "administrative operations (fees, tiers, pools)" }
func (*adminCmd) Usage() string {
	return `bfo admin [-fee <bps> | -min-distribution <amount> | -penalty <bps> |
          -add-tier <label> ... | -transfer-to <identity> |
          -withdraw <amount> | -pool yield|staking -property <id> [-active=<bool>]]

  All actions require the admin identity. Exactly one action per call.

Usage Examples:
# Set the platform fee to 2.5%.
$ bfo -actor admin admin -fee 250

# Append a staking tier.
$ bfo -actor admin admin -add-tier platinum -tier-min-stake 500 -tier-lock 8760h -tier-multiplier 20000

# Pause a property's staking pool.
$ bfo -actor admin admin -pool staking -property maple-12 -active=false
`
}

func (c *adminCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.fee, "fee", -1, "Set the platform fee, in basis points.")
	f.StringVar(&c.minDistribution, "min-distribution", "", "Set the minimum distribution threshold.")
	f.Int64Var(&c.penalty, "penalty", -1, "Set the early-withdrawal penalty, in basis points.")
	f.StringVar(&c.transferTo, "transfer-to", "", "Transfer the admin role to another identity.")
	f.StringVar(&c.withdraw, "withdraw", "", "Emergency-withdraw engine-held value to the admin.")

	f.StringVar(&c.tierLabel, "add-tier", "", "Append a staking tier with this label.")
	f.StringVar(&c.tierMinStake, "tier-min-stake", "1", "Minimum stake of the new tier.")
	f.DurationVar(&c.tierLock, "tier-lock", 0, "Lock duration of the new tier.")
	f.Int64Var(&c.tierMultiplier, "tier-multiplier", 10000, "Reward multiplier of the new tier, in basis points.")

	f.StringVar(&c.pool, "pool", "", "Pause or resume a pool: \"yield\" or \"staking\". Needs -property.")
	f.StringVar(&c.property, "property", "", "Property whose pool to pause or resume.")
	f.BoolVar(&c.poolActive, "active", true, "Whether the pool accepts operations.")
}

func (c *adminCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch {
	case c.fee >= 0:
		return EncodeOperation(brickfolio.NewSetPlatformFee(actor(), brickfolio.BasisPoints(c.fee)))

	case c.minDistribution != "":
		amount, err := parseMoney(c.minDistribution)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		return EncodeOperation(brickfolio.NewSetMinDistribution(actor(), amount))

	case c.penalty >= 0:
		return EncodeOperation(brickfolio.NewSetPenalty(actor(), brickfolio.BasisPoints(c.penalty)))

	case c.transferTo != "":
		return EncodeOperation(brickfolio.NewTransferAdmin(actor(), brickfolio.Identity(c.transferTo)))

	case c.withdraw != "":
		amount, err := parseMoney(c.withdraw)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		return EncodeOperation(brickfolio.NewEmergencyWithdraw(actor(), amount))

	case c.tierLabel != "":
		minStake, err := parseShares(c.tierMinStake)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		tier := brickfolio.StakingTier{
			MinStake:      minStake,
			Lock:          c.tierLock,
			MultiplierBps: brickfolio.BasisPoints(c.tierMultiplier),
			Label:         c.tierLabel,
		}
		return EncodeOperation(brickfolio.NewAddStakingTier(actor(), tier))

	case c.pool != "":
		return EncodeOperation(brickfolio.NewSetPoolActive(actor(), c.property, c.pool, c.poolActive))

	default:
		fmt.Fprintln(os.Stderr, "Error: no administrative action given.")
		return subcommands.ExitUsageError
	}
}
