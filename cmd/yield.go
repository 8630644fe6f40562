package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/brickfolio/brickfolio"
	"github.com/google/subcommands"
)

// createYieldPoolCmd opens a property's yield pool.
type createYieldPoolCmd struct {
	property string
}

func (*createYieldPoolCmd) Name() string     { return "create-yield-pool" }
func (*createYieldPoolCmd) Synopsis() string { return "open a property's yield pool" }
func (*createYieldPoolCmd) Usage() string {
	return `bfo create-yield-pool -property <id>

  Only the title holder can open the pool, and only once per property.
`
}

func (c *createYieldPoolCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to open a yield pool for.")
}

func (c *createYieldPoolCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewCreateYieldPool(actor(), c.property))
}

// depositCmd adds income to a property's yield pool.
type depositCmd struct {
	property string
	amount   string
	source   string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "deposit income into a property's yield pool" }
func (*depositCmd) Usage() string {
	return `bfo deposit -property <id> -amount <amount> [-source <label>]

  Deposits at or above the minimum distribution threshold distribute
  immediately; smaller ones accumulate until an explicit distribute.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property receiving the income.")
	f.StringVar(&c.amount, "amount", "", "Amount to deposit.")
	f.StringVar(&c.source, "source", "", "Label recorded on the deposit, e.g. \"2026-08 rent\".")
}

func (c *depositCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := parseMoney(c.amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewDepositYield(actor(), c.property, amount, c.source))
}

// distributeCmd distributes the pool's accumulated undistributed balance.
type distributeCmd struct {
	property string
}

func (*distributeCmd) Name() string     { return "distribute" }
func (*distributeCmd) Synopsis() string { return "distribute a pool's accumulated balance to holders" }
func (*distributeCmd) Usage() string {
	return `bfo distribute -property <id>

  Distributes everything deposited since the last distribution, provided it
  reaches the minimum distribution threshold.
`
}

func (c *distributeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property whose pool to distribute.")
}

func (c *distributeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewDistributeYield(actor(), c.property))
}

// claimCmd pays out the caller's pending yield.
type claimCmd struct {
	properties stringList
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func (*claimCmd) Name() string     { return "claim" }
func (*claimCmd) Synopsis() string { return "claim pending yield for one or more properties" }
func (*claimCmd) Usage() string {
	return `bfo claim -property <id> [-property <id> ...]

  With one property, claiming zero succeeds silently. With several, the
  claim fails only if there is nothing to claim anywhere.
`
}

func (c *claimCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.properties, "property", "Property to claim from. Repeatable.")
}

func (c *claimCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch len(c.properties) {
	case 0:
		fmt.Fprintln(os.Stderr, "Error: at least one -property is required.")
		return subcommands.ExitUsageError
	case 1:
		return EncodeOperation(brickfolio.NewClaimYield(actor(), c.properties[0]))
	default:
		return EncodeOperation(brickfolio.NewClaimMultiple(actor(), c.properties...))
	}
}

// pendingCmd reports the caller's pending yield without mutating anything.
type pendingCmd struct {
	property string
}

func (*pendingCmd) Name() string     { return "pending" }
func (*pendingCmd) Synopsis() string { return "show pending yield and distribution history" }
func (*pendingCmd) Usage() string {
	return `bfo pending -property <id>

  Shows the caller's claimable yield and the property's distribution
  history.
`
}

func (c *pendingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to report on.")
}

func (c *pendingCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := DecodeEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	pool, ok := e.YieldPoolState(c.property)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: property %q has no yield pool.\n", c.property)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Yield for %s\n\n", c.property)
	fmt.Fprintf(&b, "* pending for %s: %s\n", actor(), e.PendingYield(actor(), c.property))
	fmt.Fprintf(&b, "* total deposited: %s\n", pool.Total)
	fmt.Fprintf(&b, "* total distributed: %s\n", pool.Distributed)

	history := e.DistributionHistory(c.property)
	if len(history) > 0 {
		fmt.Fprintf(&b, "\n| Date | Net Amount | Shares | Source |\n")
		fmt.Fprintf(&b, "| --- | --- | --- | --- |\n")
		for _, d := range history {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", d.Time.Format("2006-01-02"), d.Amount, d.TotalShares, d.Source)
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
