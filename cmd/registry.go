package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brickfolio/brickfolio"
	"github.com/google/subcommands"
)

// mintCmd registers a new property and credits its share supply to the creator.
type mintCmd struct {
	id       string
	name     string
	address  string
	category string
	value    string
	shares   string
	price    string
	royalty  int64
}

func (*mintCmd) Name() string     { return "mint" }
func (*mintCmd) Synopsis() string { return "register a new property and mint its share supply" }
func (*mintCmd) Usage() string {
	return `bfo mint -id <id> -name <name> -value <amount> -shares <supply> [-price <amount>] [-royalty <bps>]

  Registers a property with the caller as creator and title holder, and
  opens it for primary sale at the given price per share. Shares are
  issued as they are bought.
`
}

func (c *mintCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Unique property identifier.")
	f.StringVar(&c.name, "name", "", "Display name of the property.")
	f.StringVar(&c.address, "addr", "", "Postal address.")
	f.StringVar(&c.category, "category", "residential", "Category (residential, commercial, ...).")
	f.StringVar(&c.value, "value", "", "Total appraised value.")
	f.StringVar(&c.shares, "shares", "", "Total share supply.")
	f.StringVar(&c.price, "price", "", "Price per share for primary sale. Defaults to value/shares.")
	f.Int64Var(&c.royalty, "royalty", 0, "Creator royalty on primary sales, in basis points.")
}

func (c *mintCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	value, err := parseMoney(c.value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	supply, err := parseShares(c.shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	price := value
	if c.price != "" {
		if price, err = parseMoney(c.price); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	} else if supply.IsPositive() {
		price = value.Div(supply)
	}

	op := brickfolio.NewMintProperty(actor(), c.name, c.address, c.category, value, supply, price, brickfolio.BasisPoints(c.royalty))
	op.ID = c.id
	return EncodeOperation(op)
}

// buyCmd purchases shares from the issuer at the property's fixed price.
type buyCmd struct {
	property string
	shares   string
	attach   string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy shares from the issuer at the primary-sale price" }
func (*buyCmd) Usage() string {
	return `bfo buy -property <id> -shares <quantity> -attach <amount>

  Buys shares at the property's price per share. Attach at least the cost;
  the excess is refunded.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to buy into.")
	f.StringVar(&c.shares, "shares", "", "Quantity of shares to buy.")
	f.StringVar(&c.attach, "attach", "", "Value attached to the purchase.")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	shares, err := parseShares(c.shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	attached, err := parseMoney(c.attach)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewPurchaseShares(actor(), c.property, shares, attached))
}

// transferCmd moves free shares between holders.
type transferCmd struct {
	property string
	to       string
	shares   string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "transfer free shares to another holder" }
func (*transferCmd) Usage() string {
	return `bfo transfer -property <id> -to <identity> -shares <quantity>

  Transfers free (unstaked) shares directly to another holder.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property whose shares to transfer.")
	f.StringVar(&c.to, "to", "", "Recipient identity.")
	f.StringVar(&c.shares, "shares", "", "Quantity of shares to transfer.")
}

func (c *transferCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	shares, err := parseShares(c.shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewTransferShares(actor(), c.property, brickfolio.Identity(c.to), shares))
}

// setListedCmd opens or closes primary sales for a property.
type setListedCmd struct {
	property string
	listed   bool
}

func (*setListedCmd) Name() string     { return "set-listed" }
func (*setListedCmd) Synopsis() string { return "open or close primary sales for a property" }
func (*setListedCmd) Usage() string {
	return `bfo set-listed -property <id> [-listed=<bool>]

  Only the title holder can change the primary-sale status.
`
}

func (c *setListedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to update.")
	f.BoolVar(&c.listed, "listed", true, "Whether shares can be bought from the issuer.")
}

func (c *setListedCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewSetListed(actor(), c.property, c.listed))
}

// updateCmd changes a property's appraised value and royalty.
type updateCmd struct {
	property string
	value    string
	royalty  int64
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "update a property's appraised value and royalty" }
func (*updateCmd) Usage() string {
	return `bfo update -property <id> -value <amount> [-royalty <bps>]

  Only the property's creator can update it.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to update.")
	f.StringVar(&c.value, "value", "", "New total appraised value.")
	f.Int64Var(&c.royalty, "royalty", 0, "New creator royalty, in basis points.")
}

func (c *updateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	value, err := parseMoney(c.value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewUpdateProperty(actor(), c.property, value, brickfolio.BasisPoints(c.royalty)))
}
