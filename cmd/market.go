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

// listCmd puts a block of shares, or the whole title, up for sale.
type listCmd struct {
	property string
	shares   string
	full     bool
	price    string
	duration time.Duration
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list shares or the whole title for sale" }
func (*listCmd) Usage() string {
	return `bfo list -property <id> (-shares <quantity> | -full) -price <amount> -for <duration>

  Creates a fixed-price listing. A listing is either a share block or a
  full-title sale, never both.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.property, "property", "", "Property to list.")
	f.StringVar(&c.shares, "shares", "", "Share block to sell. Exclusive with -full.")
	f.BoolVar(&c.full, "full", false, "Sell the whole property title.")
	f.StringVar(&c.price, "price", "", "Asking price for the whole listing.")
	f.DurationVar(&c.duration, "for", 7*24*time.Hour, "How long the listing stays purchasable.")
}

func (c *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	price, err := parseMoney(c.price)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if c.full {
		return EncodeOperation(brickfolio.NewFullListing(actor(), c.property, price, c.duration))
	}
	shares, err := parseShares(c.shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewShareListing(actor(), c.property, shares, price, c.duration))
}

// purchaseCmd buys a listing at its asking price.
type purchaseCmd struct {
	listing string
	attach  string
}

func (*purchaseCmd) Name() string     { return "purchase" }
func (*purchaseCmd) Synopsis() string { return "buy a listing at its asking price" }
func (*purchaseCmd) Usage() string {
	return `bfo purchase -listing <id> -attach <amount>

  Settles the listing immediately. Attach at least the asking price; the
  excess is refunded.
`
}

func (c *purchaseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.listing, "listing", "", "Listing to buy.")
	f.StringVar(&c.attach, "attach", "", "Value attached to the purchase.")
}

func (c *purchaseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	attached, err := parseMoney(c.attach)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return EncodeOperation(brickfolio.NewPurchaseListing(actor(), c.listing, attached))
}

// cancelCmd withdraws one of the caller's active listings.
type cancelCmd struct {
	listing string
}

func (*cancelCmd) Name() string     { return "cancel" }
func (*cancelCmd) Synopsis() string { return "cancel an active listing" }
func (*cancelCmd) Usage() string {
	return `bfo cancel -listing <id>

  Only the seller can cancel a listing.
`
}

func (c *cancelCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.listing, "listing", "", "Listing to cancel.")
}

func (c *cancelCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewCancelListing(actor(), c.listing))
}

// offerCmd places an escrowed bid on a listing.
type offerCmd struct {
	listing  string
	shares   string
	value    string
	duration time.Duration
}

func (*offerCmd) Name() string     { return "offer" }
func (*offerCmd) Synopsis() string { return "place an escrowed offer on a listing" }
func (*offerCmd) Usage() string {
	return `bfo offer -listing <id> -value <amount> [-shares <quantity>] [-for <duration>]

  The offered value is escrowed until the offer is accepted or withdrawn.
  Share listings require -shares, up to the listed block; full-title
  listings ignore it.
`
}

func (c *offerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.listing, "listing", "", "Listing to bid on.")
	f.StringVar(&c.shares, "shares", "", "Share quantity to bid on. Required for share listings.")
	f.StringVar(&c.value, "value", "", "Offered value, escrowed on submission.")
	f.DurationVar(&c.duration, "for", 3*24*time.Hour, "How long the offer stays acceptable.")
}

func (c *offerCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	value, err := parseMoney(c.value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	var shares brickfolio.Shares
	if c.shares != "" {
		if shares, err = parseShares(c.shares); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	return EncodeOperation(brickfolio.NewMakeOffer(actor(), c.listing, shares, value, c.duration))
}

// acceptCmd settles a listing at an offer's terms.
type acceptCmd struct {
	offer string
}

func (*acceptCmd) Name() string     { return "accept" }
func (*acceptCmd) Synopsis() string { return "accept an offer on one of your listings" }
func (*acceptCmd) Usage() string {
	return `bfo accept -offer <id>

  Settles the listing at the offer's value. Other offers on the listing
  stay escrowed until their buyers withdraw them.
`
}

func (c *acceptCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.offer, "offer", "", "Offer to accept.")
}

func (c *acceptCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewAcceptOffer(actor(), c.offer))
}

// withdrawOfferCmd takes back an unaccepted offer and its escrow.
type withdrawOfferCmd struct {
	offer string
}

func (*withdrawOfferCmd) Name() string     { return "withdraw-offer" }
func (*withdrawOfferCmd) Synopsis() string { return "withdraw an offer and recover its escrow" }
func (*withdrawOfferCmd) Usage() string {
	return `bfo withdraw-offer -offer <id>

  Works at any time while the offer is unaccepted, even after the listing
  expired or was fulfilled by someone else.
`
}

func (c *withdrawOfferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.offer, "offer", "", "Offer to withdraw.")
}

func (c *withdrawOfferCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return EncodeOperation(brickfolio.NewWithdrawOffer(actor(), c.offer))
}
