// Package cmd implements the CLI application to manage a property ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/brickfolio/brickfolio"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&mintCmd{}, "registry")
	c.Register(&buyCmd{}, "registry")
	c.Register(&transferCmd{}, "registry")
	c.Register(&setListedCmd{}, "registry")
	c.Register(&updateCmd{}, "registry")

	c.Register(&listCmd{}, "marketplace")
	c.Register(&purchaseCmd{}, "marketplace")
	c.Register(&cancelCmd{}, "marketplace")
	c.Register(&offerCmd{}, "marketplace")
	c.Register(&acceptCmd{}, "marketplace")
	c.Register(&withdrawOfferCmd{}, "marketplace")

	c.Register(&createYieldPoolCmd{}, "yield")
	c.Register(&depositCmd{}, "yield")
	c.Register(&distributeCmd{}, "yield")
	c.Register(&claimCmd{}, "yield")
	c.Register(&pendingCmd{}, "yield")
	c.Register(&importRentCmd{}, "yield")

	c.Register(&createStakingPoolCmd{}, "staking")
	c.Register(&stakeCmd{}, "staking")
	c.Register(&unstakeCmd{}, "staking")
	c.Register(&rewardCmd{}, "staking")
	c.Register(&exitCmd{}, "staking")
	c.Register(&tiersCmd{}, "staking")

	c.Register(&adminCmd{}, "administration")

	c.Register(&fmtCmd{}, "journal")
	c.Register(&eventsCmd{}, "journal")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

const actorEnv = "BFO_ACTOR"

var journalFile = flag.String("journal-file", "journal.jsonl", "Path to the journal file containing operations (JSONL format)")
var adminFlag = flag.String("admin", "admin", "Admin identity used when replaying the journal")
var currencyFlag = flag.String("currency", "USD", "Native currency of the ledger")
var actorFlag = flag.String("actor", "", "Identity submitting operations.\n If missing it will read the environment variable \""+actorEnv+"\".")

// actor returns the identity submitting the current operation.
func actor() brickfolio.Identity {
	if *actorFlag == "" {
		*actorFlag = os.Getenv(actorEnv)
	}
	return brickfolio.Identity(*actorFlag)
}

// DecodeEngine replays the app journal file into a fresh engine.
func DecodeEngine() (*brickfolio.Engine, error) {
	e, err := brickfolio.NewEngine(brickfolio.Config{
		Admin:    brickfolio.Identity(*adminFlag),
		Currency: *currencyFlag,
	})
	if err != nil {
		return nil, err
	}

	f, err := os.Open(*journalFile)
	if errors.Is(err, fs.ErrNotExist) {
		// an empty journal is a valid, empty ledger
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open journal file %q: %w", *journalFile, err)
	}
	defer f.Close()

	ops, err := brickfolio.DecodeJournal(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read journal file %q: %w", *journalFile, err)
	}
	if err := e.Replay(ops); err != nil {
		return nil, fmt.Errorf("cannot replay journal file %q: %w", *journalFile, err)
	}
	return e, nil
}

// EncodeOperation submits a single operation and appends its normalized
// form to the app journal file.
func EncodeOperation(op brickfolio.Operation) subcommands.ExitStatus {
	e, err := DecodeEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	ev, err := e.Submit(op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	// Open the file in append mode, creating it if it doesn't exist.
	f, err := os.OpenFile(*journalFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal file %q: %v\n", *journalFile, err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	journal := e.Journal()
	if err := brickfolio.EncodeOp(f, journal[len(journal)-1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to journal file %q: %v\n", *journalFile, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Successfully appended %s to %s (%s)\n", op.What(), *journalFile, ev.Kind())
	return subcommands.ExitSuccess
}
