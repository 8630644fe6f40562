package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brickfolio/brickfolio"
	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the journal file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `bfo fmt

  Validates and formats the journal file. This command replays every
  operation, verifying the whole history still applies cleanly, and writes
  the normalized operations back in canonical JSONL form.

Usage Examples:
# Rewrites the default journal file.
$ bfo fmt

`
}

func (p *fmtCmd) SetFlags(f *flag.FlagSet) {}

func (p *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := DecodeEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not replay journal: %v\n", err)
		return subcommands.ExitFailure
	}

	tmp := *journalFile + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", tmp, err)
		return subcommands.ExitFailure
	}

	if err := brickfolio.EncodeOps(out, e.Journal()); err != nil {
		out.Close()
		os.Remove(tmp)
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", tmp, err)
		return subcommands.ExitFailure
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		fmt.Fprintf(os.Stderr, "Error closing %q: %v\n", tmp, err)
		return subcommands.ExitFailure
	}

	if err := os.Rename(tmp, *journalFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error replacing %q: %v\n", *journalFile, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Successfully formatted %s (%d operations).\n", *journalFile, len(e.Journal()))
	return subcommands.ExitSuccess
}
