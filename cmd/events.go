package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brickfolio/brickfolio"
	"github.com/google/subcommands"
)

// eventsCmd replays the journal and prints the emitted events.
type eventsCmd struct {
	head int
	tail int
}

func (*eventsCmd) Name() string     { return "events" }
func (*eventsCmd) Synopsis() string { return "list the events emitted by the journal" }
func (*eventsCmd) Usage() string {
	return `bfo events [-head <n>] [-tail <n>]

  Replays the journal and prints one event per operation, in order, as
  JSONL suitable for external indexers.
`
}

func (p *eventsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&p.head, "head", 0, "Show only the first N events.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N events.")
}

func (p *eventsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	e, err := DecodeEngine()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	events := e.Events()
	if p.head > 0 && len(events) > p.head {
		events = events[:p.head]
	}
	if p.tail > 0 && len(events) > p.tail {
		events = events[len(events)-p.tail:]
	}

	for _, ev := range events {
		if err := brickfolio.EncodeEvent(os.Stdout, ev); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
