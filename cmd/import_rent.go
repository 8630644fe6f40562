package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brickfolio/brickfolio/feeds"
	"github.com/google/subcommands"
)

// importRentCmd imports a property manager's rent statement export and
// deposits each remittance line into the matching yield pool.
type importRentCmd struct {
	file       string
	records    string
	property   string
	amount     string
	date       string
	dateFormat string
	source     string
}

func (*importRentCmd) Name() string     { return "import-rent" }
func (*importRentCmd) Synopsis() string { return "import a rent statement export as yield deposits" }
func (*importRentCmd) Usage() string {
	return `bfo import-rent -file <export.json> [-records <jsonpath>] [-source <label>]

  Parses a property manager's JSON export and submits one deposit per
  remittance line. Non-positive lines (adjustments, voids) are skipped.
  The field locations can be overridden with jsonpath expressions for
  portals with a different export shape.
`
}

func (c *importRentCmd) SetFlags(f *flag.FlagSet) {
	m := feeds.DefaultMapping
	f.StringVar(&c.file, "file", "", "Path to the JSON export.")
	f.StringVar(&c.records, "records", m.Records, "jsonpath selecting the remittance records.")
	f.StringVar(&c.property, "property-path", m.Property, "jsonpath to the property id within a record.")
	f.StringVar(&c.amount, "amount-path", m.Amount, "jsonpath to the net amount within a record.")
	f.StringVar(&c.date, "date-path", m.Date, "jsonpath to the remittance date within a record.")
	f.StringVar(&c.dateFormat, "date-format", "2006-01-02", "Go layout of the remittance date.")
	f.StringVar(&c.source, "source", m.Source, "Label recorded on each deposit.")
}

func (c *importRentCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	in, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening export %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	mapping := feeds.Mapping{
		Records:    c.records,
		Property:   c.property,
		Amount:     c.amount,
		Date:       c.date,
		DateFormat: c.dateFormat,
		Source:     c.source,
	}
	statements, err := feeds.Parse(in, mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing export %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}

	ops := feeds.Deposits(statements, actor(), *currencyFlag)
	if len(ops) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no positive remittance lines to import.")
		return subcommands.ExitSuccess
	}

	for _, op := range ops {
		if status := EncodeOperation(op); status != subcommands.ExitSuccess {
			return status
		}
	}
	fmt.Printf("Imported %d deposits from %s\n", len(ops), c.file)
	return subcommands.ExitSuccess
}
