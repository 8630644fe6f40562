// Package feeds imports rent remittance statements exported by property
// manager portals and turns them into yield deposit operations.
//
// Every portal exports a different JSON shape, so the importer is driven by
// a Mapping of jsonpath expressions rather than a fixed schema.
package feeds

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/brickfolio/brickfolio"
)

// RentStatement is one remittance line: net rent collected for one property
// over one period.
type RentStatement struct {
	Property string
	Amount   decimal.Decimal
	Date     time.Time
	Source   string
}

// Mapping locates statement fields inside a portal export. Records selects
// the list of remittance lines; the other paths are evaluated relative to
// each record.
type Mapping struct {
	Records    string // jsonpath to the list of remittance records
	Property   string // property identifier within a record
	Amount     string // net amount within a record
	Date       string // remittance date within a record
	DateFormat string // Go layout for Date, defaults to "2006-01-02"
	Source     string // label recorded on the deposit, e.g. "acme-pm"
}

// DefaultMapping matches the common {"statements":[{"property":..,"net":..,"paidOn":..}]}
// export shape.
var DefaultMapping = Mapping{
	Records:  "$.statements[*]",
	Property: "$.property",
	Amount:   "$.net",
	Date:     "$.paidOn",
	Source:   "statement",
}

// Parse reads one export document and extracts its remittance lines.
func Parse(r io.Reader, m Mapping) ([]RentStatement, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("cannot parse statement export: %w", err)
	}

	jval, err := jsonpath.Get(m.Records, jobj)
	if err != nil {
		return nil, fmt.Errorf("cannot select records at %q: %w", m.Records, err)
	}
	records, ok := jval.([]any)
	if !ok {
		// jsonpath is never clear about whether it returns a list or a
		// single answer, accept a lone record too.
		records = []any{jval}
	}

	format := m.DateFormat
	if format == "" {
		format = "2006-01-02"
	}

	var statements []RentStatement
	for i, rec := range records {
		property, err := getString(m.Property, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		amount, err := getAmount(m.Amount, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		dateStr, err := getString(m.Date, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		date, err := time.Parse(format, dateStr)
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid date %q: %w", i, dateStr, err)
		}
		statements = append(statements, RentStatement{
			Property: property,
			Amount:   amount,
			Date:     date,
			Source:   m.Source,
		})
	}
	return statements, nil
}

// Deposits converts parsed statements into deposit operations submitted by
// the property manager, skipping non-positive lines (adjustments, voids).
func Deposits(statements []RentStatement, manager brickfolio.Identity, currency string) []brickfolio.Operation {
	var ops []brickfolio.Operation
	for _, s := range statements {
		if !s.Amount.IsPositive() {
			continue
		}
		op := brickfolio.NewDepositYield(manager, s.Property, brickfolio.M(s.Amount, currency), s.Source)
		op.Time = s.Date
		ops = append(ops, op)
	}
	return ops
}

// first unwraps the single-answer list that jsonpath sometimes returns.
func first(jval any) any {
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		return jlist[0]
	}
	return jval
}

func getString(path string, rec any) (string, error) {
	jval, err := jsonpath.Get(path, rec)
	if err != nil {
		return "", fmt.Errorf("cannot read %q: %w", path, err)
	}
	s, ok := first(jval).(string)
	if !ok {
		return "", fmt.Errorf("value at %q is not a string: %v", path, jval)
	}
	return s, nil
}

func getAmount(path string, rec any) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, rec)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot read %q: %w", path, err)
	}
	switch v := first(jval).(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		// some portals export amounts as localized strings
		s := strings.ReplaceAll(v, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return decimal.Zero, fmt.Errorf("value at %q is an invalid amount %q: %w", path, v, err)
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("value at %q is neither a number nor a string: %v", path, jval)
	}
}
