package feeds

import (
	"strings"
	"testing"
	"time"

	"github.com/brickfolio/brickfolio"
)

const acmeExport = `{
  "manager": "acme-pm",
  "statements": [
    {"property": "maple-12", "net": 1250.40, "paidOn": "2026-08-01"},
    {"property": "oak-7",    "net": "980,10", "paidOn": "2026-08-01"},
    {"property": "maple-12", "net": -35.00, "paidOn": "2026-08-02"}
  ]
}`

func TestParse(t *testing.T) {
	statements, err := Parse(strings.NewReader(acmeExport), DefaultMapping)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(statements))
	}

	s := statements[0]
	if s.Property != "maple-12" {
		t.Errorf("got property %q, want %q", s.Property, "maple-12")
	}
	if got := s.Amount.String(); got != "1250.4" {
		t.Errorf("got amount %s, want 1250.4", got)
	}
	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !s.Date.Equal(want) {
		t.Errorf("got date %v, want %v", s.Date, want)
	}

	// localized string amounts are normalized
	if got := statements[1].Amount.String(); got != "980.1" {
		t.Errorf("got amount %s, want 980.1", got)
	}
	// adjustments come through as-is, Deposits filters them
	if !statements[2].Amount.IsNegative() {
		t.Errorf("got amount %s, want a negative adjustment", statements[2].Amount)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		export  string
		mapping Mapping
	}{
		{
			name:    "invalid json",
			export:  `{"statements": [`,
			mapping: DefaultMapping,
		},
		{
			name:    "missing amount field",
			export:  `{"statements": [{"property": "maple-12", "paidOn": "2026-08-01"}]}`,
			mapping: DefaultMapping,
		},
		{
			name:    "amount is an object",
			export:  `{"statements": [{"property": "maple-12", "net": {}, "paidOn": "2026-08-01"}]}`,
			mapping: DefaultMapping,
		},
		{
			name:    "bad date",
			export:  `{"statements": [{"property": "maple-12", "net": 10, "paidOn": "august"}]}`,
			mapping: DefaultMapping,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.export), tc.mapping); err == nil {
				t.Errorf("Parse() succeeded, want an error")
			}
		})
	}
}

func TestParse_CustomMapping(t *testing.T) {
	export := `{"remittances": [{"unit": {"code": "elm-3"}, "payout": {"total": "412.77"}, "when": "01/08/2026"}]}`
	mapping := Mapping{
		Records:    "$.remittances[*]",
		Property:   "$.unit.code",
		Amount:     "$.payout.total",
		Date:       "$.when",
		DateFormat: "02/01/2006",
		Source:     "custom-pm",
	}
	statements, err := Parse(strings.NewReader(export), mapping)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(statements))
	}
	if got := statements[0].Amount.String(); got != "412.77" {
		t.Errorf("got amount %s, want 412.77", got)
	}
	if got := statements[0].Date; got.Day() != 1 || got.Month() != time.August {
		t.Errorf("got date %v, want 1 August 2026", got)
	}
}

func TestDeposits(t *testing.T) {
	statements, err := Parse(strings.NewReader(acmeExport), DefaultMapping)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	ops := Deposits(statements, "manager-1", "USD")
	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2 (the adjustment is skipped)", len(ops))
	}

	op, ok := ops[0].(brickfolio.DepositYield)
	if !ok {
		t.Fatalf("got %T, want brickfolio.DepositYield", ops[0])
	}
	if op.By() != "manager-1" {
		t.Errorf("got depositor %q, want manager-1", op.By())
	}
	if op.Property != "maple-12" {
		t.Errorf("got property %q, want maple-12", op.Property)
	}
	if op.Source != "statement" {
		t.Errorf("got source %q, want statement", op.Source)
	}
	if op.When().IsZero() {
		t.Error("deposit time not carried over from the statement")
	}
}
