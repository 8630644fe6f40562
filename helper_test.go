package brickfolio

import (
	"fmt"
	"testing"
	"time"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

// testNow is the fixed instant every test engine's clock returns.
var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// at shifts testNow, for operations submitted "later".
func at(d time.Duration) time.Time { return testNow.Add(d) }

// testEngine creates an engine with a deterministic clock and id sequence.
func testEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Admin.IsZero() {
		cfg.Admin = "admin"
	}
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	e.now = func() time.Time { return testNow }
	var seq int
	e.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return e
}

// mustSubmit submits an operation that is expected to succeed.
func mustSubmit(t *testing.T, e *Engine, op Operation) Event {
	t.Helper()
	ev, err := e.Submit(op)
	if err != nil {
		t.Fatalf("Submit(%s) failed: %v", op.What(), err)
	}
	return ev
}

// mintMaple mints the standard test property: 1000 shares at 10 USD with a
// 2.5% creator royalty, created by "creator".
func mintMaple(t *testing.T, e *Engine) string {
	t.Helper()
	op := NewMintProperty("creator", "12 Maple St", "12 Maple St, Springfield", "residential", USD(500_000), S(1000), USD(10), 250)
	op.ID = "maple-12"
	mustSubmit(t, e, op)
	return op.ID
}

// recordingSink captures external payouts for assertions.
type recordingSink struct {
	payouts []payout
}

func (s *recordingSink) Pay(to Identity, amount Money, reason string) {
	s.payouts = append(s.payouts, payout{To: to, Amount: amount, Reason: reason})
}

// total sums everything paid to one party.
func (s *recordingSink) total(to Identity) Money {
	sum := USD(0)
	for _, p := range s.payouts {
		if p.To == to {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// reentrantSink tries to submit an operation from inside the payout
// callback, to exercise the reentrancy guard.
type reentrantSink struct {
	e   *Engine
	op  Operation
	err error
}

func (s *reentrantSink) Pay(Identity, Money, string) {
	_, s.err = s.e.Submit(s.op)
}
