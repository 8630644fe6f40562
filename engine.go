package brickfolio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config holds the engine's administrative parameters. The admin identity
// may change later through a TransferAdmin operation; the fee parameters
// through their respective administrative operations.
type Config struct {
	// Admin is the privileged caller for administrative operations.
	Admin Identity
	// FeeRecipient receives platform fees. Defaults to Admin.
	FeeRecipient Identity
	// Currency is the engine's native unit of value, e.g. "USD".
	Currency string
	// PlatformFeeBps is skimmed from marketplace settlements and yield
	// distributions. Capped at MaxFeeBps.
	PlatformFeeBps BasisPoints
	// MinDistribution is the smallest yield increment that distributes.
	MinDistribution Money
	// EarlyPenaltyBps is deducted from stake withdrawn before lock end.
	EarlyPenaltyBps BasisPoints
}

// PayoutSink receives the external value transfers an operation performs
// after its state mutation is complete. A sink that calls back into the
// engine is rejected with ErrReentrancy.
type PayoutSink interface {
	Pay(to Identity, amount Money, reason string)
}

// payout is one external value transfer, queued during execution and
// flushed only after the operation's state is final.
type payout struct {
	To     Identity
	Amount Money
	Reason string
}

// Engine is the tokenized-property ledger and reward-accounting engine.
//
// All mutating calls go through Submit, which serializes them behind a
// non-reentrant guard. The engine is not safe for concurrent use; the
// hosting environment must serialize calls.
type Engine struct {
	cfg Config

	now   func() time.Time
	newID func() string

	busy bool

	properties map[string]*Property
	ledgers    map[string]*ownershipLedger
	listings   map[string]*Listing
	offers     map[string]*Offer
	yields     map[string]*YieldPool
	stakings   map[string]*stakingPool
	tiers      []StakingTier

	// held is the value currently attributed to the engine itself:
	// escrowed offers, undistributed yield and unspent reward budgets.
	held Money
	// paid records the cumulative value paid out to each party.
	paid map[Identity]Money

	journal []Operation
	events  []Event

	sink       PayoutSink
	pendingPay []payout
}

// NewEngine creates an engine from the given configuration, installing the
// default staking tiers.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Admin.IsZero() {
		return nil, fmt.Errorf("%w: admin identity is required", ErrValidation)
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.FeeRecipient.IsZero() {
		cfg.FeeRecipient = cfg.Admin
	}
	if !cfg.PlatformFeeBps.validFee() {
		return nil, fmt.Errorf("%w: platform fee %v exceeds %v", ErrValidation, cfg.PlatformFeeBps, MaxFeeBps)
	}
	if cfg.MinDistribution.IsNegative() {
		return nil, fmt.Errorf("%w: negative minimum distribution", ErrValidation)
	}
	if cfg.EarlyPenaltyBps < 0 || cfg.EarlyPenaltyBps > 10000 {
		return nil, fmt.Errorf("%w: early-withdrawal penalty %v out of range", ErrValidation, cfg.EarlyPenaltyBps)
	}

	e := &Engine{
		cfg:        cfg,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
		properties: make(map[string]*Property),
		ledgers:    make(map[string]*ownershipLedger),
		listings:   make(map[string]*Listing),
		offers:     make(map[string]*Offer),
		yields:     make(map[string]*YieldPool),
		stakings:   make(map[string]*stakingPool),
		tiers:      defaultTiers(),
		held:       M(0, cfg.Currency),
		paid:       make(map[Identity]Money),
	}
	return e, nil
}

// SetPayoutSink installs the external payout callback. Payouts are recorded
// in the engine's paid book whether or not a sink is installed.
func (e *Engine) SetPayoutSink(sink PayoutSink) { e.sink = sink }

// Config returns the engine's current configuration.
func (e *Engine) Config() Config { return e.cfg }

// Held returns the value currently held by the engine itself.
func (e *Engine) Held() Money { return e.held }

// PaidTo returns the cumulative value paid out to a party.
func (e *Engine) PaidTo(id Identity) Money {
	if m, ok := e.paid[id]; ok {
		return m
	}
	return M(0, e.cfg.Currency)
}

// Events returns the structured records emitted by successful operations,
// in emission order. The returned slice is shared; callers must not
// modify it.
func (e *Engine) Events() []Event { return e.events }

// Journal returns the normalized operations applied so far, in order.
// Replaying them through a fresh engine reproduces identical state.
func (e *Engine) Journal() []Operation { return e.journal }

// Submit validates and applies one operation.
//
// The whole operation either applies or fails with no side effects; on
// success exactly one Event is emitted and the normalized operation is
// appended to the journal. External payouts are performed last, after all
// state mutation, and a payout callback that re-enters the engine fails
// with ErrReentrancy.
func (e *Engine) Submit(op Operation) (Event, error) {
	if e.busy {
		return nil, fmt.Errorf("%w: %s while another operation is executing", ErrReentrancy, op.What())
	}
	e.busy = true
	defer func() { e.busy = false }()

	op, event, err := op.execute(e)
	if err != nil {
		e.pendingPay = e.pendingPay[:0]
		return nil, err
	}

	e.journal = append(e.journal, op)
	e.events = append(e.events, event)
	e.flushPayouts()
	return event, nil
}

// Replay submits a sequence of previously journaled operations.
// It stops at the first failure.
func (e *Engine) Replay(ops []Operation) error {
	for i, op := range ops {
		if _, err := e.Submit(op); err != nil {
			return fmt.Errorf("replaying operation %d (%s): %w", i, op.What(), err)
		}
	}
	return nil
}

// receive accounts value attached to an operation as engine-held.
func (e *Engine) receive(amount Money) {
	e.held = e.held.Add(amount)
}

// queuePay schedules an external payout to be performed after the current
// operation's state mutation completes. Zero amounts are dropped.
func (e *Engine) queuePay(to Identity, amount Money, reason string) {
	if amount.IsZero() {
		return
	}
	e.pendingPay = append(e.pendingPay, payout{To: to, Amount: amount, Reason: reason})
}

func (e *Engine) flushPayouts() {
	for _, p := range e.pendingPay {
		e.held = e.held.Sub(p.Amount)
		e.paid[p.To] = e.paid[p.To].Add(p.Amount)
		if e.sink != nil {
			e.sink.Pay(p.To, p.Amount, p.Reason)
		}
	}
	e.pendingPay = e.pendingPay[:0]
}

// zero returns the zero monetary value in the engine currency.
func (e *Engine) zero() Money { return M(0, e.cfg.Currency) }

// stampTime fills a zero op time from the engine clock.
func (e *Engine) stampTime(t time.Time) time.Time {
	if t.IsZero() {
		return e.now()
	}
	return t
}

// stampID fills an empty id from the engine's id source.
func (e *Engine) stampID(id string) string {
	if id == "" {
		return e.newID()
	}
	return id
}
