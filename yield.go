package brickfolio

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccumulatorScale is the number of fractional digits kept by the
// reward-per-share accumulators. Every advance truncates to this scale so
// the sum of all holder entitlements never exceeds the distributed amount.
const AccumulatorScale = 18

// DistributionEvent is one immutable record of a yield distribution.
// The history is append-only; records are never mutated.
type DistributionEvent struct {
	Amount      Money     `json:"amount"` // net amount distributed to holders
	Time        time.Time `json:"time"`
	TotalShares Shares    `json:"totalShares"` // issued shares at distribution time
	Source      string    `json:"source,omitempty"`
}

// YieldPool accumulates external income for one property and distributes it
// to current shareholders proportionally, using a lazy reward-per-share
// accumulator so distributions never iterate all holders.
type YieldPool struct {
	Property    string
	Total       Money // cumulative deposits, monotonically non-decreasing
	Distributed Money // cumulative distributed, <= Total, monotonic
	PerShare    decimal.Decimal
	LastUpdate  time.Time
	Active      bool

	currency string
	history  []DistributionEvent
	// debts holds each holder's accumulator checkpoint; pending banks
	// rewards accrued before a balance change so they are never lost.
	debts   map[Identity]decimal.Decimal
	pending map[Identity]Money
}

func newYieldPool(property, currency string) *YieldPool {
	return &YieldPool{
		Property:    property,
		Total:       M(0, currency),
		Distributed: M(0, currency),
		Active:      true,
		currency:    currency,
		debts:       make(map[Identity]decimal.Decimal),
		pending:     make(map[Identity]Money),
	}
}

// bank moves the holder's accrued-but-unclaimed yield into pending storage
// and resets the debt checkpoint. It must be called with the holder's share
// balance as it stands before any balance change.
func (p *YieldPool) bank(h Identity, shares Shares) {
	accrued := shares.Decimal().Mul(p.PerShare.Sub(p.debts[h]))
	if accrued.IsPositive() {
		p.pending[h] = p.pending[h].Add(M(accrued, p.currency))
	}
	p.debts[h] = p.PerShare
}

// pendingOf projects the holder's claimable yield: banked plus unbanked
// accumulator delta, truncated to the currency precision.
func (p *YieldPool) pendingOf(h Identity, shares Shares) Money {
	accrued := shares.Decimal().Mul(p.PerShare.Sub(p.debts[h]))
	return p.pending[h].Add(M(accrued, p.currency)).Truncated()
}

// distribute advances the accumulator by the currently undistributed
// balance, net of the platform fee. Preconditions are checked by callers.
func (e *Engine) distributeYield(p *YieldPool, issued Shares, at time.Time, source string) (gross, fee, net Money) {
	gross = p.Total.Sub(p.Distributed)
	fee, net = gross.Split(e.cfg.PlatformFeeBps)

	delta := net.Decimal().Div(issued.Decimal()).Truncate(AccumulatorScale)
	p.PerShare = p.PerShare.Add(delta)
	p.Distributed = p.Total
	p.LastUpdate = at
	p.history = append(p.history, DistributionEvent{
		Amount:      net,
		Time:        at,
		TotalShares: issued,
		Source:      source,
	})

	e.queuePay(e.cfg.FeeRecipient, fee, "distribution fee")
	return gross, fee, net
}

// claimFrom banks everything the holder has accrued and takes out the
// payable part. The sub-unit remainder below the currency precision stays
// pending until it accumulates to something payable.
func (e *Engine) claimFrom(p *YieldPool, h Identity) Money {
	p.bank(h, e.ledgers[p.Property].balance(h))
	exact := p.pending[h]
	amount := exact.Truncated()
	if rem := exact.Sub(amount); rem.IsPositive() {
		p.pending[h] = rem
	} else {
		delete(p.pending, h)
	}
	return amount
}

func (e *Engine) resolveYieldPool(property string) (*YieldPool, error) {
	p, ok := e.yields[property]
	if !ok {
		return nil, fmt.Errorf("%w: no yield pool for property %q", ErrNotFoundOrExpired, property)
	}
	return p, nil
}

// --- Create pool ---

// CreateYieldPool opens the one yield pool a property may have.
// Only the property's full-asset title holder may create it.
type CreateYieldPool struct {
	propOp
}

// NewCreateYieldPool creates a yield pool creation operation.
func NewCreateYieldPool(caller Identity, property string) CreateYieldPool {
	return CreateYieldPool{
		propOp: propOp{baseOp: baseOp{Op: OpCreateYieldPool, Actor: caller}, Property: property},
	}
}

func (o CreateYieldPool) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	prop, _, err := e.resolveProperty(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if prop.TitleHolder != o.Actor {
		return nil, nil, fmt.Errorf("%w: only the title holder may create the yield pool", ErrUnauthorized)
	}
	if _, ok := e.yields[o.Property]; ok {
		return nil, nil, fmt.Errorf("%w: yield pool for property %q", ErrAlreadyExists, o.Property)
	}

	e.yields[o.Property] = newYieldPool(o.Property, e.cfg.Currency)

	ev := EvYieldPoolCreated{
		baseEvent: newEvent("yield-pool-created", o.Time),
		Property:  o.Property,
	}
	return o, ev, nil
}

// --- Deposit ---

// DepositYield adds external income (e.g. rental income) to a property's
// pool. A deposit at or above the minimum distribution threshold triggers
// an immediate distribution; smaller deposits accumulate and require an
// explicit DistributeYield call, even once the aggregate passes the
// threshold. The threshold is checked against the increment only.
type DepositYield struct {
	propOp
	Amount Money  `json:"amount"`
	Source string `json:"source,omitempty"`
}

// NewDepositYield creates a yield deposit.
func NewDepositYield(depositor Identity, property string, amount Money, source string) DepositYield {
	return DepositYield{
		propOp: propOp{baseOp: baseOp{Op: OpDepositYield, Actor: depositor}, Property: property},
		Amount: amount,
		Source: source,
	}
}

// MarshalJSON implements the json.Marshaler interface for DepositYield.
func (o DepositYield) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("amount", o.Amount)
	w.Optional("source", o.Source)
	return w.MarshalJSON()
}

func (o DepositYield) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	var err error
	if o.Amount, err = e.normMoney(o.Amount); err != nil {
		return nil, nil, err
	}
	if !o.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: deposit must be positive", ErrValidation)
	}
	pool, err := e.resolveYieldPool(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if !pool.Active {
		return nil, nil, fmt.Errorf("%w: yield pool for property %q is paused", ErrValidation, o.Property)
	}

	e.receive(o.Amount)
	pool.Total = pool.Total.Add(o.Amount)

	issued := e.ledgers[o.Property].issued
	auto := o.Amount.GreaterThanOrEqual(e.cfg.MinDistribution) && issued.IsPositive()
	if auto {
		e.distributeYield(pool, issued, o.Time, o.Source)
	}

	ev := EvYieldDeposited{
		baseEvent:   newEvent("yield-deposited", o.Time),
		Property:    o.Property,
		Depositor:   o.Actor,
		Amount:      o.Amount,
		Source:      o.Source,
		Distributed: auto,
	}
	return o, ev, nil
}

// --- Distribute ---

// DistributeYield distributes the pool's undistributed balance, net of the
// platform fee, to current shareholders through the accumulator.
type DistributeYield struct {
	propOp
}

// NewDistributeYield creates an explicit distribution trigger.
func NewDistributeYield(caller Identity, property string) DistributeYield {
	return DistributeYield{
		propOp: propOp{baseOp: baseOp{Op: OpDistributeYield, Actor: caller}, Property: property},
	}
}

func (o DistributeYield) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	pool, err := e.resolveYieldPool(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if !pool.Active {
		return nil, nil, fmt.Errorf("%w: yield pool for property %q is paused", ErrValidation, o.Property)
	}
	undistributed := pool.Total.Sub(pool.Distributed)
	if undistributed.LessThan(e.cfg.MinDistribution) || undistributed.IsZero() {
		return nil, nil, fmt.Errorf("%w: undistributed yield %v below minimum %v", ErrValidation, undistributed, e.cfg.MinDistribution)
	}
	issued := e.ledgers[o.Property].issued
	if !issued.IsPositive() {
		return nil, nil, fmt.Errorf("%w: no shares issued for property %q", ErrValidation, o.Property)
	}

	gross, fee, net := e.distributeYield(pool, issued, o.Time, "manual")

	ev := EvYieldDistributed{
		baseEvent:   newEvent("yield-distributed", o.Time),
		Property:    o.Property,
		Gross:       gross,
		Fee:         fee,
		Net:         net,
		TotalShares: issued,
	}
	return o, ev, nil
}

// --- Claim ---

// ClaimYield pays out the holder's pending yield for one property.
// A claim with nothing pending succeeds and pays zero.
type ClaimYield struct {
	propOp
}

// NewClaimYield creates a yield claim.
func NewClaimYield(holder Identity, property string) ClaimYield {
	return ClaimYield{
		propOp: propOp{baseOp: baseOp{Op: OpClaimYield, Actor: holder}, Property: property},
	}
}

func (o ClaimYield) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	pool, err := e.resolveYieldPool(o.Property)
	if err != nil {
		return nil, nil, err
	}

	amount := e.claimFrom(pool, o.Actor)
	e.queuePay(o.Actor, amount, "yield claim")

	ev := EvYieldClaimed{
		baseEvent:  newEvent("yield-claimed", o.Time),
		Holder:     o.Actor,
		Properties: []string{o.Property},
		Amount:     amount,
	}
	return o, ev, nil
}

// --- Batched claim ---

// ClaimMultiple claims pending yield across several properties in one
// payout. It fails as a whole only when no property has anything pending.
type ClaimMultiple struct {
	baseOp
	Properties []string `json:"properties"`
}

// NewClaimMultiple creates a batched yield claim.
func NewClaimMultiple(holder Identity, properties ...string) ClaimMultiple {
	return ClaimMultiple{
		baseOp:     baseOp{Op: OpClaimMultiple, Actor: holder},
		Properties: properties,
	}
}

// MarshalJSON implements the json.Marshaler interface for ClaimMultiple.
func (o ClaimMultiple) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("properties", o.Properties)
	return w.MarshalJSON()
}

func (o ClaimMultiple) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if len(o.Properties) == 0 {
		return nil, nil, fmt.Errorf("%w: claim requires at least one property", ErrValidation)
	}
	pools := make([]*YieldPool, len(o.Properties))
	for i, id := range o.Properties {
		pool, err := e.resolveYieldPool(id)
		if err != nil {
			return nil, nil, err
		}
		pools[i] = pool
	}
	total := e.zero()
	for i, pool := range pools {
		shares := e.ledgers[o.Properties[i]].balance(o.Actor)
		total = total.Add(pool.pendingOf(o.Actor, shares))
	}
	if total.IsZero() {
		return nil, nil, fmt.Errorf("%w: nothing to claim on any property", ErrValidation)
	}

	total = e.zero()
	for _, pool := range pools {
		total = total.Add(e.claimFrom(pool, o.Actor))
	}
	e.queuePay(o.Actor, total, "yield claim")

	ev := EvYieldClaimed{
		baseEvent:  newEvent("yield-claimed", o.Time),
		Holder:     o.Actor,
		Properties: o.Properties,
		Amount:     total,
	}
	return o, ev, nil
}

// --- Read accessors ---

// YieldPoolState returns a copy of the pool's scalar state.
func (e *Engine) YieldPoolState(property string) (YieldPool, bool) {
	p, ok := e.yields[property]
	if !ok {
		return YieldPool{}, false
	}
	out := *p
	out.history, out.debts, out.pending = nil, nil, nil
	return out, true
}

// PendingYield returns the holder's claimable yield for a property.
func (e *Engine) PendingYield(holder Identity, property string) Money {
	p, ok := e.yields[property]
	if !ok {
		return e.zero()
	}
	return p.pendingOf(holder, e.ledgers[property].balance(holder))
}

// DistributionHistory returns the property's append-only distribution log.
func (e *Engine) DistributionHistory(property string) []DistributionEvent {
	p, ok := e.yields[property]
	if !ok {
		return nil
	}
	out := make([]DistributionEvent, len(p.history))
	copy(out, p.history)
	return out
}
