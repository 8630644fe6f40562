package brickfolio

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StakingTier is one entry of the ordered tier list: a minimum stake, a
// lock duration and a reward multiplier. The flexible tier has no lock and
// the base multiplier.
type StakingTier struct {
	MinStake      Shares        `json:"minStake"`
	Lock          time.Duration `json:"lock"`
	MultiplierBps BasisPoints   `json:"multiplierBps"` // 10000 is 1x
	Label         string        `json:"label"`
}

func defaultTiers() []StakingTier {
	return []StakingTier{
		{MinStake: S(1), Lock: 0, MultiplierBps: 10000, Label: "flexible"},
		{MinStake: S(10), Lock: 30 * 24 * time.Hour, MultiplierBps: 11000, Label: "bronze"},
		{MinStake: S(50), Lock: 90 * 24 * time.Hour, MultiplierBps: 12500, Label: "silver"},
		{MinStake: S(100), Lock: 180 * 24 * time.Hour, MultiplierBps: 15000, Label: "gold"},
	}
}

// StakeRecord tracks one holder's stake in one property's pool.
type StakeRecord struct {
	Amount    Shares    `json:"amount"`
	Tier      int       `json:"tier"`
	Since     time.Time `json:"since"`
	LockUntil time.Time `json:"lockUntil"`

	// checkpoint is the accumulator value already credited; accrued is the
	// banked base reward (pre-multiplier) not yet paid out.
	checkpoint decimal.Decimal
	accrued    decimal.Decimal
}

// stakingPool emits rewards at a fixed rate over a bounded period, shared
// among stakers through the same lazy accumulator as the yield pool.
type stakingPool struct {
	property     string
	totalStaked  Shares
	rewardRate   Money // per second
	perShare     decimal.Decimal
	lastUpdate   time.Time
	periodFinish time.Time
	active       bool
	records      map[Identity]*StakeRecord
	currency     string
}

// updateTo advances the accumulator to the given instant, capped at the
// reward period end. With nothing staked, time simply passes unrewarded.
func (p *stakingPool) updateTo(at time.Time) {
	t := at
	if t.After(p.periodFinish) {
		t = p.periodFinish
	}
	if !t.After(p.lastUpdate) {
		return
	}
	if p.totalStaked.IsPositive() {
		seconds := decimal.New(int64(t.Sub(p.lastUpdate)), -9)
		emitted := p.rewardRate.Decimal().Mul(seconds)
		p.perShare = p.perShare.Add(emitted.Div(p.totalStaked.Decimal()).Truncate(AccumulatorScale))
	}
	p.lastUpdate = t
}

// bank refreshes the accumulator and moves the holder's unbanked base
// reward into the record. Must run before any change of the staked amount.
func (p *stakingPool) bank(h Identity, at time.Time) {
	p.updateTo(at)
	rec, ok := p.records[h]
	if !ok {
		return
	}
	rec.accrued = rec.accrued.Add(rec.Amount.Decimal().Mul(p.perShare.Sub(rec.checkpoint)))
	rec.checkpoint = p.perShare
}

// earnedOf projects the holder's multiplier-adjusted reward at an instant,
// without mutating pool state.
func (p *stakingPool) earnedOf(h Identity, tiers []StakingTier, at time.Time) Money {
	rec, ok := p.records[h]
	if !ok {
		return M(0, p.currency)
	}
	per := p.perShare
	t := at
	if t.After(p.periodFinish) {
		t = p.periodFinish
	}
	if t.After(p.lastUpdate) && p.totalStaked.IsPositive() {
		seconds := decimal.New(int64(t.Sub(p.lastUpdate)), -9)
		emitted := p.rewardRate.Decimal().Mul(seconds)
		per = per.Add(emitted.Div(p.totalStaked.Decimal()).Truncate(AccumulatorScale))
	}
	base := rec.accrued.Add(rec.Amount.Decimal().Mul(per.Sub(rec.checkpoint)))
	return M(tiers[rec.Tier].MultiplierBps.Apply(base), p.currency).Truncated()
}

func (e *Engine) resolveStakingPool(property string) (*stakingPool, error) {
	p, ok := e.stakings[property]
	if !ok {
		return nil, fmt.Errorf("%w: no staking pool for property %q", ErrNotFoundOrExpired, property)
	}
	return p, nil
}

// --- Create pool ---

// CreateStakingPool opens the one staking pool a property may have, with a
// reward emission rate per second over a bounded period. The attached
// value funds the emission budget and must cover the whole period.
// Only the platform admin may create staking pools.
type CreateStakingPool struct {
	propOp
	RewardRate Money         `json:"rewardRate"` // per second
	Duration   time.Duration `json:"duration"`
	Attached   Money         `json:"attached"` // emission budget
}

// NewCreateStakingPool creates a staking pool creation operation.
func NewCreateStakingPool(caller Identity, property string, rewardRate Money, duration time.Duration, attached Money) CreateStakingPool {
	return CreateStakingPool{
		propOp:     propOp{baseOp: baseOp{Op: OpCreateStakingPool, Actor: caller}, Property: property},
		RewardRate: rewardRate,
		Duration:   duration,
		Attached:   attached,
	}
}

// MarshalJSON implements the json.Marshaler interface for CreateStakingPool.
func (o CreateStakingPool) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("rewardRate", o.RewardRate)
	w.Append("duration", o.Duration.String())
	w.Append("attached", o.Attached)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for CreateStakingPool.
func (o *CreateStakingPool) UnmarshalJSON(b []byte) error {
	type alias CreateStakingPool
	var temp struct {
		alias
		Duration string `json:"duration"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	d, err := time.ParseDuration(temp.Duration)
	if err != nil {
		return err
	}
	*o = CreateStakingPool(temp.alias)
	o.Duration = d
	return nil
}

func (o CreateStakingPool) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if o.Actor != e.cfg.Admin {
		return nil, nil, fmt.Errorf("%w: only the admin may create staking pools", ErrUnauthorized)
	}
	var err error
	if o.RewardRate, err = e.normMoney(o.RewardRate); err != nil {
		return nil, nil, err
	}
	if o.Attached, err = e.normMoney(o.Attached); err != nil {
		return nil, nil, err
	}
	if !o.RewardRate.IsPositive() || o.Duration <= 0 {
		return nil, nil, fmt.Errorf("%w: staking pool requires a positive rate and duration", ErrValidation)
	}
	budget := M(o.RewardRate.Decimal().Mul(decimal.New(int64(o.Duration), -9)), e.cfg.Currency)
	if o.Attached.LessThan(budget) {
		return nil, nil, fmt.Errorf("%w: %v attached, emission budget requires %v", ErrInsufficientFunds, o.Attached, budget)
	}
	if _, _, err := e.resolveProperty(o.Property); err != nil {
		return nil, nil, err
	}
	if _, ok := e.stakings[o.Property]; ok {
		return nil, nil, fmt.Errorf("%w: staking pool for property %q", ErrAlreadyExists, o.Property)
	}

	e.receive(o.Attached)
	e.stakings[o.Property] = &stakingPool{
		property:     o.Property,
		rewardRate:   o.RewardRate,
		lastUpdate:   o.Time,
		periodFinish: o.Time.Add(o.Duration),
		active:       true,
		records:      make(map[Identity]*StakeRecord),
		currency:     e.cfg.Currency,
	}

	ev := EvStakingPoolCreated{
		baseEvent:  newEvent("staking-pool-created", o.Time),
		Property:   o.Property,
		RewardRate: o.RewardRate,
		PeriodEnd:  o.Time.Add(o.Duration),
	}
	return o, ev, nil
}

// --- Stake ---

// Stake locks free shares into a tier. Staked shares stay on the holder's
// ledger balance but cannot be transferred or sold until withdrawn.
// Adding to an existing stake re-tiers the whole stake and restarts the lock.
type Stake struct {
	propOp
	Shares Shares `json:"shares"`
	Tier   int    `json:"tier"`
}

// NewStake creates a staking operation.
func NewStake(holder Identity, property string, shares Shares, tier int) Stake {
	return Stake{
		propOp: propOp{baseOp: baseOp{Op: OpStake, Actor: holder}, Property: property},
		Shares: shares,
		Tier:   tier,
	}
}

// MarshalJSON implements the json.Marshaler interface for Stake.
func (o Stake) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("shares", o.Shares)
	w.Append("tier", o.Tier)
	return w.MarshalJSON()
}

func (o Stake) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if !o.Shares.IsPositive() {
		return nil, nil, fmt.Errorf("%w: stake amount must be positive", ErrValidation)
	}
	if o.Tier < 0 || o.Tier >= len(e.tiers) {
		return nil, nil, fmt.Errorf("%w: unknown staking tier %d", ErrValidation, o.Tier)
	}
	tier := e.tiers[o.Tier]
	if o.Shares.LessThan(tier.MinStake) {
		return nil, nil, fmt.Errorf("%w: tier %q requires at least %v shares", ErrValidation, tier.Label, tier.MinStake)
	}
	pool, err := e.resolveStakingPool(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if !pool.active {
		return nil, nil, fmt.Errorf("%w: staking pool for property %q is paused", ErrValidation, o.Property)
	}
	ledger := e.ledgers[o.Property]
	if ledger.free(o.Actor).LessThan(o.Shares) {
		return nil, nil, fmt.Errorf("%w: %v free, %v requested to stake", ErrInsufficientShares, ledger.free(o.Actor), o.Shares)
	}

	pool.bank(o.Actor, o.Time)
	rec, ok := pool.records[o.Actor]
	if !ok {
		rec = &StakeRecord{checkpoint: pool.perShare}
		pool.records[o.Actor] = rec
	}
	rec.Amount = rec.Amount.Add(o.Shares)
	rec.Tier = o.Tier
	rec.Since = o.Time
	rec.LockUntil = o.Time.Add(tier.Lock)
	pool.totalStaked = pool.totalStaked.Add(o.Shares)
	ledger.staked[o.Actor] = ledger.staked[o.Actor].Add(o.Shares)

	ev := EvStaked{
		baseEvent: newEvent("staked", o.Time),
		Property:  o.Property,
		Holder:    o.Actor,
		Shares:    o.Shares,
		Tier:      o.Tier,
		LockUntil: rec.LockUntil,
	}
	return o, ev, nil
}

// --- Withdraw ---

// WithdrawStake unlocks staked shares. Before the lock ends, the early
// penalty is deducted in shares from the withdrawn amount and forfeited to
// the fee recipient; at or after the lock end nothing is deducted.
type WithdrawStake struct {
	propOp
	Shares Shares `json:"shares"`
}

// NewWithdrawStake creates a stake withdrawal.
func NewWithdrawStake(holder Identity, property string, shares Shares) WithdrawStake {
	return WithdrawStake{
		propOp: propOp{baseOp: baseOp{Op: OpWithdrawStake, Actor: holder}, Property: property},
		Shares: shares,
	}
}

// MarshalJSON implements the json.Marshaler interface for WithdrawStake.
func (o WithdrawStake) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("shares", o.Shares)
	return w.MarshalJSON()
}

func (o WithdrawStake) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if !o.Shares.IsPositive() {
		return nil, nil, fmt.Errorf("%w: withdrawal amount must be positive", ErrValidation)
	}
	pool, err := e.resolveStakingPool(o.Property)
	if err != nil {
		return nil, nil, err
	}
	rec, ok := pool.records[o.Actor]
	if !ok || rec.Amount.LessThan(o.Shares) {
		return nil, nil, fmt.Errorf("%w: staked balance below %v", ErrInsufficientShares, o.Shares)
	}

	penalty := e.unstake(pool, rec, o.Actor, o.Shares, o.Time)

	ev := EvStakeWithdrawn{
		baseEvent: newEvent("stake-withdrawn", o.Time),
		Property:  o.Property,
		Holder:    o.Actor,
		Shares:    o.Shares,
		Penalty:   penalty,
	}
	return o, ev, nil
}

// unstake releases shares from the pool and applies the early penalty if
// the lock has not ended. The forfeited shares move on the ownership
// ledger to the fee recipient, so share conservation holds.
func (e *Engine) unstake(pool *stakingPool, rec *StakeRecord, h Identity, shares Shares, at time.Time) (penalty Shares) {
	pool.bank(h, at)
	rec.Amount = rec.Amount.Sub(shares)
	pool.totalStaked = pool.totalStaked.Sub(shares)

	ledger := e.ledgers[pool.property]
	ledger.staked[h] = ledger.staked[h].Sub(shares)
	if ledger.staked[h].IsZero() {
		delete(ledger.staked, h)
	}

	if at.Before(rec.LockUntil) {
		penalty = shares.ApplyRate(e.cfg.EarlyPenaltyBps)
		if penalty.IsPositive() {
			e.touchHolder(pool.property, h, at)
			e.touchHolder(pool.property, e.cfg.FeeRecipient, at)
			ledger.debit(h, penalty)
			ledger.credit(e.cfg.FeeRecipient, penalty)
		}
	}
	return penalty
}

// --- Reward ---

// GetReward pays the holder's accrued reward, scaled by the tier
// multiplier, and zeroes the accrual. Claiming nothing succeeds and pays
// zero.
type GetReward struct {
	propOp
}

// NewGetReward creates a staking reward claim.
func NewGetReward(holder Identity, property string) GetReward {
	return GetReward{
		propOp: propOp{baseOp: baseOp{Op: OpGetReward, Actor: holder}, Property: property},
	}
}

func (o GetReward) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	pool, err := e.resolveStakingPool(o.Property)
	if err != nil {
		return nil, nil, err
	}

	amount := e.payReward(pool, o.Actor, o.Time)

	ev := EvRewardPaid{
		baseEvent: newEvent("reward-paid", o.Time),
		Property:  o.Property,
		Holder:    o.Actor,
		Amount:    amount,
	}
	return o, ev, nil
}

// payReward banks, scales by the tier multiplier and queues the payout.
func (e *Engine) payReward(pool *stakingPool, h Identity, at time.Time) Money {
	pool.bank(h, at)
	rec, ok := pool.records[h]
	if !ok {
		return e.zero()
	}
	amount := M(e.tiers[rec.Tier].MultiplierBps.Apply(rec.accrued), pool.currency).Truncated()
	rec.accrued = decimal.Decimal{}
	e.queuePay(h, amount, "staking reward")
	return amount
}

// --- Exit ---

// Exit withdraws the holder's entire staked amount and claims the reward
// in one operation.
type Exit struct {
	propOp
}

// NewExit creates a full staking exit.
func NewExit(holder Identity, property string) Exit {
	return Exit{
		propOp: propOp{baseOp: baseOp{Op: OpExit, Actor: holder}, Property: property},
	}
}

func (o Exit) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	pool, err := e.resolveStakingPool(o.Property)
	if err != nil {
		return nil, nil, err
	}
	rec, ok := pool.records[o.Actor]
	if !ok || !rec.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: nothing staked for property %q", ErrInsufficientShares, o.Property)
	}

	shares := rec.Amount
	penalty := e.unstake(pool, rec, o.Actor, shares, o.Time)
	reward := e.payReward(pool, o.Actor, o.Time)
	delete(pool.records, o.Actor)

	ev := EvExited{
		baseEvent: newEvent("exited", o.Time),
		Property:  o.Property,
		Holder:    o.Actor,
		Shares:    shares,
		Penalty:   penalty,
		Reward:    reward,
	}
	return o, ev, nil
}

// --- Read accessors ---

// Tiers returns the ordered staking tier list.
func (e *Engine) Tiers() []StakingTier {
	out := make([]StakingTier, len(e.tiers))
	copy(out, e.tiers)
	return out
}

// StakeOf returns a copy of the holder's stake record for a property.
func (e *Engine) StakeOf(holder Identity, property string) (StakeRecord, bool) {
	p, ok := e.stakings[property]
	if !ok {
		return StakeRecord{}, false
	}
	rec, ok := p.records[holder]
	if !ok {
		return StakeRecord{}, false
	}
	return *rec, true
}

// TotalStaked returns the total shares staked in a property's pool.
func (e *Engine) TotalStaked(property string) Shares {
	p, ok := e.stakings[property]
	if !ok {
		return Shares{}
	}
	return p.totalStaked
}

// Earned projects the holder's multiplier-adjusted staking reward now.
func (e *Engine) Earned(holder Identity, property string) Money {
	return e.EarnedAt(holder, property, e.now())
}

// EarnedAt projects the holder's reward at a given instant.
func (e *Engine) EarnedAt(holder Identity, property string, at time.Time) Money {
	p, ok := e.stakings[property]
	if !ok {
		return e.zero()
	}
	return p.earnedOf(holder, e.tiers, at)
}
