package brickfolio

import (
	"encoding/json"
	"fmt"
	"time"
)

// requireAdmin checks the caller against the engine's admin identity.
func (e *Engine) requireAdmin(actor Identity, op OpType) error {
	if actor != e.cfg.Admin {
		return fmt.Errorf("%w: %s is an admin operation", ErrUnauthorized, op)
	}
	return nil
}

// SetPlatformFee updates the platform fee skimmed from marketplace
// settlements and yield distributions. Capped at MaxFeeBps.
type SetPlatformFee struct {
	baseOp
	Bps BasisPoints `json:"bps"`
}

// NewSetPlatformFee creates a platform fee update.
func NewSetPlatformFee(admin Identity, bps BasisPoints) SetPlatformFee {
	return SetPlatformFee{baseOp: baseOp{Op: OpSetPlatformFee, Actor: admin}, Bps: bps}
}

// MarshalJSON implements the json.Marshaler interface for SetPlatformFee.
func (o SetPlatformFee) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("bps", o.Bps)
	return w.MarshalJSON()
}

func (o SetPlatformFee) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if err := e.requireAdmin(o.Actor, o.Op); err != nil {
		return nil, nil, err
	}
	if !o.Bps.validFee() {
		return nil, nil, fmt.Errorf("%w: platform fee %v exceeds %v", ErrValidation, o.Bps, MaxFeeBps)
	}

	e.cfg.PlatformFeeBps = o.Bps

	ev := EvConfigUpdated{baseEvent: newEvent("platform-fee-set", o.Time), Field: "platformFeeBps", Bps: o.Bps}
	return o, ev, nil
}

// SetMinDistribution updates the minimum yield increment that distributes.
type SetMinDistribution struct {
	baseOp
	Amount Money `json:"amount"`
}

// NewSetMinDistribution creates a minimum distribution threshold update.
func NewSetMinDistribution(admin Identity, amount Money) SetMinDistribution {
	return SetMinDistribution{baseOp: baseOp{Op: OpSetMinDistribution, Actor: admin}, Amount: amount}
}

// MarshalJSON implements the json.Marshaler interface for SetMinDistribution.
func (o SetMinDistribution) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("amount", o.Amount)
	return w.MarshalJSON()
}

func (o SetMinDistribution) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if err := e.requireAdmin(o.Actor, o.Op); err != nil {
		return nil, nil, err
	}
	var err error
	if o.Amount, err = e.normMoney(o.Amount); err != nil {
		return nil, nil, err
	}
	if o.Amount.IsNegative() {
		return nil, nil, fmt.Errorf("%w: negative minimum distribution", ErrValidation)
	}

	e.cfg.MinDistribution = o.Amount

	ev := EvConfigUpdated{baseEvent: newEvent("min-distribution-set", o.Time), Field: "minDistribution", Amount: o.Amount}
	return o, ev, nil
}

// SetPenalty updates the early-withdrawal penalty rate.
type SetPenalty struct {
	baseOp
	Bps BasisPoints `json:"bps"`
}

// NewSetPenalty creates an early-withdrawal penalty update.
func NewSetPenalty(admin Identity, bps BasisPoints) SetPenalty {
	return SetPenalty{baseOp: baseOp{Op: OpSetPenalty, Actor: admin}, Bps: bps}
}

// MarshalJSON implements the json.Marshaler interface for SetPenalty.
func (o SetPenalty) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("bps", o.Bps)
	return w.MarshalJSON()
}

func (o SetPenalty) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if err := e.requireAdmin(o.Actor, o.Op); err != nil {
		return nil, nil, err
	}
	if o.Bps < 0 || o.Bps > 10000 {
		return nil, nil, fmt.Errorf("%w: penalty %v out of range", ErrValidation, o.Bps)
	}

	e.cfg.EarlyPenaltyBps = o.Bps

	ev := EvConfigUpdated{baseEvent: newEvent("penalty-set", o.Time), Field: "earlyPenaltyBps", Bps: o.Bps}
	return o, ev, nil
}

// AddStakingTier appends a tier to the ordered tier list. Existing stakes
// keep their tier index; tiers are never removed or reordered.
type AddStakingTier struct {
	baseOp
	Tier StakingTier `json:"tier"`
}

// NewAddStakingTier creates a tier addition.
func NewAddStakingTier(admin Identity, tier StakingTier) AddStakingTier {
	return AddStakingTier{baseOp: baseOp{Op: OpAddStakingTier, Actor: admin}, Tier: tier}
}

// MarshalJSON implements the json.Marshaler interface for AddStakingTier.
func (o AddStakingTier) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("minStake", o.Tier.MinStake)
	w.Append("lock", o.Tier.Lock.String())
	w.Append("multiplierBps", o.Tier.MultiplierBps)
	w.Append("label", o.Tier.Label)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for AddStakingTier.
// The tier is flattened into the operation object on the wire.
func (o *AddStakingTier) UnmarshalJSON(b []byte) error {
	var temp struct {
		baseOp
		MinStake      Shares      `json:"minStake"`
		Lock          string      `json:"lock"`
		MultiplierBps BasisPoints `json:"multiplierBps"`
		Label         string      `json:"label"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	lock, err := time.ParseDuration(temp.Lock)
	if err != nil {
		return err
	}
	o.baseOp = temp.baseOp
	o.Tier = StakingTier{MinStake: temp.MinStake, Lock: lock, MultiplierBps: temp.MultiplierBps, Label: temp.Label}
	return nil
}

func (o AddStakingTier) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if err := e.requireAdmin(o.Actor, o.Op); err != nil {
		return nil, nil, err
	}
	if o.Tier.Label == "" {
		return nil, nil, fmt.Errorf("%w: tier label is required", ErrValidation)
	}
	if !o.Tier.MinStake.IsPositive() || o.Tier.MultiplierBps <= 0 || o.Tier.Lock < 0 {
		return nil, nil, fmt.Errorf("%w: tier %q has a non-positive minimum, multiplier or lock", ErrValidation, o.Tier.Label)
	}
	for _, t := range e.tiers {
		if t.Label == o.Tier.Label {
			return nil, nil, fmt.Errorf("%w: tier %q", ErrAlreadyExists, o.Tier.Label)
		}
	}

	e.tiers = append(e.tiers, o.Tier)

	ev := EvTierAdded{baseEvent: newEvent("tier-added", o.Time), Index: len(e.tiers) - 1, Tier: o.Tier}
	return o, ev, nil
}

// TransferAdmin hands the privileged role to another identity.
type TransferAdmin struct {
	baseOp
	To Identity `json:"to"`
}

// NewTransferAdmin creates an admin transfer.
func NewTransferAdmin(admin, to Identity) TransferAdmin {
	return TransferAdmin{baseOp: baseOp{Op: OpTransferAdmin, Actor: admin}, To: to}
}

// MarshalJSON implements the json.Marshaler interface for TransferAdmin.
func (o TransferAdmin) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("to", o.To)
	return w.MarshalJSON()
}

func (o TransferAdmin) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if err := e.requireAdmin(o.Actor, o.Op); err != nil {
		return nil, nil, err
	}
	if o.To.IsZero() {
		return nil, nil, fmt.Errorf("%w: admin cannot be transferred to the zero identity", ErrValidation)
	}

	e.cfg.Admin = o.To

	ev := EvAdminTransferred{baseEvent: newEvent("admin-transferred", o.Time), To: o.To}
	return o, ev, nil
}

// EmergencyWithdraw pays part of the engine-held balance to the admin.
// It cannot exceed what the engine currently holds.
type EmergencyWithdraw struct {
	baseOp
	Amount Money `json:"amount"`
}

// NewEmergencyWithdraw creates an emergency withdrawal.
func NewEmergencyWithdraw(admin Identity, amount Money) EmergencyWithdraw {
	return EmergencyWithdraw{baseOp: baseOp{Op: OpEmergencyWithdraw, Actor: admin}, Amount: amount}
}

// MarshalJSON implements the json.Marshaler interface for EmergencyWithdraw.
func (o EmergencyWithdraw) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("amount", o.Amount)
	return w.MarshalJSON()
}

func (o EmergencyWithdraw) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if err := e.requireAdmin(o.Actor, o.Op); err != nil {
		return nil, nil, err
	}
	var err error
	if o.Amount, err = e.normMoney(o.Amount); err != nil {
		return nil, nil, err
	}
	if !o.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: withdrawal must be positive", ErrValidation)
	}
	if o.Amount.GreaterThan(e.held) {
		return nil, nil, fmt.Errorf("%w: %v requested, engine holds %v", ErrInsufficientFunds, o.Amount, e.held)
	}

	e.queuePay(e.cfg.Admin, o.Amount, "emergency withdrawal")

	ev := EvEmergencyWithdrawn{baseEvent: newEvent("emergency-withdrawn", o.Time), Amount: o.Amount}
	return o, ev, nil
}

// SetPoolActive pauses or resumes a property's yield or staking pool.
// Claims and withdrawals stay available while paused; deposits,
// distributions and new stakes do not.
type SetPoolActive struct {
	propOp
	Pool   string `json:"pool"` // "yield" or "staking"
	Active bool   `json:"active"`
}

// NewSetPoolActive creates a pool pause/resume operation.
func NewSetPoolActive(admin Identity, property, pool string, active bool) SetPoolActive {
	return SetPoolActive{
		propOp: propOp{baseOp: baseOp{Op: OpSetPoolActive, Actor: admin}, Property: property},
		Pool:   pool,
		Active: active,
	}
}

// MarshalJSON implements the json.Marshaler interface for SetPoolActive.
func (o SetPoolActive) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("pool", o.Pool)
	w.Append("active", o.Active)
	return w.MarshalJSON()
}

func (o SetPoolActive) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if err := e.requireAdmin(o.Actor, o.Op); err != nil {
		return nil, nil, err
	}
	switch o.Pool {
	case "yield":
		pool, err := e.resolveYieldPool(o.Property)
		if err != nil {
			return nil, nil, err
		}
		pool.Active = o.Active
	case "staking":
		pool, err := e.resolveStakingPool(o.Property)
		if err != nil {
			return nil, nil, err
		}
		// settle the accumulator up to the pause instant
		pool.updateTo(o.Time)
		pool.active = o.Active
	default:
		return nil, nil, fmt.Errorf("%w: pool must be %q or %q", ErrValidation, "yield", "staking")
	}

	ev := EvPoolActiveSet{
		baseEvent: newEvent("pool-active-set", o.Time),
		Property:  o.Property,
		Pool:      o.Pool,
		Active:    o.Active,
	}
	return o, ev, nil
}
