package brickfolio

import (
	"fmt"
	"time"
)

// OpType is a typed string identifying operation kinds.
type OpType string

// Operation kinds, one per mutating entry point.
const (
	OpMint           OpType = "mint"
	OpPurchaseShares OpType = "buy-shares"
	OpTransferShares OpType = "transfer-shares"
	OpSetListed      OpType = "set-listed"
	OpUpdateProperty OpType = "update-property"

	OpCreateListing   OpType = "create-listing"
	OpPurchaseListing OpType = "purchase-listing"
	OpCancelListing   OpType = "cancel-listing"
	OpMakeOffer       OpType = "make-offer"
	OpAcceptOffer     OpType = "accept-offer"
	OpWithdrawOffer   OpType = "withdraw-offer"

	OpCreateYieldPool OpType = "create-yield-pool"
	OpDepositYield    OpType = "deposit-yield"
	OpDistributeYield OpType = "distribute-yield"
	OpClaimYield      OpType = "claim-yield"
	OpClaimMultiple   OpType = "claim-multiple"

	OpCreateStakingPool OpType = "create-staking-pool"
	OpStake             OpType = "stake"
	OpWithdrawStake     OpType = "withdraw-stake"
	OpGetReward         OpType = "get-reward"
	OpExit              OpType = "exit"

	OpSetPlatformFee     OpType = "set-platform-fee"
	OpSetMinDistribution OpType = "set-min-distribution"
	OpSetPenalty         OpType = "set-penalty"
	OpAddStakingTier     OpType = "add-staking-tier"
	OpTransferAdmin      OpType = "transfer-admin"
	OpEmergencyWithdraw  OpType = "emergency-withdraw"
	OpSetPoolActive      OpType = "set-pool-active"
)

// Operation is the common interface of all mutating calls accepted by
// Engine.Submit. Each operation fully validates its preconditions before
// touching any state, and queues its external payouts to run last.
type Operation interface {
	What() OpType      // What returns the operation kind.
	When() time.Time   // When returns the instant the operation executes at.
	By() Identity      // By returns the caller identity.
	execute(e *Engine) (Operation, Event, error)
}

// baseOp is the component embedded by every operation.
type baseOp struct {
	Op    OpType    `json:"op"`             // Op identifies the operation kind.
	Time  time.Time `json:"time"`           // Time is the instant the operation executes at.
	Actor Identity  `json:"actor"`          // Actor is the caller identity.
	Memo  string    `json:"memo,omitempty"` // Memo is an optional note.
}

func (o baseOp) What() OpType    { return o.Op }
func (o baseOp) When() time.Time { return o.Time }
func (o baseOp) By() Identity    { return o.Actor }

// stamp fills a zero time from the engine clock and checks the actor.
func (o *baseOp) stamp(e *Engine) error {
	o.Time = e.stampTime(o.Time)
	if o.Actor.IsZero() {
		return fmt.Errorf("%w: %s requires a caller identity", ErrValidation, o.Op)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for baseOp.
func (o baseOp) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("op", o.Op)
	w.Append("time", o.Time)
	w.Append("actor", o.Actor)
	w.Optional("memo", o.Memo)
	return w.MarshalJSON()
}

// propOp is a component for operations targeting one property.
type propOp struct {
	baseOp
	Property string `json:"property"` // Property is the target property id.
}

// stamp checks the property reference on top of the base checks.
// It does not resolve it; resolution belongs to each operation's own
// validation so unknown ids map to ErrNotFoundOrExpired consistently.
func (o *propOp) stamp(e *Engine) error {
	if err := o.baseOp.stamp(e); err != nil {
		return err
	}
	if o.Property == "" {
		return fmt.Errorf("%w: %s requires a property id", ErrValidation, o.Op)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for propOp.
func (o propOp) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("property", o.Property)
	return w.MarshalJSON()
}
