package brickfolio

import "time"

// Event is the structured record emitted by every successful mutating
// operation, carrying the operation's key identifiers and amounts in a
// form suitable for external indexing. Failed operations emit nothing.
type Event interface {
	Kind() string
	At() time.Time
}

// baseEvent is the component embedded by every event record.
type baseEvent struct {
	Event string    `json:"event"`
	Time  time.Time `json:"time"`
}

func newEvent(kind string, at time.Time) baseEvent {
	return baseEvent{Event: kind, Time: at}
}

func (e baseEvent) Kind() string  { return e.Event }
func (e baseEvent) At() time.Time { return e.Time }

// EvPropertyMinted records the creation of a property and its ledger.
type EvPropertyMinted struct {
	baseEvent
	Property      string      `json:"property"`
	Creator       Identity    `json:"creator"`
	Name          string      `json:"name"`
	ShareSupply   Shares      `json:"shareSupply"`
	PricePerShare Money       `json:"pricePerShare"`
	RoyaltyBps    BasisPoints `json:"royaltyBps"`
}

// EvSharesPurchased records a mint-time share purchase and its splits.
type EvSharesPurchased struct {
	baseEvent
	Property string   `json:"property"`
	Buyer    Identity `json:"buyer"`
	Shares   Shares   `json:"shares"`
	Cost     Money    `json:"cost"`
	Royalty  Money    `json:"royalty"`
	Refund   Money    `json:"refund"`
}

// EvSharesTransferred records a peer-to-peer share transfer.
type EvSharesTransferred struct {
	baseEvent
	Property string   `json:"property"`
	From     Identity `json:"from"`
	To       Identity `json:"to"`
	Shares   Shares   `json:"shares"`
}

// EvListedStatusSet records a listed-flag toggle.
type EvListedStatusSet struct {
	baseEvent
	Property string `json:"property"`
	Listed   bool   `json:"listed"`
}

// EvPropertyUpdated records a creator's value/royalty restatement.
type EvPropertyUpdated struct {
	baseEvent
	Property   string      `json:"property"`
	TotalValue Money       `json:"totalValue"`
	RoyaltyBps BasisPoints `json:"royaltyBps"`
}

// EvListingCreated records a new marketplace listing.
type EvListingCreated struct {
	baseEvent
	Listing   string    `json:"listing"`
	Property  string    `json:"property"`
	Seller    Identity  `json:"seller"`
	Full      bool      `json:"full,omitempty"`
	Shares    Shares    `json:"shares,omitempty"`
	Price     Money     `json:"price"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EvListingFulfilled records a direct purchase settlement.
type EvListingFulfilled struct {
	baseEvent
	Listing  string   `json:"listing"`
	Property string   `json:"property"`
	Buyer    Identity `json:"buyer"`
	Seller   Identity `json:"seller"`
	Full     bool     `json:"full,omitempty"`
	Shares   Shares   `json:"shares,omitempty"`
	Price    Money    `json:"price"`
	Fee      Money    `json:"fee"`
	Proceeds Money    `json:"proceeds"`
	Refund   Money    `json:"refund"`
}

// EvListingCancelled records a seller cancellation.
type EvListingCancelled struct {
	baseEvent
	Listing  string `json:"listing"`
	Property string `json:"property"`
}

// EvOfferMade records a new escrowed offer.
type EvOfferMade struct {
	baseEvent
	Offer     string    `json:"offer"`
	Listing   string    `json:"listing"`
	Buyer     Identity  `json:"buyer"`
	Shares    Shares    `json:"shares,omitempty"`
	Value     Money     `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EvOfferAccepted records an offer settlement.
type EvOfferAccepted struct {
	baseEvent
	Offer    string   `json:"offer"`
	Listing  string   `json:"listing"`
	Property string   `json:"property"`
	Buyer    Identity `json:"buyer"`
	Seller   Identity `json:"seller"`
	Full     bool     `json:"full,omitempty"`
	Shares   Shares   `json:"shares,omitempty"`
	Price    Money    `json:"price"`
	Fee      Money    `json:"fee"`
	Proceeds Money    `json:"proceeds"`
}

// EvOfferWithdrawn records an escrow refund.
type EvOfferWithdrawn struct {
	baseEvent
	Offer   string   `json:"offer"`
	Listing string   `json:"listing"`
	Buyer   Identity `json:"buyer"`
	Refund  Money    `json:"refund"`
}

// EvYieldPoolCreated records the opening of a property's yield pool.
type EvYieldPoolCreated struct {
	baseEvent
	Property string `json:"property"`
}

// EvYieldDeposited records an income deposit, and whether it triggered an
// immediate distribution.
type EvYieldDeposited struct {
	baseEvent
	Property    string   `json:"property"`
	Depositor   Identity `json:"depositor"`
	Amount      Money    `json:"amount"`
	Source      string   `json:"source,omitempty"`
	Distributed bool     `json:"distributed"`
}

// EvYieldDistributed records an explicit distribution.
type EvYieldDistributed struct {
	baseEvent
	Property    string `json:"property"`
	Gross       Money  `json:"gross"`
	Fee         Money  `json:"fee"`
	Net         Money  `json:"net"`
	TotalShares Shares `json:"totalShares"`
}

// EvYieldClaimed records a single or batched yield claim.
type EvYieldClaimed struct {
	baseEvent
	Holder     Identity `json:"holder"`
	Properties []string `json:"properties"`
	Amount     Money    `json:"amount"`
}

// EvStakingPoolCreated records the opening of a property's staking pool.
type EvStakingPoolCreated struct {
	baseEvent
	Property   string    `json:"property"`
	RewardRate Money     `json:"rewardRate"`
	PeriodEnd  time.Time `json:"periodEnd"`
}

// EvStaked records a stake into a tier.
type EvStaked struct {
	baseEvent
	Property  string    `json:"property"`
	Holder    Identity  `json:"holder"`
	Shares    Shares    `json:"shares"`
	Tier      int       `json:"tier"`
	LockUntil time.Time `json:"lockUntil"`
}

// EvStakeWithdrawn records an unstake and any early penalty, in shares.
type EvStakeWithdrawn struct {
	baseEvent
	Property string   `json:"property"`
	Holder   Identity `json:"holder"`
	Shares   Shares   `json:"shares"`
	Penalty  Shares   `json:"penalty,omitempty"`
}

// EvRewardPaid records a staking reward payout.
type EvRewardPaid struct {
	baseEvent
	Property string   `json:"property"`
	Holder   Identity `json:"holder"`
	Amount   Money    `json:"amount"`
}

// EvExited records a full staking exit.
type EvExited struct {
	baseEvent
	Property string   `json:"property"`
	Holder   Identity `json:"holder"`
	Shares   Shares   `json:"shares"`
	Penalty  Shares   `json:"penalty,omitempty"`
	Reward   Money    `json:"reward"`
}

// EvConfigUpdated records an administrative parameter change.
type EvConfigUpdated struct {
	baseEvent
	Field  string      `json:"field"`
	Bps    BasisPoints `json:"bps,omitempty"`
	Amount Money       `json:"amount,omitempty"`
}

// EvTierAdded records a staking tier addition.
type EvTierAdded struct {
	baseEvent
	Index int         `json:"index"`
	Tier  StakingTier `json:"tier"`
}

// EvAdminTransferred records a transfer of the privileged role.
type EvAdminTransferred struct {
	baseEvent
	To Identity `json:"to"`
}

// EvEmergencyWithdrawn records an emergency withdrawal.
type EvEmergencyWithdrawn struct {
	baseEvent
	Amount Money `json:"amount"`
}

// EvPoolActiveSet records a pool pause or resume.
type EvPoolActiveSet struct {
	baseEvent
	Property string `json:"property"`
	Pool     string `json:"pool"`
	Active   bool   `json:"active"`
}
