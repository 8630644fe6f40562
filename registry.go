package brickfolio

import (
	"fmt"
	"time"
)

// Property is the record of one tokenized real-world asset.
//
// Everything is immutable after mint except the total value, the royalty
// rate (both updatable by the creator) and the listed flag (toggled by the
// current title holder).
type Property struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Address       string      `json:"address"`
	Category      string      `json:"category"`
	TotalValue    Money       `json:"totalValue"`
	ShareSupply   Shares      `json:"shareSupply"`
	PricePerShare Money       `json:"pricePerShare"`
	Creator       Identity    `json:"creator"`
	TitleHolder   Identity    `json:"titleHolder"`
	RoyaltyBps    BasisPoints `json:"royaltyBps"`
	Listed        bool        `json:"listed"`
	MetadataRef   string      `json:"metadataRef,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// ownershipLedger tracks the fractional ownership of one property.
//
// Invariant: the sum of all balances equals issued, and issued never
// exceeds the property's share supply. Staked shares stay in the holder's
// balance but are excluded from the free balance every debit checks.
type ownershipLedger struct {
	balances map[Identity]Shares
	staked   map[Identity]Shares
	issued   Shares
}

func newOwnershipLedger() *ownershipLedger {
	return &ownershipLedger{
		balances: make(map[Identity]Shares),
		staked:   make(map[Identity]Shares),
	}
}

func (l *ownershipLedger) balance(h Identity) Shares { return l.balances[h] }

// free is the balance available for transfer, sale or staking.
func (l *ownershipLedger) free(h Identity) Shares {
	return l.balances[h].Sub(l.staked[h])
}

func (l *ownershipLedger) credit(h Identity, s Shares) {
	l.balances[h] = l.balances[h].Add(s)
}

func (l *ownershipLedger) debit(h Identity, s Shares) {
	b := l.balances[h].Sub(s)
	if b.IsZero() {
		delete(l.balances, h)
	} else {
		l.balances[h] = b
	}
}

// resolveProperty returns the property and its ledger.
func (e *Engine) resolveProperty(id string) (*Property, *ownershipLedger, error) {
	p, ok := e.properties[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: property %q", ErrNotFoundOrExpired, id)
	}
	return p, e.ledgers[id], nil
}

// touchHolder banks the holder's currently pending yield and staking reward
// so a balance change never loses or double-counts rewards. It must run
// before the ledger mutation it protects.
func (e *Engine) touchHolder(propID string, h Identity, at time.Time) {
	if yp, ok := e.yields[propID]; ok {
		yp.bank(h, e.ledgers[propID].balance(h))
	}
	if sp, ok := e.stakings[propID]; ok {
		sp.bank(h, at)
	}
}

// normMoney fills an empty currency with the engine currency and rejects
// any other currency.
func (e *Engine) normMoney(m Money) (Money, error) {
	switch m.Currency() {
	case "":
		return M(m.Decimal(), e.cfg.Currency), nil
	case e.cfg.Currency:
		return m, nil
	default:
		return Money{}, fmt.Errorf("%w: currency %q, engine settles in %q", ErrValidation, m.Currency(), e.cfg.Currency)
	}
}

// --- Mint ---

// MintProperty creates a property record with a zero ownership ledger.
// The creator holds the full-asset title but owns no shares until purchase.
type MintProperty struct {
	baseOp
	ID            string      `json:"id,omitempty"` // stamped when empty
	Name          string      `json:"name"`
	Address       string      `json:"address"`
	Category      string      `json:"category"`
	TotalValue    Money       `json:"totalValue"`
	ShareSupply   Shares      `json:"shareSupply"`
	PricePerShare Money       `json:"pricePerShare"`
	RoyaltyBps    BasisPoints `json:"royaltyBps"`
	MetadataRef   string      `json:"metadataRef,omitempty"`
}

// NewMintProperty creates a mint operation for the given creator.
func NewMintProperty(creator Identity, name, address, category string, totalValue Money, supply Shares, pricePerShare Money, royalty BasisPoints) MintProperty {
	return MintProperty{
		baseOp:        baseOp{Op: OpMint, Actor: creator},
		Name:          name,
		Address:       address,
		Category:      category,
		TotalValue:    totalValue,
		ShareSupply:   supply,
		PricePerShare: pricePerShare,
		RoyaltyBps:    royalty,
	}
}

// MarshalJSON implements the json.Marshaler interface for MintProperty.
func (o MintProperty) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("id", o.ID)
	w.Append("name", o.Name)
	w.Append("address", o.Address)
	w.Append("category", o.Category)
	w.Append("totalValue", o.TotalValue)
	w.Append("shareSupply", o.ShareSupply)
	w.Append("pricePerShare", o.PricePerShare)
	w.Append("royaltyBps", o.RoyaltyBps)
	w.Optional("metadataRef", o.MetadataRef)
	return w.MarshalJSON()
}

func (o MintProperty) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	o.ID = e.stampID(o.ID)

	if o.Name == "" || o.Address == "" || o.Category == "" {
		return nil, nil, fmt.Errorf("%w: mint requires name, address and category", ErrValidation)
	}
	var err error
	if o.TotalValue, err = e.normMoney(o.TotalValue); err != nil {
		return nil, nil, err
	}
	if o.PricePerShare, err = e.normMoney(o.PricePerShare); err != nil {
		return nil, nil, err
	}
	if !o.TotalValue.IsPositive() || !o.PricePerShare.IsPositive() || !o.ShareSupply.IsPositive() {
		return nil, nil, fmt.Errorf("%w: mint requires positive value, supply and price", ErrValidation)
	}
	if !o.RoyaltyBps.validFee() {
		return nil, nil, fmt.Errorf("%w: royalty %v exceeds %v", ErrValidation, o.RoyaltyBps, MaxFeeBps)
	}
	if _, ok := e.properties[o.ID]; ok {
		return nil, nil, fmt.Errorf("%w: property %q", ErrAlreadyExists, o.ID)
	}

	e.properties[o.ID] = &Property{
		ID:            o.ID,
		Name:          o.Name,
		Address:       o.Address,
		Category:      o.Category,
		TotalValue:    o.TotalValue,
		ShareSupply:   o.ShareSupply,
		PricePerShare: o.PricePerShare,
		Creator:       o.Actor,
		TitleHolder:   o.Actor,
		RoyaltyBps:    o.RoyaltyBps,
		Listed:        true,
		MetadataRef:   o.MetadataRef,
		CreatedAt:     o.Time,
	}
	e.ledgers[o.ID] = newOwnershipLedger()

	ev := EvPropertyMinted{
		baseEvent:     newEvent("property-minted", o.Time),
		Property:      o.ID,
		Creator:       o.Actor,
		Name:          o.Name,
		ShareSupply:   o.ShareSupply,
		PricePerShare: o.PricePerShare,
		RoyaltyBps:    o.RoyaltyBps,
	}
	return o, ev, nil
}

// --- Purchase shares (mint-time purchase) ---

// PurchaseShares buys unissued shares directly from the property at the
// mint price. The cost splits into a royalty paid to the creator and a
// remainder paid to the current title holder; excess attached value is
// refunded to the buyer.
type PurchaseShares struct {
	propOp
	Shares   Shares `json:"shares"`
	Attached Money  `json:"attached"`
}

// NewPurchaseShares creates a mint-time share purchase.
func NewPurchaseShares(buyer Identity, property string, shares Shares, attached Money) PurchaseShares {
	return PurchaseShares{
		propOp:   propOp{baseOp: baseOp{Op: OpPurchaseShares, Actor: buyer}, Property: property},
		Shares:   shares,
		Attached: attached,
	}
}

// MarshalJSON implements the json.Marshaler interface for PurchaseShares.
func (o PurchaseShares) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("shares", o.Shares)
	w.Append("attached", o.Attached)
	return w.MarshalJSON()
}

func (o PurchaseShares) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if !o.Shares.IsPositive() {
		return nil, nil, fmt.Errorf("%w: share count must be positive", ErrValidation)
	}
	var err error
	if o.Attached, err = e.normMoney(o.Attached); err != nil {
		return nil, nil, err
	}
	prop, ledger, err := e.resolveProperty(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if !prop.Listed {
		return nil, nil, fmt.Errorf("%w: property %q is not listed for sale", ErrValidation, prop.ID)
	}
	if ledger.issued.Add(o.Shares).GreaterThan(prop.ShareSupply) {
		return nil, nil, fmt.Errorf("%w: %v shares requested, %v available", ErrInsufficientShares, o.Shares, prop.ShareSupply.Sub(ledger.issued))
	}
	cost := prop.PricePerShare.Mul(o.Shares)
	if o.Attached.LessThan(cost) {
		return nil, nil, fmt.Errorf("%w: %v attached, %v required", ErrInsufficientFunds, o.Attached, cost)
	}

	royalty, remainder := cost.Split(prop.RoyaltyBps)
	refund := o.Attached.Sub(cost)

	e.receive(o.Attached)
	e.touchHolder(prop.ID, o.Actor, o.Time)
	ledger.credit(o.Actor, o.Shares)
	ledger.issued = ledger.issued.Add(o.Shares)

	e.queuePay(prop.Creator, royalty, "royalty")
	e.queuePay(prop.TitleHolder, remainder, "share sale proceeds")
	e.queuePay(o.Actor, refund, "purchase refund")

	ev := EvSharesPurchased{
		baseEvent: newEvent("shares-purchased", o.Time),
		Property:  prop.ID,
		Buyer:     o.Actor,
		Shares:    o.Shares,
		Cost:      cost,
		Royalty:   royalty,
		Refund:    refund,
	}
	return o, ev, nil
}

// --- Transfer ---

// TransferShares moves shares between two holders with no value exchanged.
type TransferShares struct {
	propOp
	To     Identity `json:"to"`
	Shares Shares   `json:"shares"`
}

// NewTransferShares creates a share transfer from the actor to another holder.
func NewTransferShares(from Identity, property string, to Identity, shares Shares) TransferShares {
	return TransferShares{
		propOp: propOp{baseOp: baseOp{Op: OpTransferShares, Actor: from}, Property: property},
		To:     to,
		Shares: shares,
	}
}

// MarshalJSON implements the json.Marshaler interface for TransferShares.
func (o TransferShares) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("to", o.To)
	w.Append("shares", o.Shares)
	return w.MarshalJSON()
}

func (o TransferShares) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	if o.To.IsZero() {
		return nil, nil, fmt.Errorf("%w: transfer requires a recipient", ErrValidation)
	}
	if o.To == o.Actor {
		return nil, nil, fmt.Errorf("%w: transfer to self", ErrValidation)
	}
	if !o.Shares.IsPositive() {
		return nil, nil, fmt.Errorf("%w: share count must be positive", ErrValidation)
	}
	prop, ledger, err := e.resolveProperty(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if ledger.free(o.Actor).LessThan(o.Shares) {
		return nil, nil, fmt.Errorf("%w: %v free, %v requested", ErrInsufficientShares, ledger.free(o.Actor), o.Shares)
	}

	e.touchHolder(prop.ID, o.Actor, o.Time)
	e.touchHolder(prop.ID, o.To, o.Time)
	ledger.debit(o.Actor, o.Shares)
	ledger.credit(o.To, o.Shares)

	ev := EvSharesTransferred{
		baseEvent: newEvent("shares-transferred", o.Time),
		Property:  prop.ID,
		From:      o.Actor,
		To:        o.To,
		Shares:    o.Shares,
	}
	return o, ev, nil
}

// --- Listed flag ---

// SetListed toggles whether mint-time share purchases are open.
// Only the current title holder may toggle.
type SetListed struct {
	propOp
	Listed bool `json:"listed"`
}

// NewSetListed creates a listed-status toggle.
func NewSetListed(caller Identity, property string, listed bool) SetListed {
	return SetListed{
		propOp: propOp{baseOp: baseOp{Op: OpSetListed, Actor: caller}, Property: property},
		Listed: listed,
	}
}

// MarshalJSON implements the json.Marshaler interface for SetListed.
func (o SetListed) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("listed", o.Listed)
	return w.MarshalJSON()
}

func (o SetListed) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	prop, _, err := e.resolveProperty(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if prop.TitleHolder != o.Actor {
		return nil, nil, fmt.Errorf("%w: only the title holder may toggle listing", ErrUnauthorized)
	}

	prop.Listed = o.Listed

	ev := EvListedStatusSet{
		baseEvent: newEvent("listed-status-set", o.Time),
		Property:  prop.ID,
		Listed:    o.Listed,
	}
	return o, ev, nil
}

// --- Property update ---

// UpdateProperty lets the creator restate the declared total value and the
// royalty rate. Supply, price and identity fields stay immutable.
type UpdateProperty struct {
	propOp
	TotalValue Money       `json:"totalValue"`
	RoyaltyBps BasisPoints `json:"royaltyBps"`
}

// NewUpdateProperty creates a property update by the creator.
func NewUpdateProperty(creator Identity, property string, totalValue Money, royalty BasisPoints) UpdateProperty {
	return UpdateProperty{
		propOp:     propOp{baseOp: baseOp{Op: OpUpdateProperty, Actor: creator}, Property: property},
		TotalValue: totalValue,
		RoyaltyBps: royalty,
	}
}

// MarshalJSON implements the json.Marshaler interface for UpdateProperty.
func (o UpdateProperty) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("totalValue", o.TotalValue)
	w.Append("royaltyBps", o.RoyaltyBps)
	return w.MarshalJSON()
}

func (o UpdateProperty) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	var err error
	if o.TotalValue, err = e.normMoney(o.TotalValue); err != nil {
		return nil, nil, err
	}
	if !o.TotalValue.IsPositive() {
		return nil, nil, fmt.Errorf("%w: total value must be positive", ErrValidation)
	}
	if !o.RoyaltyBps.validFee() {
		return nil, nil, fmt.Errorf("%w: royalty %v exceeds %v", ErrValidation, o.RoyaltyBps, MaxFeeBps)
	}
	prop, _, err := e.resolveProperty(o.Property)
	if err != nil {
		return nil, nil, err
	}
	if prop.Creator != o.Actor {
		return nil, nil, fmt.Errorf("%w: only the creator may update the property", ErrUnauthorized)
	}

	prop.TotalValue = o.TotalValue
	prop.RoyaltyBps = o.RoyaltyBps

	ev := EvPropertyUpdated{
		baseEvent:  newEvent("property-updated", o.Time),
		Property:   prop.ID,
		TotalValue: o.TotalValue,
		RoyaltyBps: o.RoyaltyBps,
	}
	return o, ev, nil
}

// --- Read accessors ---

// Property returns a copy of the property record.
func (e *Engine) Property(id string) (Property, bool) {
	p, ok := e.properties[id]
	if !ok {
		return Property{}, false
	}
	return *p, true
}

// HolderShares returns the holder's share balance for a property.
func (e *Engine) HolderShares(propertyID string, holder Identity) Shares {
	l, ok := e.ledgers[propertyID]
	if !ok {
		return Shares{}
	}
	return l.balance(holder)
}

// FreeShares returns the holder's balance net of staked shares.
func (e *Engine) FreeShares(propertyID string, holder Identity) Shares {
	l, ok := e.ledgers[propertyID]
	if !ok {
		return Shares{}
	}
	return l.free(holder)
}

// IssuedShares returns the number of shares issued for a property.
func (e *Engine) IssuedShares(propertyID string) Shares {
	l, ok := e.ledgers[propertyID]
	if !ok {
		return Shares{}
	}
	return l.issued
}

// AvailableShares returns the unissued remainder of the share supply.
func (e *Engine) AvailableShares(propertyID string) Shares {
	p, ok := e.properties[propertyID]
	if !ok {
		return Shares{}
	}
	return p.ShareSupply.Sub(e.ledgers[propertyID].issued)
}
