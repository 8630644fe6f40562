package brickfolio

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ListingStatus is the stored lifecycle state of a listing.
//
// A listing whose expiry timestamp has passed is treated as inert by every
// read and settlement path even while its stored status still reads active
// (lazy expiry, there is no background sweep).
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingFulfilled ListingStatus = "fulfilled"
	ListingCancelled ListingStatus = "cancelled"
)

// OfferStatus is the stored lifecycle state of an offer.
type OfferStatus string

const (
	OfferActive    OfferStatus = "active"
	OfferFulfilled OfferStatus = "fulfilled"
	OfferWithdrawn OfferStatus = "withdrawn"
)

// Listing offers a property's whole title or a block of its shares for a
// fixed price until expiry.
type Listing struct {
	ID        string        `json:"id"`
	Property  string        `json:"property"`
	Seller    Identity      `json:"seller"`
	Full      bool          `json:"full,omitempty"`   // whole-asset title listing
	Shares    Shares        `json:"shares,omitempty"` // zero for full listings
	Price     Money         `json:"price"`
	Status    ListingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// live reports whether the listing can still settle at the given instant.
func (l *Listing) live(at time.Time) bool {
	return l.Status == ListingActive && at.Before(l.ExpiresAt)
}

// Offer is a negotiated bid against a listing. The attached value is held
// in escrow by the engine until the offer is accepted or withdrawn.
// Multiple offers may target the same listing simultaneously.
type Offer struct {
	ID        string      `json:"id"`
	Listing   string      `json:"listing"`
	Buyer     Identity    `json:"buyer"`
	Shares    Shares      `json:"shares,omitempty"`
	Value     Money       `json:"value"`
	Status    OfferStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (o *Offer) live(at time.Time) bool {
	return o.Status == OfferActive && at.Before(o.ExpiresAt)
}

// resolveListing returns a listing by id, expired or not.
func (e *Engine) resolveListing(id string) (*Listing, error) {
	l, ok := e.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: listing %q", ErrNotFoundOrExpired, id)
	}
	return l, nil
}

func (e *Engine) resolveOffer(id string) (*Offer, error) {
	o, ok := e.offers[id]
	if !ok {
		return nil, fmt.Errorf("%w: offer %q", ErrNotFoundOrExpired, id)
	}
	return o, nil
}

// checkSellerHoldings re-validates that the seller can still deliver what
// the listing promises. Ownership may have moved since the listing was
// created, so every settlement path re-checks at its own instant.
func (e *Engine) checkSellerHoldings(l *Listing, shares Shares) error {
	prop, ledger, err := e.resolveProperty(l.Property)
	if err != nil {
		return err
	}
	if l.Full {
		if prop.TitleHolder != l.Seller {
			return fmt.Errorf("%w: seller no longer holds the title of %q", ErrInsufficientShares, prop.ID)
		}
		return nil
	}
	if ledger.free(l.Seller).LessThan(shares) {
		return fmt.Errorf("%w: seller holds %v free shares, listing requires %v", ErrInsufficientShares, ledger.free(l.Seller), shares)
	}
	return nil
}

// settleListing performs the fee split and the registry transfer common to
// direct purchases and accepted offers. Preconditions are already checked;
// from here on the operation cannot fail.
func (e *Engine) settleListing(l *Listing, buyer Identity, shares Shares, price Money, at time.Time) (fee, proceeds Money) {
	fee, proceeds = price.Split(e.cfg.PlatformFeeBps)

	prop := e.properties[l.Property]
	ledger := e.ledgers[l.Property]
	if l.Full {
		prop.TitleHolder = buyer
	} else {
		e.touchHolder(l.Property, l.Seller, at)
		e.touchHolder(l.Property, buyer, at)
		ledger.debit(l.Seller, shares)
		ledger.credit(buyer, shares)
	}
	l.Status = ListingFulfilled

	e.queuePay(l.Seller, proceeds, "sale proceeds")
	e.queuePay(e.cfg.FeeRecipient, fee, "platform fee")
	return fee, proceeds
}

// --- Create listing ---

// CreateListing puts a block of shares, or the whole asset title, up for
// sale at a fixed price for a limited duration.
type CreateListing struct {
	propOp
	ID       string        `json:"id,omitempty"`
	Full     bool          `json:"full,omitempty"`
	Shares   Shares        `json:"shares,omitempty"`
	Price    Money         `json:"price"`
	Duration time.Duration `json:"duration"`
}

// NewShareListing creates a listing for a block of shares.
func NewShareListing(seller Identity, property string, shares Shares, price Money, duration time.Duration) CreateListing {
	return CreateListing{
		propOp:   propOp{baseOp: baseOp{Op: OpCreateListing, Actor: seller}, Property: property},
		Shares:   shares,
		Price:    price,
		Duration: duration,
	}
}

// NewFullListing creates a listing for the whole asset title.
func NewFullListing(seller Identity, property string, price Money, duration time.Duration) CreateListing {
	return CreateListing{
		propOp:   propOp{baseOp: baseOp{Op: OpCreateListing, Actor: seller}, Property: property},
		Full:     true,
		Price:    price,
		Duration: duration,
	}
}

// MarshalJSON implements the json.Marshaler interface for CreateListing.
func (o CreateListing) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.propOp)
	w.Append("id", o.ID)
	w.Optional("full", o.Full)
	w.Optional("shares", o.Shares)
	w.Append("price", o.Price)
	w.Append("duration", o.Duration.String())
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for CreateListing.
// It handles the duration stored as a string.
func (o *CreateListing) UnmarshalJSON(b []byte) error {
	type alias CreateListing
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
	*o = CreateListing(temp.alias)
	o.Duration = d
	return nil
}

func (o CreateListing) execute(e *Engine) (Operation, Event, error) {
	if err := o.propOp.stamp(e); err != nil {
		return nil, nil, err
	}
	o.ID = e.stampID(o.ID)

	var err error
	if o.Price, err = e.normMoney(o.Price); err != nil {
		return nil, nil, err
	}
	if !o.Price.IsPositive() {
		return nil, nil, fmt.Errorf("%w: listing price must be positive", ErrValidation)
	}
	if o.Duration <= 0 {
		return nil, nil, fmt.Errorf("%w: listing duration must be positive", ErrValidation)
	}
	if o.Full == o.Shares.IsPositive() {
		return nil, nil, fmt.Errorf("%w: list either the full asset or a positive share count", ErrValidation)
	}
	if _, ok := e.listings[o.ID]; ok {
		return nil, nil, fmt.Errorf("%w: listing %q", ErrAlreadyExists, o.ID)
	}

	l := &Listing{
		ID:        o.ID,
		Property:  o.Property,
		Seller:    o.Actor,
		Full:      o.Full,
		Shares:    o.Shares,
		Price:     o.Price,
		Status:    ListingActive,
		CreatedAt: o.Time,
		ExpiresAt: o.Time.Add(o.Duration),
	}
	if err := e.checkSellerHoldings(l, o.Shares); err != nil {
		return nil, nil, err
	}

	e.listings[o.ID] = l

	ev := EvListingCreated{
		baseEvent: newEvent("listing-created", o.Time),
		Listing:   l.ID,
		Property:  l.Property,
		Seller:    l.Seller,
		Full:      l.Full,
		Shares:    l.Shares,
		Price:     l.Price,
		ExpiresAt: l.ExpiresAt,
	}
	return o, ev, nil
}

// --- Purchase listing ---

// PurchaseListing settles a listing at its asking price. The price splits
// into a platform fee and seller proceeds; overpayment is refunded.
type PurchaseListing struct {
	baseOp
	Listing  string `json:"listing"`
	Attached Money  `json:"attached"`
}

// NewPurchaseListing creates a direct purchase of a listing.
func NewPurchaseListing(buyer Identity, listing string, attached Money) PurchaseListing {
	return PurchaseListing{
		baseOp:   baseOp{Op: OpPurchaseListing, Actor: buyer},
		Listing:  listing,
		Attached: attached,
	}
}

// MarshalJSON implements the json.Marshaler interface for PurchaseListing.
func (o PurchaseListing) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("listing", o.Listing)
	w.Append("attached", o.Attached)
	return w.MarshalJSON()
}

func (o PurchaseListing) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	var err error
	if o.Attached, err = e.normMoney(o.Attached); err != nil {
		return nil, nil, err
	}
	l, err := e.resolveListing(o.Listing)
	if err != nil {
		return nil, nil, err
	}
	if !l.live(o.Time) {
		return nil, nil, fmt.Errorf("%w: listing %q is no longer open", ErrNotFoundOrExpired, l.ID)
	}
	if o.Actor == l.Seller {
		return nil, nil, fmt.Errorf("%w: seller cannot buy own listing", ErrValidation)
	}
	if o.Attached.LessThan(l.Price) {
		return nil, nil, fmt.Errorf("%w: %v attached, %v required", ErrInsufficientFunds, o.Attached, l.Price)
	}
	if err := e.checkSellerHoldings(l, l.Shares); err != nil {
		return nil, nil, err
	}

	refund := o.Attached.Sub(l.Price)
	e.receive(o.Attached)
	fee, proceeds := e.settleListing(l, o.Actor, l.Shares, l.Price, o.Time)
	e.queuePay(o.Actor, refund, "purchase refund")

	ev := EvListingFulfilled{
		baseEvent: newEvent("listing-fulfilled", o.Time),
		Listing:   l.ID,
		Property:  l.Property,
		Buyer:     o.Actor,
		Seller:    l.Seller,
		Full:      l.Full,
		Shares:    l.Shares,
		Price:     l.Price,
		Fee:       fee,
		Proceeds:  proceeds,
		Refund:    refund,
	}
	return o, ev, nil
}

// --- Cancel listing ---

// CancelListing withdraws an active listing. Only the seller may cancel.
type CancelListing struct {
	baseOp
	Listing string `json:"listing"`
}

// NewCancelListing creates a listing cancellation.
func NewCancelListing(seller Identity, listing string) CancelListing {
	return CancelListing{
		baseOp:  baseOp{Op: OpCancelListing, Actor: seller},
		Listing: listing,
	}
}

// MarshalJSON implements the json.Marshaler interface for CancelListing.
func (o CancelListing) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("listing", o.Listing)
	return w.MarshalJSON()
}

func (o CancelListing) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	l, err := e.resolveListing(o.Listing)
	if err != nil {
		return nil, nil, err
	}
	if l.Seller != o.Actor {
		return nil, nil, fmt.Errorf("%w: only the seller may cancel a listing", ErrUnauthorized)
	}
	if l.Status != ListingActive {
		return nil, nil, fmt.Errorf("%w: listing %q is %s", ErrNotFoundOrExpired, l.ID, l.Status)
	}

	l.Status = ListingCancelled

	ev := EvListingCancelled{
		baseEvent: newEvent("listing-cancelled", o.Time),
		Listing:   l.ID,
		Property:  l.Property,
	}
	return o, ev, nil
}

// --- Make offer ---

// MakeOffer places a bid against a listing. The attached value is escrowed
// by the engine until the offer is accepted or withdrawn; it is never
// forwarded on placement.
type MakeOffer struct {
	baseOp
	ID       string        `json:"id,omitempty"`
	Listing  string        `json:"listing"`
	Shares   Shares        `json:"shares,omitempty"`
	Attached Money         `json:"attached"`
	Duration time.Duration `json:"duration"`
}

// NewMakeOffer creates an offer of the attached value for shares of a listing.
// For a full-asset listing the share count is ignored.
func NewMakeOffer(buyer Identity, listing string, shares Shares, attached Money, duration time.Duration) MakeOffer {
	return MakeOffer{
		baseOp:   baseOp{Op: OpMakeOffer, Actor: buyer},
		Listing:  listing,
		Shares:   shares,
		Attached: attached,
		Duration: duration,
	}
}

// MarshalJSON implements the json.Marshaler interface for MakeOffer.
func (o MakeOffer) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("id", o.ID)
	w.Append("listing", o.Listing)
	w.Optional("shares", o.Shares)
	w.Append("attached", o.Attached)
	w.Append("duration", o.Duration.String())
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for MakeOffer.
func (o *MakeOffer) UnmarshalJSON(b []byte) error {
	type alias MakeOffer
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
	*o = MakeOffer(temp.alias)
	o.Duration = d
	return nil
}

func (o MakeOffer) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	o.ID = e.stampID(o.ID)

	var err error
	if o.Attached, err = e.normMoney(o.Attached); err != nil {
		return nil, nil, err
	}
	if !o.Attached.IsPositive() {
		return nil, nil, fmt.Errorf("%w: offer value must be positive", ErrValidation)
	}
	if o.Duration <= 0 {
		return nil, nil, fmt.Errorf("%w: offer duration must be positive", ErrValidation)
	}
	l, err := e.resolveListing(o.Listing)
	if err != nil {
		return nil, nil, err
	}
	if !l.live(o.Time) {
		return nil, nil, fmt.Errorf("%w: listing %q is no longer open", ErrNotFoundOrExpired, l.ID)
	}
	if o.Actor == l.Seller {
		return nil, nil, fmt.Errorf("%w: seller cannot bid on own listing", ErrValidation)
	}
	if l.Full {
		o.Shares = S(0)
	} else {
		if !o.Shares.IsPositive() || o.Shares.GreaterThan(l.Shares) {
			return nil, nil, fmt.Errorf("%w: offer for %v shares against a %v share listing", ErrValidation, o.Shares, l.Shares)
		}
	}
	if _, ok := e.offers[o.ID]; ok {
		return nil, nil, fmt.Errorf("%w: offer %q", ErrAlreadyExists, o.ID)
	}

	e.receive(o.Attached) // escrowed until accepted or withdrawn
	e.offers[o.ID] = &Offer{
		ID:        o.ID,
		Listing:   l.ID,
		Buyer:     o.Actor,
		Shares:    o.Shares,
		Value:     o.Attached,
		Status:    OfferActive,
		CreatedAt: o.Time,
		ExpiresAt: o.Time.Add(o.Duration),
	}

	ev := EvOfferMade{
		baseEvent: newEvent("offer-made", o.Time),
		Offer:     o.ID,
		Listing:   l.ID,
		Buyer:     o.Actor,
		Shares:    o.Shares,
		Value:     o.Attached,
		ExpiresAt: o.Time.Add(o.Duration),
	}
	return o, ev, nil
}

// --- Accept offer ---

// AcceptOffer settles a listing against one of its offers at the escrowed
// offer value. Sibling offers on the same listing are left untouched; each
// remaining buyer reclaims escrow with WithdrawOffer.
type AcceptOffer struct {
	baseOp
	Offer string `json:"offer"`
}

// NewAcceptOffer creates an acceptance of an offer by the listing's seller.
func NewAcceptOffer(seller Identity, offer string) AcceptOffer {
	return AcceptOffer{
		baseOp: baseOp{Op: OpAcceptOffer, Actor: seller},
		Offer:  offer,
	}
}

// MarshalJSON implements the json.Marshaler interface for AcceptOffer.
func (o AcceptOffer) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("offer", o.Offer)
	return w.MarshalJSON()
}

func (o AcceptOffer) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	offer, err := e.resolveOffer(o.Offer)
	if err != nil {
		return nil, nil, err
	}
	if !offer.live(o.Time) {
		return nil, nil, fmt.Errorf("%w: offer %q is no longer open", ErrNotFoundOrExpired, offer.ID)
	}
	l, err := e.resolveListing(offer.Listing)
	if err != nil {
		return nil, nil, err
	}
	if l.Seller != o.Actor {
		return nil, nil, fmt.Errorf("%w: only the listing's seller may accept an offer", ErrUnauthorized)
	}
	if !l.live(o.Time) {
		return nil, nil, fmt.Errorf("%w: listing %q is no longer open", ErrNotFoundOrExpired, l.ID)
	}
	if err := e.checkSellerHoldings(l, offer.Shares); err != nil {
		return nil, nil, err
	}

	fee, proceeds := e.settleListing(l, offer.Buyer, offer.Shares, offer.Value, o.Time)
	offer.Status = OfferFulfilled

	ev := EvOfferAccepted{
		baseEvent: newEvent("offer-accepted", o.Time),
		Offer:     offer.ID,
		Listing:   l.ID,
		Property:  l.Property,
		Buyer:     offer.Buyer,
		Seller:    l.Seller,
		Full:      l.Full,
		Shares:    offer.Shares,
		Price:     offer.Value,
		Fee:       fee,
		Proceeds:  proceeds,
	}
	return o, ev, nil
}

// --- Withdraw offer ---

// WithdrawOffer returns an offer's escrowed value in full to its buyer.
// It stays available after the offer expires, and after the listing is
// settled with someone else, so escrow is never stranded.
type WithdrawOffer struct {
	baseOp
	Offer string `json:"offer"`
}

// NewWithdrawOffer creates a withdrawal of an offer by its buyer.
func NewWithdrawOffer(buyer Identity, offer string) WithdrawOffer {
	return WithdrawOffer{
		baseOp: baseOp{Op: OpWithdrawOffer, Actor: buyer},
		Offer:  offer,
	}
}

// MarshalJSON implements the json.Marshaler interface for WithdrawOffer.
func (o WithdrawOffer) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(o.baseOp)
	w.Append("offer", o.Offer)
	return w.MarshalJSON()
}

func (o WithdrawOffer) execute(e *Engine) (Operation, Event, error) {
	if err := o.baseOp.stamp(e); err != nil {
		return nil, nil, err
	}
	offer, err := e.resolveOffer(o.Offer)
	if err != nil {
		return nil, nil, err
	}
	if offer.Buyer != o.Actor {
		return nil, nil, fmt.Errorf("%w: only the offer's buyer may withdraw it", ErrUnauthorized)
	}
	if offer.Status != OfferActive {
		return nil, nil, fmt.Errorf("%w: offer %q is %s", ErrNotFoundOrExpired, offer.ID, offer.Status)
	}

	offer.Status = OfferWithdrawn
	e.queuePay(offer.Buyer, offer.Value, "offer escrow refund")

	ev := EvOfferWithdrawn{
		baseEvent: newEvent("offer-withdrawn", o.Time),
		Offer:     offer.ID,
		Listing:   offer.Listing,
		Buyer:     offer.Buyer,
		Refund:    offer.Value,
	}
	return o, ev, nil
}

// --- Read accessors ---

// Listing returns a copy of the listing record.
func (e *Engine) Listing(id string) (Listing, bool) {
	l, ok := e.listings[id]
	if !ok {
		return Listing{}, false
	}
	return *l, true
}

// Offer returns a copy of the offer record.
func (e *Engine) Offer(id string) (Offer, bool) {
	o, ok := e.offers[id]
	if !ok {
		return Offer{}, false
	}
	return *o, true
}

// ListingsBySeller returns the seller's listings in creation order.
func (e *Engine) ListingsBySeller(seller Identity) []Listing {
	var out []Listing
	for _, l := range e.listings {
		if l.Seller == seller {
			out = append(out, *l)
		}
	}
	sortByCreation(out, func(l Listing) (time.Time, string) { return l.CreatedAt, l.ID })
	return out
}

// OffersByListing returns a listing's offers in creation order.
func (e *Engine) OffersByListing(listingID string) []Offer {
	var out []Offer
	for _, o := range e.offers {
		if o.Listing == listingID {
			out = append(out, *o)
		}
	}
	sortByCreation(out, func(o Offer) (time.Time, string) { return o.CreatedAt, o.ID })
	return out
}

// OffersByBuyer returns the buyer's offers in creation order.
func (e *Engine) OffersByBuyer(buyer Identity) []Offer {
	var out []Offer
	for _, o := range e.offers {
		if o.Buyer == buyer {
			out = append(out, *o)
		}
	}
	sortByCreation(out, func(o Offer) (time.Time, string) { return o.CreatedAt, o.ID })
	return out
}

// sortByCreation orders records by creation time, breaking ties by id so
// reads are stable across runs.
func sortByCreation[T any](s []T, key func(T) (time.Time, string)) {
	slices.SortFunc(s, func(a, b T) int {
		at, aid := key(a)
		bt, bid := key(b)
		if c := at.Compare(bt); c != 0 {
			return c
		}
		return strings.Compare(aid, bid)
	})
}
