package brickfolio

import (
	"errors"
	"testing"
)

func TestMintProperty(t *testing.T) {
	e := testEngine(t, Config{})
	id := mintMaple(t, e)

	prop, ok := e.Property(id)
	if !ok {
		t.Fatalf("Property(%q) not found after mint", id)
	}
	if prop.Creator != "creator" || prop.TitleHolder != "creator" {
		t.Errorf("got creator %q title holder %q, want both creator", prop.Creator, prop.TitleHolder)
	}
	if !prop.Listed {
		t.Error("minted property should be listed for primary sale")
	}
	if !e.IssuedShares(id).IsZero() {
		t.Errorf("got %v issued shares at mint, want 0", e.IssuedShares(id))
	}
	if !e.AvailableShares(id).Equal(S(1000)) {
		t.Errorf("got %v available shares, want 1000", e.AvailableShares(id))
	}
}

func TestMintProperty_GeneratesID(t *testing.T) {
	e := testEngine(t, Config{})
	op := NewMintProperty("creator", "7 Oak Ave", "7 Oak Ave, Springfield", "commercial", USD(100_000), S(100), USD(1000), 0)
	mustSubmit(t, e, op)

	// the id is stamped from the engine's id source
	if _, ok := e.Property("id-1"); !ok {
		t.Error("minted property not reachable under its generated id")
	}

	journal := e.Journal()
	minted := journal[len(journal)-1].(MintProperty)
	if minted.ID != "id-1" {
		t.Errorf("journaled mint has id %q, want the stamped id-1", minted.ID)
	}
}

func TestMintProperty_Errors(t *testing.T) {
	e := testEngine(t, Config{})
	mintMaple(t, e)

	testCases := []struct {
		name string
		op   MintProperty
		want error
	}{
		{
			name: "duplicate id",
			op: func() MintProperty {
				op := NewMintProperty("creator", "dup", "addr", "residential", USD(1), S(1), USD(1), 0)
				op.ID = "maple-12"
				return op
			}(),
			want: ErrAlreadyExists,
		},
		{
			name: "zero supply",
			op:   NewMintProperty("creator", "n", "a", "c", USD(1), S(0), USD(1), 0),
			want: ErrValidation,
		},
		{
			name: "negative value",
			op:   NewMintProperty("creator", "n", "a", "c", USD(-1), S(1), USD(1), 0),
			want: ErrValidation,
		},
		{
			name: "royalty above cap",
			op:   NewMintProperty("creator", "n", "a", "c", USD(1), S(1), USD(1), 1001),
			want: ErrValidation,
		},
		{
			name: "missing name",
			op:   NewMintProperty("creator", "", "a", "c", USD(1), S(1), USD(1), 0),
			want: ErrValidation,
		},
		{
			name: "no actor",
			op:   NewMintProperty(NoIdentity, "n", "a", "c", USD(1), S(1), USD(1), 0),
			want: ErrValidation,
		},
		{
			name: "foreign currency",
			op:   NewMintProperty("creator", "n", "a", "c", M(1, "EUR"), S(1), USD(1), 0),
			want: ErrValidation,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Submit(tc.op); !errors.Is(err, tc.want) {
				t.Errorf("Submit() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPurchaseShares(t *testing.T) {
	e := testEngine(t, Config{})
	sink := &recordingSink{}
	e.SetPayoutSink(sink)
	id := mintMaple(t, e)

	// A buys 100 shares at 10 attaching 1050: cost 1000, royalty 2.5% = 25,
	// title holder gets 975, refund 50.
	ev := mustSubmit(t, e, NewPurchaseShares("A", id, S(100), USD(1050)))

	purchased := ev.(EvSharesPurchased)
	if !purchased.Cost.Equal(USD(1000)) {
		t.Errorf("got cost %v, want 1000", purchased.Cost)
	}
	if !purchased.Royalty.Equal(USD(25)) {
		t.Errorf("got royalty %v, want 25", purchased.Royalty)
	}
	if !purchased.Refund.Equal(USD(50)) {
		t.Errorf("got refund %v, want 50", purchased.Refund)
	}

	if !e.HolderShares(id, "A").Equal(S(100)) {
		t.Errorf("got %v shares for A, want 100", e.HolderShares(id, "A"))
	}
	if !e.IssuedShares(id).Equal(S(100)) {
		t.Errorf("got %v issued, want 100", e.IssuedShares(id))
	}

	// creator is both royalty recipient and title holder here: 25 + 975
	if got := sink.total("creator"); !got.Equal(USD(1000)) {
		t.Errorf("creator received %v, want 1000", got)
	}
	if got := sink.total("A"); !got.Equal(USD(50)) {
		t.Errorf("A received %v refund, want 50", got)
	}
	// attached value fully redistributed, nothing sticks to the engine
	if !e.Held().IsZero() {
		t.Errorf("engine holds %v after primary sale, want 0", e.Held())
	}
}

func TestPurchaseShares_Errors(t *testing.T) {
	e := testEngine(t, Config{})
	id := mintMaple(t, e)
	mustSubmit(t, e, NewPurchaseShares("A", id, S(900), USD(9000)))

	testCases := []struct {
		name string
		op   Operation
		want error
	}{
		{
			name: "underfunded",
			op:   NewPurchaseShares("B", id, S(10), USD(99)),
			want: ErrInsufficientFunds,
		},
		{
			name: "supply exhausted",
			op:   NewPurchaseShares("B", id, S(101), USD(2000)),
			want: ErrInsufficientShares,
		},
		{
			name: "unknown property",
			op:   NewPurchaseShares("B", "nowhere", S(1), USD(10)),
			want: ErrNotFoundOrExpired,
		},
		{
			name: "zero shares",
			op:   NewPurchaseShares("B", id, S(0), USD(10)),
			want: ErrValidation,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Submit(tc.op); !errors.Is(err, tc.want) {
				t.Errorf("Submit() = %v, want %v", err, tc.want)
			}
		})
	}

	// unlisted property rejects primary sales
	mustSubmit(t, e, NewSetListed("creator", id, false))
	if _, err := e.Submit(NewPurchaseShares("B", id, S(1), USD(10))); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit() on unlisted property = %v, want %v", err, ErrValidation)
	}
}

func TestPurchaseShares_FailureLeavesNoTrace(t *testing.T) {
	e := testEngine(t, Config{})
	sink := &recordingSink{}
	e.SetPayoutSink(sink)
	id := mintMaple(t, e)

	before := len(e.Journal())
	if _, err := e.Submit(NewPurchaseShares("B", id, S(10), USD(1))); err == nil {
		t.Fatal("Submit() succeeded, want failure")
	}

	if len(e.Journal()) != before {
		t.Error("failed operation was journaled")
	}
	if len(e.Events()) != before {
		t.Error("failed operation emitted an event")
	}
	if len(sink.payouts) != 0 {
		t.Error("failed operation paid out")
	}
	if !e.HolderShares(id, "B").IsZero() {
		t.Error("failed operation credited shares")
	}
}

func TestTransferShares(t *testing.T) {
	e := testEngine(t, Config{})
	id := mintMaple(t, e)
	mustSubmit(t, e, NewPurchaseShares("A", id, S(100), USD(1000)))

	mustSubmit(t, e, NewTransferShares("A", id, "B", S(40)))

	if !e.HolderShares(id, "A").Equal(S(60)) {
		t.Errorf("got %v for A, want 60", e.HolderShares(id, "A"))
	}
	if !e.HolderShares(id, "B").Equal(S(40)) {
		t.Errorf("got %v for B, want 40", e.HolderShares(id, "B"))
	}
	// issuance is unchanged by transfers
	if !e.IssuedShares(id).Equal(S(100)) {
		t.Errorf("got %v issued, want 100", e.IssuedShares(id))
	}
}

func TestTransferShares_Errors(t *testing.T) {
	e := testEngine(t, Config{})
	id := mintMaple(t, e)
	mustSubmit(t, e, NewPurchaseShares("A", id, S(100), USD(1000)))

	testCases := []struct {
		name string
		op   Operation
		want error
	}{
		{
			name: "more than held",
			op:   NewTransferShares("A", id, "B", S(101)),
			want: ErrInsufficientShares,
		},
		{
			name: "self transfer",
			op:   NewTransferShares("A", id, "A", S(1)),
			want: ErrValidation,
		},
		{
			name: "no recipient",
			op:   NewTransferShares("A", id, NoIdentity, S(1)),
			want: ErrValidation,
		},
		{
			name: "stranger has nothing",
			op:   NewTransferShares("C", id, "B", S(1)),
			want: ErrInsufficientShares,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.Submit(tc.op); !errors.Is(err, tc.want) {
				t.Errorf("Submit() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSetListedAndUpdate(t *testing.T) {
	e := testEngine(t, Config{})
	id := mintMaple(t, e)

	// only the title holder may toggle
	if _, err := e.Submit(NewSetListed("A", id, false)); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Submit(set-listed by stranger) = %v, want %v", err, ErrUnauthorized)
	}
	mustSubmit(t, e, NewSetListed("creator", id, false))
	if prop, _ := e.Property(id); prop.Listed {
		t.Error("property still listed after toggle")
	}

	// only the creator may update value and royalty
	if _, err := e.Submit(NewUpdateProperty("A", id, USD(600_000), 100)); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Submit(update by stranger) = %v, want %v", err, ErrUnauthorized)
	}
	mustSubmit(t, e, NewUpdateProperty("creator", id, USD(600_000), 100))
	prop, _ := e.Property(id)
	if !prop.TotalValue.Equal(USD(600_000)) || prop.RoyaltyBps != 100 {
		t.Errorf("got value %v royalty %v, want 600000 and 100", prop.TotalValue, prop.RoyaltyBps)
	}
	// supply and price stay immutable
	if !prop.ShareSupply.Equal(S(1000)) || !prop.PricePerShare.Equal(USD(10)) {
		t.Errorf("update changed supply %v or price %v", prop.ShareSupply, prop.PricePerShare)
	}
}
