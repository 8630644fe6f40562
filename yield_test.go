package brickfolio

import (
	"errors"
	"testing"
)

// setupYieldTest mints the property, sells 100 shares to A and 300 to B,
// and opens the yield pool. No platform fee unless the config says so.
func setupYieldTest(t *testing.T, cfg Config) (*Engine, *recordingSink, string) {
	t.Helper()
	e := testEngine(t, cfg)
	sink := &recordingSink{}
	e.SetPayoutSink(sink)
	id := mintMaple(t, e)
	mustSubmit(t, e, NewPurchaseShares("A", id, S(100), USD(1000)))
	mustSubmit(t, e, NewPurchaseShares("B", id, S(300), USD(3000)))
	mustSubmit(t, e, NewCreateYieldPool("creator", id))
	return e, sink, id
}

func TestCreateYieldPool(t *testing.T) {
	e := testEngine(t, Config{})
	id := mintMaple(t, e)

	// only the title holder may open the pool
	if _, err := e.Submit(NewCreateYieldPool("A", id)); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Submit(create by stranger) = %v, want %v", err, ErrUnauthorized)
	}
	mustSubmit(t, e, NewCreateYieldPool("creator", id))

	// and only once
	if _, err := e.Submit(NewCreateYieldPool("creator", id)); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Submit(create twice) = %v, want %v", err, ErrAlreadyExists)
	}

	pool, ok := e.YieldPoolState(id)
	if !ok || !pool.Active {
		t.Fatalf("got pool %+v, want an active pool", pool)
	}
}

func TestDepositYield_AutoDistributes(t *testing.T) {
	e, sink, id := setupYieldTest(t, Config{})

	// with a zero threshold every deposit distributes immediately:
	// 400 over 400 issued shares is 1 per share.
	ev := mustSubmit(t, e, NewDepositYield("manager", id, USD(400), "2026-02 rent"))
	if !ev.(EvYieldDeposited).Distributed {
		t.Fatal("deposit above threshold did not distribute")
	}

	if got := e.PendingYield("A", id); !got.Equal(USD(100)) {
		t.Errorf("got %v pending for A, want 100", got)
	}
	if got := e.PendingYield("B", id); !got.Equal(USD(300)) {
		t.Errorf("got %v pending for B, want 300", got)
	}
	// holders are paid on claim, not on distribution
	if got := sink.total("A"); !got.IsZero() {
		t.Errorf("A was paid %v before claiming", got)
	}

	history := e.DistributionHistory(id)
	if len(history) != 1 || !history[0].Amount.Equal(USD(400)) || !history[0].TotalShares.Equal(S(400)) {
		t.Errorf("got history %+v, want one 400 distribution over 400 shares", history)
	}
}

func TestDepositYield_BelowThresholdAccumulates(t *testing.T) {
	e, _, id := setupYieldTest(t, Config{MinDistribution: USD(100)})

	ev := mustSubmit(t, e, NewDepositYield("manager", id, USD(60), "rent"))
	if ev.(EvYieldDeposited).Distributed {
		t.Fatal("deposit below threshold distributed")
	}
	// a second small deposit does not distribute either, even though the
	// aggregate now exceeds the threshold
	ev = mustSubmit(t, e, NewDepositYield("manager", id, USD(60), "rent"))
	if ev.(EvYieldDeposited).Distributed {
		t.Fatal("aggregate crossing the threshold must not auto-distribute")
	}
	if got := e.PendingYield("A", id); !got.IsZero() {
		t.Errorf("got %v pending before any distribution, want 0", got)
	}

	// an explicit distribution releases the 120 accumulated
	mustSubmit(t, e, NewDistributeYield("manager", id))
	if got := e.PendingYield("A", id); !got.Equal(USD(30)) {
		t.Errorf("got %v pending for A, want 30", got)
	}
}

func TestDistributeYield_Errors(t *testing.T) {
	e, _, id := setupYieldTest(t, Config{MinDistribution: USD(100)})

	// nothing undistributed
	if _, err := e.Submit(NewDistributeYield("manager", id)); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(distribute empty pool) = %v, want %v", err, ErrValidation)
	}
	// below the minimum
	mustSubmit(t, e, NewDepositYield("manager", id, USD(60), "rent"))
	if _, err := e.Submit(NewDistributeYield("manager", id)); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(distribute below minimum) = %v, want %v", err, ErrValidation)
	}
	// no pool
	if _, err := e.Submit(NewDistributeYield("manager", "nowhere")); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Errorf("Submit(distribute no pool) = %v, want %v", err, ErrNotFoundOrExpired)
	}
}

func TestDistributeYield_PlatformFee(t *testing.T) {
	e, sink, id := setupYieldTest(t, Config{PlatformFeeBps: 250, FeeRecipient: "treasury"})

	// 400 deposited: fee 2.5% = 10, net 390 over 400 shares
	mustSubmit(t, e, NewDepositYield("manager", id, USD(400), "rent"))

	if got := sink.total("treasury"); !got.Equal(USD(10)) {
		t.Errorf("treasury received %v, want 10", got)
	}
	if got := e.PendingYield("A", id); !got.Equal(USD(97.5)) {
		t.Errorf("got %v pending for A, want 97.50", got)
	}
}

func TestClaimYield(t *testing.T) {
	e, sink, id := setupYieldTest(t, Config{})
	mustSubmit(t, e, NewDepositYield("manager", id, USD(400), "rent"))

	ev := mustSubmit(t, e, NewClaimYield("A", id))
	if got := ev.(EvYieldClaimed).Amount; !got.Equal(USD(100)) {
		t.Errorf("claimed %v, want 100", got)
	}
	if got := sink.total("A"); !got.Equal(USD(100)) {
		t.Errorf("A was paid %v, want 100", got)
	}
	if got := e.PendingYield("A", id); !got.IsZero() {
		t.Errorf("got %v pending after claim, want 0", got)
	}

	// claiming again with nothing pending succeeds and pays zero
	ev = mustSubmit(t, e, NewClaimYield("A", id))
	if got := ev.(EvYieldClaimed).Amount; !got.IsZero() {
		t.Errorf("second claim paid %v, want 0", got)
	}
}

func TestYield_EntitlementFollowsBalanceHistory(t *testing.T) {
	e, _, id := setupYieldTest(t, Config{})

	// first distribution: A holds 100 of 400 issued
	mustSubmit(t, e, NewDepositYield("manager", id, USD(400), "feb"))

	// A sells 50 shares to C, then a second distribution happens
	mustSubmit(t, e, NewTransferShares("A", id, "C", S(50)))
	mustSubmit(t, e, NewDepositYield("manager", id, USD(800), "mar"))

	// A: 100 from feb + 50/400*800 = 100 from mar
	if got := e.PendingYield("A", id); !got.Equal(USD(200)) {
		t.Errorf("got %v pending for A, want 200", got)
	}
	// C: nothing from feb, 100 from mar
	if got := e.PendingYield("C", id); !got.Equal(USD(100)) {
		t.Errorf("got %v pending for C, want 100", got)
	}
	// B: 300 from feb, 600 from mar
	if got := e.PendingYield("B", id); !got.Equal(USD(900)) {
		t.Errorf("got %v pending for B, want 900", got)
	}
}

func TestYield_BuyerAfterDistributionEarnsNothing(t *testing.T) {
	e, _, id := setupYieldTest(t, Config{})
	mustSubmit(t, e, NewDepositYield("manager", id, USD(400), "rent"))

	// D buys in after the distribution
	mustSubmit(t, e, NewPurchaseShares("D", id, S(100), USD(1000)))
	if got := e.PendingYield("D", id); !got.IsZero() {
		t.Errorf("got %v pending for the late buyer, want 0", got)
	}
}

func TestClaimMultiple(t *testing.T) {
	e, sink, id := setupYieldTest(t, Config{})

	// second property with its own pool
	op := NewMintProperty("creator", "7 Oak Ave", "7 Oak Ave, Springfield", "commercial", USD(100_000), S(200), USD(500), 0)
	op.ID = "oak-7"
	mustSubmit(t, e, op)
	mustSubmit(t, e, NewPurchaseShares("A", "oak-7", S(100), USD(50_000)))
	mustSubmit(t, e, NewPurchaseShares("B", "oak-7", S(100), USD(50_000)))
	mustSubmit(t, e, NewCreateYieldPool("creator", "oak-7"))

	mustSubmit(t, e, NewDepositYield("manager", id, USD(400), "rent"))
	mustSubmit(t, e, NewDepositYield("manager", "oak-7", USD(200), "rent"))

	// A is owed 100 on maple-12 and 100 on oak-7
	ev := mustSubmit(t, e, NewClaimMultiple("A", id, "oak-7"))
	if got := ev.(EvYieldClaimed).Amount; !got.Equal(USD(200)) {
		t.Errorf("claimed %v, want 200", got)
	}
	if got := sink.total("A"); !got.Equal(USD(200)) {
		t.Errorf("A was paid %v, want 200", got)
	}

	// nothing left anywhere: the batched claim fails as a whole
	if _, err := e.Submit(NewClaimMultiple("A", id, "oak-7")); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(claim with nothing pending) = %v, want %v", err, ErrValidation)
	}
	// one unknown property fails the whole batch
	if _, err := e.Submit(NewClaimMultiple("B", id, "nowhere")); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Errorf("Submit(claim unknown property) = %v, want %v", err, ErrNotFoundOrExpired)
	}
}

func TestDepositYield_PausedPool(t *testing.T) {
	e, _, id := setupYieldTest(t, Config{})
	mustSubmit(t, e, NewSetPoolActive("admin", id, "yield", false))

	if _, err := e.Submit(NewDepositYield("manager", id, USD(100), "rent")); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(deposit into paused pool) = %v, want %v", err, ErrValidation)
	}

	// claims still work while paused
	mustSubmit(t, e, NewClaimYield("A", id))

	mustSubmit(t, e, NewSetPoolActive("admin", id, "yield", true))
	mustSubmit(t, e, NewDepositYield("manager", id, USD(100), "rent"))
}

func TestYield_DustStaysPending(t *testing.T) {
	e, sink, id := setupYieldTest(t, Config{})

	// one cent over 400 shares gives A (100 shares) a quarter cent:
	// below the currency fraction, so a claim pays nothing and the
	// accrual stays on the books
	mustSubmit(t, e, NewDepositYield("manager", id, USD(0.01), "dust"))

	ev := mustSubmit(t, e, NewClaimYield("A", id))
	if got := ev.(EvYieldClaimed).Amount; !got.IsZero() {
		t.Errorf("claimed %v, want 0", got)
	}
	// the pending accessor reports the payable amount, so the quarter
	// cent shows as zero until it accumulates to a full cent
	if got := e.PendingYield("A", id); !got.IsZero() {
		t.Errorf("got %v payable after the zero claim, want 0", got)
	}

	// three more cents bring A to a payable cent
	for i := 0; i < 3; i++ {
		mustSubmit(t, e, NewDepositYield("manager", id, USD(0.01), "dust"))
	}
	ev = mustSubmit(t, e, NewClaimYield("A", id))
	if got := ev.(EvYieldClaimed).Amount; !got.Equal(USD(0.01)) {
		t.Errorf("claimed %v, want 0.01", got)
	}
	if got := sink.total("A"); !got.Equal(USD(0.01)) {
		t.Errorf("A was paid %v, want 0.01", got)
	}
	if got := e.PendingYield("A", id); !got.IsZero() {
		t.Errorf("got %v pending after full claim, want 0", got)
	}
}
