package brickfolio

import (
	"errors"
	"testing"
	"time"
)

func TestAdminOps_RequireAdmin(t *testing.T) {
	e := testEngine(t, Config{})

	tests := []struct {
		name string
		op   Operation
	}{
		{"set platform fee", NewSetPlatformFee("mallory", 100)},
		{"set min distribution", NewSetMinDistribution("mallory", USD(10))},
		{"set penalty", NewSetPenalty("mallory", 500)},
		{"add tier", NewAddStakingTier("mallory", StakingTier{MinStake: S(1), MultiplierBps: 10000, Label: "x"})},
		{"transfer admin", NewTransferAdmin("mallory", "mallory")},
		{"emergency withdraw", NewEmergencyWithdraw("mallory", USD(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Submit(tt.op); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("Submit() = %v, want %v", err, ErrUnauthorized)
			}
		})
	}
}

func TestSetPlatformFee(t *testing.T) {
	e := testEngine(t, Config{})

	mustSubmit(t, e, NewSetPlatformFee("admin", 300))
	if got := e.Config().PlatformFeeBps; got != 300 {
		t.Errorf("got platform fee %v, want 300", got)
	}

	if _, err := e.Submit(NewSetPlatformFee("admin", MaxFeeBps+1)); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(fee above cap) = %v, want %v", err, ErrValidation)
	}
}

func TestSetMinDistributionAndPenalty(t *testing.T) {
	e := testEngine(t, Config{})

	mustSubmit(t, e, NewSetMinDistribution("admin", USD(250)))
	if got := e.Config().MinDistribution; !got.Equal(USD(250)) {
		t.Errorf("got minimum distribution %v, want 250", got)
	}
	if _, err := e.Submit(NewSetMinDistribution("admin", USD(-1))); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(negative minimum) = %v, want %v", err, ErrValidation)
	}

	mustSubmit(t, e, NewSetPenalty("admin", 2000))
	if got := e.Config().EarlyPenaltyBps; got != 2000 {
		t.Errorf("got penalty %v, want 2000", got)
	}
	if _, err := e.Submit(NewSetPenalty("admin", 10001)); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(penalty above 100%%) = %v, want %v", err, ErrValidation)
	}
}

func TestAddStakingTier(t *testing.T) {
	e := testEngine(t, Config{})

	tier := StakingTier{MinStake: S(500), Lock: 365 * 24 * time.Hour, MultiplierBps: 20000, Label: "platinum"}
	ev := mustSubmit(t, e, NewAddStakingTier("admin", tier))
	if got := ev.(EvTierAdded).Index; got != 4 {
		t.Errorf("got tier index %d, want 4 (after the defaults)", got)
	}
	if got := len(e.Tiers()); got != 5 {
		t.Errorf("got %d tiers, want 5", got)
	}

	tests := []struct {
		name string
		tier StakingTier
		want error
	}{
		{"duplicate label", tier, ErrAlreadyExists},
		{"missing label", StakingTier{MinStake: S(1), MultiplierBps: 10000}, ErrValidation},
		{"zero minimum", StakingTier{MultiplierBps: 10000, Label: "y"}, ErrValidation},
		{"zero multiplier", StakingTier{MinStake: S(1), Label: "z"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Submit(NewAddStakingTier("admin", tt.tier)); !errors.Is(err, tt.want) {
				t.Errorf("Submit() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransferAdmin(t *testing.T) {
	e := testEngine(t, Config{})

	mustSubmit(t, e, NewTransferAdmin("admin", "root"))
	if got := e.Config().Admin; got != "root" {
		t.Errorf("got admin %q, want root", got)
	}

	// the old admin lost the role
	if _, err := e.Submit(NewSetPlatformFee("admin", 100)); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Submit(by former admin) = %v, want %v", err, ErrUnauthorized)
	}
	mustSubmit(t, e, NewSetPlatformFee("root", 100))

	if _, err := e.Submit(NewTransferAdmin("root", "")); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(transfer to nobody) = %v, want %v", err, ErrValidation)
	}
}

func TestEmergencyWithdraw(t *testing.T) {
	e := testEngine(t, Config{})
	sink := &recordingSink{}
	e.SetPayoutSink(sink)
	id := mintMaple(t, e)

	// fund the engine with a staking budget it holds
	mustSubmit(t, e, NewCreateStakingPool("admin", id, USD(1), 100*time.Second, USD(100)))

	if _, err := e.Submit(NewEmergencyWithdraw("admin", USD(101))); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Submit(withdraw above held) = %v, want %v", err, ErrInsufficientFunds)
	}

	mustSubmit(t, e, NewEmergencyWithdraw("admin", USD(40)))
	if got := sink.total("admin"); !got.Equal(USD(40)) {
		t.Errorf("admin received %v, want 40", got)
	}
	if got := e.Held(); !got.Equal(USD(60)) {
		t.Errorf("engine holds %v, want 60", got)
	}
}

func TestSetPoolActive_Errors(t *testing.T) {
	e := testEngine(t, Config{})
	id := mintMaple(t, e)
	mustSubmit(t, e, NewCreateYieldPool("creator", id))

	if _, err := e.Submit(NewSetPoolActive("admin", id, "escrow", false)); !errors.Is(err, ErrValidation) {
		t.Errorf("Submit(unknown pool kind) = %v, want %v", err, ErrValidation)
	}
	if _, err := e.Submit(NewSetPoolActive("admin", id, "staking", false)); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Errorf("Submit(pause missing staking pool) = %v, want %v", err, ErrNotFoundOrExpired)
	}
	mustSubmit(t, e, NewSetPoolActive("admin", id, "yield", false))
}
