package brickfolio

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJsonObjectWriter(t *testing.T) {
	stamp := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("ordered fields", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("shares", S(40))
		w.Append("price", USD(487.5))
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"shares":40,"price":487.5}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("embed base fields", func(t *testing.T) {
		var w jsonObjectWriter
		w.EmbedFrom(baseOp{Op: OpMint, Time: stamp, Actor: "alice"})
		w.Append("name", "Maple House")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"op":"mint","time":"2026-03-01T12:00:00Z","actor":"alice","name":"Maple House"}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("embed raw object", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("op", OpPurchaseShares)
		w.Embed(json.RawMessage(`{"property":"maple-12","shares":100}`))
		w.Append("attached", USD(1000))
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"op":"buy-shares","property":"maple-12","shares":100,"attached":1000}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("optional fields", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("royaltyBps", 0) // an explicit zero is still written
		w.Optional("memo", "")
		w.Optional("lock", 0)
		w.Optional("source", "rent")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"royaltyBps":0,"source":"rent"}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
