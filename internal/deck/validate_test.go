package deck

import (
	"errors"
	"testing"
)

func validDeck() State {
	return State{Deck: []Item{
		{Amount: 10_000, Quantity: 2, Remaining: 2},
		{Amount: 20_000, Quantity: 3, Remaining: 1},
	}}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*State)
		ok     bool
	}{
		{"valid", func(*State) {}, true},
		{"empty deck", func(s *State) { s.Deck = nil }, false},
		{"amount below floor", func(s *State) { s.Deck[0].Amount = 999 }, false},
		{"amount above ceiling", func(s *State) { s.Deck[0].Amount = MaxAmount + 1 }, false},
		{"zero quantity", func(s *State) { s.Deck[0].Quantity = 0 }, false},
		{"quantity above cap", func(s *State) { s.Deck[0].Quantity = MaxQuantity + 1 }, false},
		{"negative remaining", func(s *State) { s.Deck[0].Remaining = -1 }, false},
		{"remaining above quantity", func(s *State) { s.Deck[0].Remaining = 3 }, false},
		{"duplicate amount", func(s *State) { s.Deck[1].Amount = s.Deck[0].Amount }, false},
		{"zero remaining ok", func(s *State) { s.Deck[0].Remaining = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := validDeck()
			tc.mutate(&st)
			err := st.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestValidate_TooManyItems(t *testing.T) {
	st := State{}
	for i := 0; i <= MaxItems; i++ {
		st.Deck = append(st.Deck, Item{Amount: MinAmount + int64(i), Quantity: 1, Remaining: 1})
	}
	if err := st.Validate(); err == nil {
		t.Fatalf("expected error for %d items", len(st.Deck))
	}
}

func TestNormalize_ClampsAndSorts(t *testing.T) {
	st := State{Deck: []Item{
		{Amount: 50_000, Quantity: 2, Remaining: 9},
		{Amount: 10_000, Quantity: 3, Remaining: -1},
	}}
	got := Normalize(st)
	if got.Deck[0].Amount != 10_000 || got.Deck[1].Amount != 50_000 {
		t.Fatalf("not sorted: %+v", got.Deck)
	}
	if got.Deck[0].Remaining != 0 {
		t.Fatalf("negative remaining not clamped: %d", got.Deck[0].Remaining)
	}
	if got.Deck[1].Remaining != 2 {
		t.Fatalf("remaining not clamped to quantity: %d", got.Deck[1].Remaining)
	}
	// Input untouched.
	if st.Deck[0].Remaining != 9 {
		t.Fatalf("Normalize mutated its input")
	}
}

func TestRemainingTotal(t *testing.T) {
	if got := validDeck().RemainingTotal(); got != 3 {
		t.Fatalf("remaining total=%d want 3", got)
	}
	if got := (State{}).RemainingTotal(); got != 0 {
		t.Fatalf("empty deck total=%d want 0", got)
	}
}

func TestPublic_HidesQuantity(t *testing.T) {
	cfg := validDeck().Public()
	if cfg.RemainingTotal != 3 {
		t.Fatalf("remainingTotal=%d want 3", cfg.RemainingTotal)
	}
	if len(cfg.Deck) != 2 {
		t.Fatalf("deck len=%d want 2", len(cfg.Deck))
	}
	if cfg.Deck[0].Amount != 10_000 || cfg.Deck[0].Remaining != 2 {
		t.Fatalf("unexpected public item: %+v", cfg.Deck[0])
	}
}
