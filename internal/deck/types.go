package deck

import "sort"

// Item is one denomination bucket: a prize amount, how many envelopes were
// funded at that amount, and how many are still undrawn.
type Item struct {
	Amount    int64 `json:"amount"`
	Quantity  int   `json:"quantity"`
	Remaining int   `json:"remaining"`
}

// State is the full persisted deck record.
type State struct {
	Deck []Item `json:"deck"`
}

// PublicItem is the caller-visible slice of an Item (quantities stay private).
type PublicItem struct {
	Amount    int64 `json:"amount"`
	Remaining int   `json:"remaining"`
}

// PublicConfig is what the draw page gets to see.
type PublicConfig struct {
	Deck           []PublicItem `json:"deck"`
	RemainingTotal int          `json:"remainingTotal"`
}

func (s State) Clone() State {
	out := State{Deck: make([]Item, len(s.Deck))}
	copy(out.Deck, s.Deck)
	return out
}

// Sorted returns a copy in canonical ascending-amount order.
func (s State) Sorted() State {
	out := s.Clone()
	sort.Slice(out.Deck, func(i, j int) bool { return out.Deck[i].Amount < out.Deck[j].Amount })
	return out
}

// RemainingTotal is the externally visible inventory count.
func (s State) RemainingTotal() int {
	total := 0
	for _, it := range s.Deck {
		total += it.Remaining
	}
	return total
}

func (s State) Public() PublicConfig {
	cfg := PublicConfig{Deck: make([]PublicItem, 0, len(s.Deck))}
	for _, it := range s.Deck {
		cfg.Deck = append(cfg.Deck, PublicItem{Amount: it.Amount, Remaining: it.Remaining})
		cfg.RemainingTotal += it.Remaining
	}
	return cfg
}
