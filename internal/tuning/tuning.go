// Package tuning loads operational knobs (rate limits, token lifetimes, the
// default seed deck) from a yaml file, falling back to built-in defaults
// when the file is absent.
package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"lixi.vn/internal/deck"
)

type ActionLimit struct {
	Max      int `yaml:"max"`
	WindowMS int `yaml:"window_ms"`
}

func (l ActionLimit) Window() time.Duration {
	return time.Duration(l.WindowMS) * time.Millisecond
}

type SeedItem struct {
	Amount   int64 `yaml:"amount"`
	Quantity int   `yaml:"quantity"`
}

type Tuning struct {
	Draw       ActionLimit `yaml:"draw"`
	Deposit    ActionLimit `yaml:"deposit"`
	AdminLogin ActionLimit `yaml:"admin_login"`
	AdminSave  ActionLimit `yaml:"admin_save"`

	DrawLockTTLHours     int `yaml:"draw_lock_ttl_hours"`
	AdminSessionTTLHours int `yaml:"admin_session_ttl_hours"`

	DefaultDeck []SeedItem `yaml:"default_deck"`
}

func (t Tuning) DrawLockTTL() time.Duration {
	return time.Duration(t.DrawLockTTLHours) * time.Hour
}

func (t Tuning) AdminSessionTTL() time.Duration {
	return time.Duration(t.AdminSessionTTLHours) * time.Hour
}

// SeedState materializes the default deck as a full state (remaining starts
// at quantity).
func (t Tuning) SeedState() deck.State {
	st := deck.State{Deck: make([]deck.Item, 0, len(t.DefaultDeck))}
	for _, it := range t.DefaultDeck {
		st.Deck = append(st.Deck, deck.Item{Amount: it.Amount, Quantity: it.Quantity, Remaining: it.Quantity})
	}
	return st.Sorted()
}

func Defaults() Tuning {
	return Tuning{
		Draw:       ActionLimit{Max: 10, WindowMS: 60_000},
		Deposit:    ActionLimit{Max: 30, WindowMS: 300_000},
		AdminLogin: ActionLimit{Max: 10, WindowMS: 300_000},
		AdminSave:  ActionLimit{Max: 30, WindowMS: 300_000},

		DrawLockTTLHours:     24,
		AdminSessionTTLHours: 12,

		DefaultDeck: []SeedItem{
			{Amount: 10_000, Quantity: 2},
			{Amount: 20_000, Quantity: 3},
			{Amount: 50_000, Quantity: 2},
			{Amount: 100_000, Quantity: 1},
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
