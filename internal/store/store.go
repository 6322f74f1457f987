// Package store serializes every read and mutation of the persisted deck
// through a single goroutine: an operation queues in arrival order and
// finishes its full read-modify-write (including the file write) before the
// next one starts. That is the invariant that keeps two in-flight draws from
// decrementing the same stale read.
package store

import (
	"context"
	"errors"
	"log"
	"os"

	"lixi.vn/internal/deck"
	"lixi.vn/internal/persistence/deckfile"
)

// Archiver receives the raw record an admin save is about to overwrite.
type Archiver interface {
	ArchiveReplaced(raw []byte) (string, error)
}

// DrawResult reports one allocation attempt. Exhaustion is a steady state,
// not an error: Amount is only meaningful when Exhausted is false.
type DrawResult struct {
	Exhausted      bool
	Amount         int64
	RemainingTotal int
}

// DepositResult is the outcome of a top-up.
type DepositResult struct {
	Deck           deck.State
	RemainingTotal int
}

type Store struct {
	path string
	seed deck.State
	arch Archiver
	log  *log.Logger

	ops chan func()
}

type Config struct {
	Path     string
	Seed     deck.State
	Archiver Archiver // optional
	Logger   *log.Logger
}

func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[store] ", log.LstdFlags)
	}
	return &Store{
		path: cfg.Path,
		seed: cfg.Seed.Sorted(),
		arch: cfg.Archiver,
		log:  logger,
		ops:  make(chan func(), 64),
	}
}

// Run consumes queued operations until ctx is cancelled. An operation that
// has started always runs to completion; cancellation only stops the intake.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-ctx.Done():
			// Drain what is already queued; a queued operation always runs
			// to completion.
			for {
				select {
				case op := <-s.ops:
					op()
				default:
					return
				}
			}
		}
	}
}

func (s *Store) do(fn func()) {
	done := make(chan struct{})
	s.ops <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// load reads the persisted record, reseeding the default deck when the file
// is missing or corrupt. Only runs on the store goroutine.
func (s *Store) load() (deck.State, error) {
	st, err := deckfile.Load(s.path)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, deckfile.ErrReseedRequired) {
		return deck.State{}, err
	}
	s.log.Printf("deck record unusable, reseeding default: %v", err)
	if werr := deckfile.Write(s.path, s.seed); werr != nil {
		return deck.State{}, werr
	}
	return s.seed.Clone(), nil
}

// GetState returns a sorted copy of the persisted deck, seeding the default
// on first read. Never mutates inventory.
func (s *Store) GetState() (deck.State, error) {
	var (
		st  deck.State
		err error
	)
	s.do(func() {
		st, err = s.load()
		if err == nil {
			st = st.Sorted()
		}
	})
	return st, err
}

// PublicConfig is GetState projected to the caller-visible fields.
func (s *Store) PublicConfig() (deck.PublicConfig, error) {
	st, err := s.GetState()
	if err != nil {
		return deck.PublicConfig{}, err
	}
	return st.Public(), nil
}

// SaveState validates, normalizes and persists a full replacement deck,
// returning the canonical saved state. The replaced record is handed to the
// archiver best-effort; an archive failure never blocks the save.
func (s *Store) SaveState(next deck.State) (deck.State, error) {
	var (
		saved deck.State
		err   error
	)
	s.do(func() {
		canonical := deck.Normalize(next)
		if err = canonical.Validate(); err != nil {
			return
		}
		if s.arch != nil {
			if prev, rerr := os.ReadFile(s.path); rerr == nil {
				if _, aerr := s.arch.ArchiveReplaced(prev); aerr != nil {
					s.log.Printf("archive replaced deck: %v", aerr)
				}
			}
		}
		if err = deckfile.Write(s.path, canonical); err != nil {
			return
		}
		saved = canonical
	})
	return saved, err
}

// AddInventory tops up the item for amount, creating it when absent. Both
// quantity and remaining grow by the deposited count.
func (s *Store) AddInventory(amount int64, quantity int) (DepositResult, error) {
	var (
		res DepositResult
		err error
	)
	s.do(func() {
		if err = deck.ValidateAmount(amount); err != nil {
			return
		}
		if err = deck.ValidateQuantity(quantity); err != nil {
			return
		}
		var st deck.State
		if st, err = s.load(); err != nil {
			return
		}
		found := false
		for i := range st.Deck {
			if st.Deck[i].Amount == amount {
				if st.Deck[i].Quantity+quantity > deck.MaxQuantity {
					err = deck.ValidationErrorf("amount %d: quantity would exceed %d", amount, deck.MaxQuantity)
					return
				}
				st.Deck[i].Quantity += quantity
				st.Deck[i].Remaining += quantity
				found = true
				break
			}
		}
		if !found {
			if len(st.Deck) >= deck.MaxItems {
				err = deck.ValidationErrorf("deck is full (%d denominations)", deck.MaxItems)
				return
			}
			st.Deck = append(st.Deck, deck.Item{Amount: amount, Quantity: quantity, Remaining: quantity})
		}
		st = st.Sorted()
		if err = deckfile.Write(s.path, st); err != nil {
			return
		}
		res = DepositResult{Deck: st, RemainingTotal: st.RemainingTotal()}
	})
	return res, err
}

// Draw allocates one envelope by weighted random pick over remaining counts,
// persists the decrement, and reports the chosen amount and new total.
func (s *Store) Draw() (DrawResult, error) {
	var (
		res DrawResult
		err error
	)
	s.do(func() {
		var st deck.State
		if st, err = s.load(); err != nil {
			return
		}
		st = st.Sorted()
		total := st.RemainingTotal()
		if total <= 0 {
			res = DrawResult{Exhausted: true}
			return
		}
		var ticket, idx int
		if ticket, err = deck.Ticket(total); err != nil {
			return
		}
		if idx, err = deck.Pick(st.Deck, ticket); err != nil {
			return
		}
		st.Deck[idx].Remaining--
		if err = deckfile.Write(s.path, st); err != nil {
			return
		}
		res = DrawResult{Amount: st.Deck[idx].Amount, RemainingTotal: total - 1}
	})
	return res, err
}
