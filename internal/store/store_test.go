package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"lixi.vn/internal/deck"
	"lixi.vn/internal/persistence/deckfile"
)

func defaultSeed() deck.State {
	return deck.State{Deck: []deck.Item{
		{Amount: 10_000, Quantity: 2, Remaining: 2},
		{Amount: 20_000, Quantity: 1, Remaining: 1},
	}}
}

func newTestStore(t *testing.T, seed deck.State) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.json")
	s := New(Config{Path: path, Seed: seed})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s, path
}

func TestGetState_SeedsDefaultOnFirstRead(t *testing.T) {
	s, path := newTestStore(t, defaultSeed())

	st, err := s.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if got := st.RemainingTotal(); got != 3 {
		t.Fatalf("remaining total=%d want 3", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected seeded record on disk: %v", err)
	}
}

func TestGetState_ReseedsCorruptRecord(t *testing.T) {
	s, path := newTestStore(t, defaultSeed())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	st, err := s.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if got := st.RemainingTotal(); got != 3 {
		t.Fatalf("remaining total=%d want 3 after reseed", got)
	}
	if _, err := deckfile.Load(path); err != nil {
		t.Fatalf("reseeded record should load cleanly: %v", err)
	}
}

func TestDraw_DecrementsExactlyOne(t *testing.T) {
	s, _ := newTestStore(t, defaultSeed())

	before, err := s.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	res, err := s.Draw()
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if res.Exhausted {
		t.Fatalf("unexpected exhaustion")
	}
	if res.RemainingTotal != before.RemainingTotal()-1 {
		t.Fatalf("remaining total=%d want %d", res.RemainingTotal, before.RemainingTotal()-1)
	}

	after, err := s.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	decremented := 0
	for i := range before.Deck {
		diff := before.Deck[i].Remaining - after.Deck[i].Remaining
		switch diff {
		case 0:
		case 1:
			decremented++
			if before.Deck[i].Amount != res.Amount {
				t.Fatalf("decremented amount %d but drew %d", before.Deck[i].Amount, res.Amount)
			}
			if before.Deck[i].Remaining == 0 {
				t.Fatalf("drew from an empty item")
			}
		default:
			t.Fatalf("item %d changed by %d", i, diff)
		}
	}
	if decremented != 1 {
		t.Fatalf("%d items decremented, want 1", decremented)
	}
}

func TestDraw_ExhaustedNeverMutates(t *testing.T) {
	empty := deck.State{Deck: []deck.Item{{Amount: 10_000, Quantity: 2, Remaining: 0}}}
	s, path := newTestStore(t, empty)

	if _, err := s.GetState(); err != nil {
		t.Fatalf("get state: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	res, err := s.Draw()
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if !res.Exhausted {
		t.Fatalf("expected exhaustion")
	}
	if res.RemainingTotal != 0 {
		t.Fatalf("remaining total=%d want 0", res.RemainingTotal)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("exhausted draw mutated the record")
	}
}

func TestDraw_ConcurrentNoDoubleAllocation(t *testing.T) {
	s, _ := newTestStore(t, defaultSeed())
	const workers = 10 // deck holds 3

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		exhausted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Draw()
			if err != nil {
				t.Errorf("draw: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Exhausted {
				exhausted++
			} else {
				wins++
			}
		}()
	}
	wg.Wait()

	if wins != 3 || exhausted != workers-3 {
		t.Fatalf("wins=%d exhausted=%d, want 3 and %d", wins, exhausted, workers-3)
	}
	st, err := s.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if got := st.RemainingTotal(); got != 0 {
		t.Fatalf("final remaining total=%d want 0", got)
	}
}

func TestSaveState_CanonicalRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, defaultSeed())

	next := deck.State{Deck: []deck.Item{
		{Amount: 50_000, Quantity: 2, Remaining: 7}, // clamped to 2
		{Amount: 5_000, Quantity: 1, Remaining: 1},
	}}
	saved, err := s.SaveState(next)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Deck[0].Amount != 5_000 || saved.Deck[1].Amount != 50_000 {
		t.Fatalf("not canonically sorted: %+v", saved.Deck)
	}
	if saved.Deck[1].Remaining != 2 {
		t.Fatalf("remaining not clamped: %d", saved.Deck[1].Remaining)
	}

	got, err := s.GetState()
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	for i := range saved.Deck {
		if got.Deck[i] != saved.Deck[i] {
			t.Fatalf("round trip mismatch at %d: got=%+v want=%+v", i, got.Deck[i], saved.Deck[i])
		}
	}
}

func TestSaveState_RejectsInvalidWithoutMutation(t *testing.T) {
	s, path := newTestStore(t, defaultSeed())
	if _, err := s.GetState(); err != nil {
		t.Fatalf("get state: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	_, err = s.SaveState(deck.State{Deck: []deck.Item{
		{Amount: 10_000, Quantity: 1, Remaining: 1},
		{Amount: 10_000, Quantity: 2, Remaining: 2},
	}})
	var verr *deck.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want *ValidationError, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("failed save mutated the record")
	}
}

func TestAddInventory_AppendsThenMerges(t *testing.T) {
	s, _ := newTestStore(t, defaultSeed())

	res, err := s.AddInventory(50_000, 3)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	found := false
	for _, it := range res.Deck.Deck {
		if it.Amount == 50_000 {
			found = true
			if it.Quantity != 3 || it.Remaining != 3 {
				t.Fatalf("new item %+v, want quantity=3 remaining=3", it)
			}
		}
	}
	if !found {
		t.Fatalf("deposited amount missing from deck")
	}

	res, err = s.AddInventory(50_000, 2)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	for _, it := range res.Deck.Deck {
		if it.Amount == 50_000 {
			if it.Quantity != 5 || it.Remaining != 5 {
				t.Fatalf("merged item %+v, want quantity=5 remaining=5", it)
			}
		}
	}
	if res.RemainingTotal != 3+5 {
		t.Fatalf("remaining total=%d want 8", res.RemainingTotal)
	}
}

func TestAddInventory_Validation(t *testing.T) {
	s, _ := newTestStore(t, defaultSeed())

	var verr *deck.ValidationError
	if _, err := s.AddInventory(999, 1); !errors.As(err, &verr) {
		t.Fatalf("want validation error for low amount, got %v", err)
	}
	if _, err := s.AddInventory(10_000, 0); !errors.As(err, &verr) {
		t.Fatalf("want validation error for zero quantity, got %v", err)
	}
	if _, err := s.AddInventory(10_000, deck.MaxQuantity); !errors.As(err, &verr) {
		t.Fatalf("want validation error for quantity overflow, got %v", err)
	}
}

type recordingArchiver struct {
	mu   sync.Mutex
	raws [][]byte
}

func (r *recordingArchiver) ArchiveReplaced(raw []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raws = append(r.raws, append([]byte(nil), raw...))
	return "entry", nil
}

func TestSaveState_ArchivesReplacedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.json")
	arch := &recordingArchiver{}
	s := New(Config{Path: path, Seed: defaultSeed(), Archiver: arch})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)

	// Seed the record, then replace it.
	if _, err := s.GetState(); err != nil {
		t.Fatalf("get state: %v", err)
	}
	if _, err := s.SaveState(defaultSeed()); err != nil {
		t.Fatalf("save: %v", err)
	}

	arch.mu.Lock()
	defer arch.mu.Unlock()
	if len(arch.raws) != 1 {
		t.Fatalf("archived %d records, want 1", len(arch.raws))
	}
	if _, err := deckfile.Decode(arch.raws[0]); err != nil {
		t.Fatalf("archived record should decode: %v", err)
	}
}
