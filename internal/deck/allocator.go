package deck

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrNoTickets is returned when a draw is attempted against zero remaining
// inventory. Callers normally check RemainingTotal first and report
// exhaustion as a result flag, not an error.
var ErrNoTickets = errors.New("no remaining tickets")

// Ticket draws a uniform random integer in [0, total) from crypto/rand.
// rand.Int rejection-samples internally, so the result is unbiased even when
// total does not divide the generator's range.
func Ticket(total int) (int, error) {
	if total <= 0 {
		return 0, ErrNoTickets
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(total)))
	if err != nil {
		return 0, fmt.Errorf("random ticket: %w", err)
	}
	return int(n.Int64()), nil
}

// Pick maps a ticket onto the deck by cumulative remaining count: every
// undrawn envelope is one equally likely ticket. Items are walked in slice
// order, so for a fixed ticket the outcome is deterministic.
func Pick(items []Item, ticket int) (int, error) {
	if ticket < 0 {
		return 0, fmt.Errorf("ticket %d out of range", ticket)
	}
	cursor := 0
	for i, it := range items {
		cursor += it.Remaining
		if ticket < cursor {
			return i, nil
		}
	}
	return 0, fmt.Errorf("ticket %d out of range (total %d)", ticket, cursor)
}
