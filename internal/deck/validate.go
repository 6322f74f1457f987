package deck

import "fmt"

// Contract bounds for deck contents. Amounts are VND, so the floor is the
// smallest note worth handing out and the ceiling leaves headroom for jokes.
const (
	MinAmount   int64 = 1_000
	MaxAmount   int64 = 5_000_000_000
	MaxQuantity       = 100_000
	MaxItems          = 200
)

// ValidationError reports the first out-of-contract rule in an input.
// It always represents a caller mistake; no state was mutated.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// ValidationErrorf builds a ValidationError; exported for the store's own
// business-rule checks.
func ValidationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func ValidateAmount(amount int64) error {
	if amount < MinAmount || amount > MaxAmount {
		return ValidationErrorf("amount %d out of range [%d, %d]", amount, MinAmount, MaxAmount)
	}
	return nil
}

// ValidateQuantity checks a positive envelope count (deposits, item quantity).
func ValidateQuantity(quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return ValidationErrorf("quantity %d out of range [1, %d]", quantity, MaxQuantity)
	}
	return nil
}

// Validate checks the full deck contract: 1..MaxItems items, unique in-range
// amounts, positive quantity, remaining within [0, quantity].
func (s State) Validate() error {
	if len(s.Deck) == 0 {
		return ValidationErrorf("deck needs at least one denomination")
	}
	if len(s.Deck) > MaxItems {
		return ValidationErrorf("deck has %d denominations, max %d", len(s.Deck), MaxItems)
	}
	seen := make(map[int64]struct{}, len(s.Deck))
	for _, it := range s.Deck {
		if err := ValidateAmount(it.Amount); err != nil {
			return err
		}
		if err := ValidateQuantity(it.Quantity); err != nil {
			return err
		}
		if it.Remaining < 0 || it.Remaining > MaxQuantity {
			return ValidationErrorf("remaining %d out of range [0, %d]", it.Remaining, MaxQuantity)
		}
		if it.Remaining > it.Quantity {
			return ValidationErrorf("amount %d: remaining %d exceeds quantity %d", it.Amount, it.Remaining, it.Quantity)
		}
		if _, dup := seen[it.Amount]; dup {
			return ValidationErrorf("duplicate amount %d", it.Amount)
		}
		seen[it.Amount] = struct{}{}
	}
	return nil
}

// Normalize clamps remaining to quantity and sorts ascending by amount.
// Applied before Validate on save so sloppy admin payloads still round-trip.
func Normalize(s State) State {
	out := s.Sorted()
	for i := range out.Deck {
		if out.Deck[i].Remaining > out.Deck[i].Quantity {
			out.Deck[i].Remaining = out.Deck[i].Quantity
		}
		if out.Deck[i].Remaining < 0 {
			out.Deck[i].Remaining = 0
		}
	}
	return out
}
