package board

import (
	"errors"
	"fmt"
)

var (
	// ErrDecodeAnomaly marks a character the placement decoder could not interpret.
	ErrDecodeAnomaly = errors.New("unrecognised placement character")

	// ErrNoMatchingMove is returned when a gesture is not one of the server's legal moves.
	ErrNoMatchingMove = errors.New("no matching legal move")

	// ErrPromotionPending is returned when a gesture arrives while a promotion choice is open.
	ErrPromotionPending = errors.New("promotion choice pending")

	// ErrNoPendingPromotion is returned when a promotion choice arrives with nothing to resolve.
	ErrNoPendingPromotion = errors.New("no promotion pending")

	// ErrNotPromotion is returned when the resolver is handed something other than promotion candidates.
	ErrNotPromotion = errors.New("not a promotion candidate set")
)

// DecodeAnomaly records one skipped character of a placement encoding.
type DecodeAnomaly struct {
	Offset int  // byte offset in the encoding
	Char   rune // the offending character
}

func (a DecodeAnomaly) Error() string {
	return fmt.Sprintf("offset %d: %q: %v", a.Offset, a.Char, ErrDecodeAnomaly)
}

func (a DecodeAnomaly) Unwrap() error {
	return ErrDecodeAnomaly
}
