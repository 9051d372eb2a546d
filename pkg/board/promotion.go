package board

import "fmt"

type ResolverState int

const (
	Idle ResolverState = iota
	AwaitingChoice
)

func (s ResolverState) String() string {
	if s == AwaitingChoice {
		return "AwaitingChoice"
	}
	return "Idle"
}

// PromotionChoices is the order choices are offered in.
var PromotionChoices = []Kind{Knight, Bishop, Rook, Queen}

// Resolver holds at most one promotion waiting for the player to pick a piece.
// While it waits the board is left at the pre-move position.
type Resolver struct {
	candidates []LegalMove
}

func (r *Resolver) State() ResolverState {
	if len(r.candidates) > 0 {
		return AwaitingChoice
	}
	return Idle
}

// Begin opens a choice over the candidates of a promotion match.
func (r *Resolver) Begin(candidates []LegalMove) error {
	if r.State() == AwaitingChoice {
		return ErrPromotionPending
	}
	if len(candidates) == 0 {
		return ErrNotPromotion
	}
	for _, c := range candidates {
		if !c.Class.IsPromotion() || !c.SameSquares(candidates[0]) {
			return fmt.Errorf("%w: %s", ErrNotPromotion, c.Class)
		}
	}
	r.candidates = append([]LegalMove(nil), candidates...)
	return nil
}

// Choices returns the piece kinds on offer, or nil when idle.
func (r *Resolver) Choices() []Kind {
	if r.State() == Idle {
		return nil
	}
	return append([]Kind(nil), PromotionChoices...)
}

// Pending returns the move squares being promoted on, for highlighting.
func (r *Resolver) Pending() (LegalMove, bool) {
	if r.State() == Idle {
		return LegalMove{}, false
	}
	return r.candidates[0], true
}

// Choose finalises the pending promotion with the given piece and returns to Idle.
// A kind the server did not offer leaves the choice open.
func (r *Resolver) Choose(k Kind) (LegalMove, error) {
	if r.State() == Idle {
		return LegalMove{}, ErrNoPendingPromotion
	}
	want := PromotionClass(k)
	for _, c := range r.candidates {
		if c.Class == want {
			r.candidates = nil
			return c, nil
		}
	}
	return LegalMove{}, fmt.Errorf("%w: %s not offered", ErrNoMatchingMove, k)
}

// Cancel drops the pending choice without finalising anything.
func (r *Resolver) Cancel() {
	r.candidates = nil
}
