package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPromotionFlow(t *testing.T) {
	m, _ := Decode("7k/P7/8/8/8/8/8/K7")
	before := m.Clone()
	moves := append([]LegalMove{mv(0, 0, 1, 0, Standard)}, promotions(6, 0, 7, 0)...)

	match := MatchGesture(Gesture{From: Square{1, 0}, To: Square{0, 0}}, moves)
	if match.Kind != Promotion {
		t.Fatalf("got %v, want Promotion", match.Kind)
	}

	var r Resolver
	if err := r.Begin(match.Candidates); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if r.State() != AwaitingChoice {
		t.Fatalf("state = %v, want AwaitingChoice", r.State())
	}
	if diff := cmp.Diff([]Kind{Knight, Bishop, Rook, Queen}, r.Choices()); diff != "" {
		t.Errorf("Choices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, m); diff != "" {
		t.Fatalf("matrix changed while awaiting a choice (-want +got):\n%s", diff)
	}

	chosen, err := r.Choose(Queen)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if chosen.Class != PromotionQueen {
		t.Errorf("chosen class = %v, want %v", chosen.Class, PromotionQueen)
	}
	if r.State() != Idle {
		t.Errorf("state after choice = %v, want Idle", r.State())
	}

	after := ApplyOptimistic(m, chosen)
	if !after.At(1, 0).Empty() {
		t.Errorf("origin not cleared: %v", after.At(1, 0))
	}
	if got := after.At(0, 0); got != (Piece{Color: White, Kind: Queen}) {
		t.Errorf("destination = %v, want white queen", got)
	}
}

func TestResolverRejectsSecondBegin(t *testing.T) {
	var r Resolver
	first := promotions(6, 0, 7, 0)
	if err := r.Begin(first); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := r.Begin(promotions(6, 1, 7, 1)); !errors.Is(err, ErrPromotionPending) {
		t.Fatalf("second Begin error = %v, want ErrPromotionPending", err)
	}
	pending, ok := r.Pending()
	if !ok || !pending.SameSquares(first[0]) {
		t.Errorf("pending choice changed: %+v", pending)
	}
}

func TestResolverCancel(t *testing.T) {
	var r Resolver
	if err := r.Begin(promotions(1, 3, 0, 3)); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.Cancel()
	if r.State() != Idle {
		t.Fatalf("state = %v, want Idle", r.State())
	}
	if r.Choices() != nil {
		t.Errorf("Choices() = %v while idle", r.Choices())
	}
	if _, err := r.Choose(Queen); !errors.Is(err, ErrNoPendingPromotion) {
		t.Errorf("Choose after cancel = %v, want ErrNoPendingPromotion", err)
	}
}

func TestResolverBeginValidation(t *testing.T) {
	tests := []struct {
		name  string
		cands []LegalMove
	}{
		{"empty", nil},
		{"not promotion", []LegalMove{mv(6, 4, 4, 4, Standard)}},
		{"mixed squares", append(promotions(1, 0, 0, 0)[:2], promotions(1, 1, 0, 1)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Resolver
			if err := r.Begin(tt.cands); err == nil {
				t.Fatal("Begin accepted invalid candidates")
			}
			if r.State() != Idle {
				t.Errorf("state = %v, want Idle", r.State())
			}
		})
	}
}

func TestResolverChooseNotOffered(t *testing.T) {
	var r Resolver
	if err := r.Begin(promotions(1, 0, 0, 0)[3:]); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := r.Choose(Knight); !errors.Is(err, ErrNoMatchingMove) {
		t.Fatalf("Choose(Knight) = %v, want ErrNoMatchingMove", err)
	}
	if r.State() != AwaitingChoice {
		t.Errorf("choice closed after a rejected kind")
	}
}
