package board

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notnil/chess"
)

func TestApplyOptimistic(t *testing.T) {
	tests := []struct {
		name   string
		before string
		move   LegalMove
		after  string
	}{
		{
			name:   "pawn push",
			before: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
			move:   mv(1, 4, 3, 4, Standard),
			after:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
		},
		{
			name:   "capture",
			before: "4k3/8/8/3p4/4P3/8/8/4K3",
			move:   mv(3, 4, 4, 3, Capture),
			after:  "4k3/8/8/3P4/8/8/8/4K3",
		},
		{
			name:   "en passant",
			before: "4k3/8/8/3Pp3/8/8/8/4K3",
			move:   mv(4, 3, 5, 4, EnPassant),
			after:  "4k3/8/4P3/8/8/8/8/4K3",
		},
		{
			name:   "black en passant",
			before: "4k3/8/8/8/3pP3/8/8/4K3",
			move:   mv(3, 3, 2, 4, EnPassant),
			after:  "4k3/8/8/8/8/4p3/8/4K3",
		},
		{
			name:   "white short castle",
			before: "r3k2r/8/8/8/8/8/8/R3K2R",
			move:   mv(0, 4, 0, 6, Castle),
			after:  "r3k2r/8/8/8/8/8/8/R4RK1",
		},
		{
			name:   "black long castle",
			before: "r3k2r/8/8/8/8/8/8/R3K2R",
			move:   mv(7, 4, 7, 2, Castle),
			after:  "2kr3r/8/8/8/8/8/8/R3K2R",
		},
		{
			name:   "promotion to knight",
			before: "7k/8/8/8/8/8/p7/7K",
			move:   mv(1, 0, 0, 0, PromotionKnight),
			after:  "7k/8/8/8/8/8/8/n6K",
		},
		{
			name:   "capturing promotion",
			before: "1r5k/P7/8/8/8/8/8/7K",
			move:   mv(6, 0, 7, 1, PromotionQueen),
			after:  "1Q5k/8/8/8/8/8/8/7K",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := Decode(tt.before)
			got := ApplyOptimistic(m, tt.move)
			if diff := cmp.Diff(tt.after, Encode(got)); diff != "" {
				t.Errorf("ApplyOptimistic mismatch (-want +got):\n%s", diff)
			}
			if Encode(m) != tt.before {
				t.Errorf("input matrix was modified: %s", Encode(m))
			}
		})
	}
}

func TestStoreResetWins(t *testing.T) {
	s, anomalies := NewStore(StartingPlacement)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
	s.Apply(mv(1, 4, 3, 4, Standard))
	s.Apply(mv(6, 3, 4, 3, Standard))
	s.Apply(mv(3, 4, 4, 3, Capture))

	fresh := "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR"
	s.Reset(fresh)
	want, _ := Decode(fresh)
	if diff := cmp.Diff(want, s.Matrix()); diff != "" {
		t.Errorf("Reset did not replace the matrix (-want +got):\n%s", diff)
	}
}

func TestStoreApplyReturnsPrevious(t *testing.T) {
	s, _ := NewStore(StartingPlacement)
	prev := s.Apply(mv(0, 6, 2, 5, Standard))
	start, _ := Decode(StartingPlacement)
	if diff := cmp.Diff(start, prev); diff != "" {
		t.Errorf("previous matrix mismatch (-want +got):\n%s", diff)
	}
	s.Restore(prev)
	if diff := cmp.Diff(start, s.Matrix()); diff != "" {
		t.Errorf("Restore mismatch (-want +got):\n%s", diff)
	}
}

func legalMoveFromChess(m *chess.Move) LegalMove {
	lm := LegalMove{
		StartRow: int(m.S1().Rank()),
		StartCol: int(m.S1().File()),
		EndRow:   int(m.S2().Rank()),
		EndCol:   int(m.S2().File()),
		Class:    Standard,
	}
	switch {
	case m.HasTag(chess.EnPassant):
		lm.Class = EnPassant
	case m.HasTag(chess.KingSideCastle), m.HasTag(chess.QueenSideCastle):
		lm.Class = Castle
	case m.Promo() == chess.Queen:
		lm.Class = PromotionQueen
	case m.Promo() == chess.Rook:
		lm.Class = PromotionRook
	case m.Promo() == chess.Bishop:
		lm.Class = PromotionBishop
	case m.Promo() == chess.Knight:
		lm.Class = PromotionKnight
	case m.HasTag(chess.Capture):
		lm.Class = Capture
	}
	return lm
}

// Optimistic mutation followed by the authoritative reset converges to the decoded position for
// every move of a number of random games.
func TestOptimisticConvergesWithReset(t *testing.T) {
	rng := rand.New(rand.NewSource(1998))
	for game := 0; game < 20; game++ {
		g := chess.NewGame()
		s, _ := NewStore(g.Position().Board().String())
		for ply := 0; ply < 200 && g.Outcome() == chess.NoOutcome; ply++ {
			valid := g.ValidMoves()
			m := valid[rng.Intn(len(valid))]
			s.Apply(legalMoveFromChess(m))
			optimistic := s.Matrix()
			if err := g.Move(m); err != nil {
				t.Fatalf("game %d ply %d: %v", game, ply, err)
			}
			fresh := g.Position().Board().String()
			s.Reset(fresh)
			want, _ := Decode(fresh)
			if diff := cmp.Diff(want, optimistic); diff != "" {
				t.Fatalf("game %d ply %d move %s: optimistic mismatch (-want +got):\n%s", game, ply, m, diff)
			}
			if diff := cmp.Diff(want, s.Matrix()); diff != "" {
				t.Fatalf("game %d ply %d: reset mismatch (-want +got):\n%s", game, ply, diff)
			}
		}
	}
}
