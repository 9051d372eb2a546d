package board

// MatchKind tags the outcome of matching a gesture.
type MatchKind int

const (
	NoMatch MatchKind = iota
	Single
	Promotion
)

func (k MatchKind) String() string {
	switch k {
	case Single:
		return "Single"
	case Promotion:
		return "Promotion"
	default:
		return "NoMatch"
	}
}

// Match is the result of MatchGesture. Kind says which of the other fields is meaningful,
// so a move found at index 0 is never mistaken for a miss.
type Match struct {
	Kind       MatchKind
	Move       LegalMove   // set when Kind == Single
	Candidates []LegalMove // set when Kind == Promotion, in list order
}

func (m Match) Found() bool {
	return m.Kind != NoMatch
}

// MatchGesture looks up the legal move a UI gesture stands for. Both endpoints go through
// ToServer before comparing. A gesture that starts and ends on the same square never matches.
func MatchGesture(g Gesture, moves []LegalMove) Match {
	if g.From == g.To {
		return Match{Kind: NoMatch}
	}
	from, to := g.From.ToServer(), g.To.ToServer()

	for i, mv := range moves {
		if mv.From() != from || mv.To() != to {
			continue
		}
		if !mv.Class.IsPromotion() {
			return Match{Kind: Single, Move: mv}
		}
		var cands []LegalMove
		for _, other := range moves[i:] {
			if other.Class.IsPromotion() && other.SameSquares(mv) {
				cands = append(cands, other)
			}
		}
		return Match{Kind: Promotion, Candidates: cands}
	}
	return Match{Kind: NoMatch}
}
