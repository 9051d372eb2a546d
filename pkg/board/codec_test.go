package board

import (
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeStartingPlacement(t *testing.T) {
	m, anomalies := Decode(StartingPlacement)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
	if len(m) != NumRows {
		t.Fatalf("got %d rows, want %d", len(m), NumRows)
	}
	for r, rank := range m {
		if len(rank) != NumCols {
			t.Fatalf("row %d: got %d cells, want %d", r, len(rank), NumCols)
		}
	}

	backRank := []Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for c, k := range backRank {
		if got, want := m[0][c], (Piece{Color: Black, Kind: k}); got != want {
			t.Errorf("row 0 col %d: got %v, want %v", c, got, want)
		}
		if got, want := m[7][c], (Piece{Color: White, Kind: k}); got != want {
			t.Errorf("row 7 col %d: got %v, want %v", c, got, want)
		}
		if got := m[1][c]; got != (Piece{Color: Black, Kind: Pawn}) {
			t.Errorf("row 1 col %d: got %v, want black pawn", c, got)
		}
		if got := m[6][c]; got != (Piece{Color: White, Kind: Pawn}) {
			t.Errorf("row 6 col %d: got %v, want white pawn", c, got)
		}
	}
	for r := 2; r < 6; r++ {
		for c := 0; c < NumCols; c++ {
			if !m[r][c].Empty() {
				t.Errorf("(%d,%d) should be empty, got %v", r, c, m[r][c])
			}
		}
	}
}

func TestDecodePieceCount(t *testing.T) {
	tests := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR",
		"r3k2r/pppq1ppp/2npbn2/2b1p3/2B1P3/2NPBN2/PPPQ1PPP/R3K2R/",
		"8/8/8/8/8/8/8/8",
		"4k3/8/8/8/8/8/8/4K3",
		"7k/P7/8/8/8/8/p7/K7/",
	}
	for _, enc := range tests {
		t.Run(enc, func(t *testing.T) {
			m, anomalies := Decode(enc)
			if len(anomalies) != 0 {
				t.Fatalf("unexpected anomalies: %v", anomalies)
			}
			if len(m) != NumRows {
				t.Fatalf("got %d rows, want %d", len(m), NumRows)
			}
			for r, rank := range m {
				if len(rank) != NumCols {
					t.Errorf("row %d: got %d cells", r, len(rank))
				}
			}
			want := 0
			for _, c := range enc {
				if unicode.IsLetter(c) {
					want++
				}
			}
			if got := m.Count(); got != want {
				t.Errorf("Count() = %d, want %d", got, want)
			}
			if got := Encode(m); got != strings.TrimSuffix(enc, "/") {
				t.Errorf("Encode() = %q, want %q", got, strings.TrimSuffix(enc, "/"))
			}
		})
	}
}

func TestDecodeAnomalies(t *testing.T) {
	m, anomalies := Decode("rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR")
	want := []DecodeAnomaly{{Offset: 13, Char: 'x'}}
	if diff := cmp.Diff(want, anomalies); diff != "" {
		t.Fatalf("anomalies mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(anomalies[0], ErrDecodeAnomaly) {
		t.Errorf("anomaly does not wrap ErrDecodeAnomaly")
	}
	if len(m[1]) != 7 {
		t.Errorf("row with skipped character has %d cells, want 7", len(m[1]))
	}
	if len(m) != NumRows {
		t.Errorf("got %d rows, want %d", len(m), NumRows)
	}
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		rows     int
		lastLen  int
	}{
		{"trailing slash", "8/8/8/8/8/8/8/8/", 8, 8},
		{"no trailing slash", "8/8/8/8/8/8/8/8", 8, 8},
		{"short trailing rank", "8/8/8/8/8/8/8/RN", 8, 2},
		{"missing ranks", "rnbqkbnr/pppppppp", 2, 8},
		{"empty", "", 0, 0},
		{"full record", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, anomalies := Decode(tt.encoding)
			if len(anomalies) != 0 {
				t.Fatalf("unexpected anomalies: %v", anomalies)
			}
			if len(m) != tt.rows {
				t.Fatalf("got %d rows, want %d", len(m), tt.rows)
			}
			if tt.rows > 0 && len(m[tt.rows-1]) != tt.lastLen {
				t.Errorf("last row has %d cells, want %d", len(m[tt.rows-1]), tt.lastLen)
			}
		})
	}
}

func TestMatrixAtOutOfRange(t *testing.T) {
	m, _ := Decode("8/8/8/8/8/8/8/RN")
	for _, sq := range []Square{{-1, 0}, {0, 8}, {8, 0}, {7, 5}} {
		if p := m.At(sq.Row, sq.Col); !p.Empty() {
			t.Errorf("At%v = %v, want empty", sq, p)
		}
	}
	if p := m.At(7, 1); p != (Piece{Color: White, Kind: Knight}) {
		t.Errorf("At(7,1) = %v, want white knight", p)
	}
}

func TestMatrixClone(t *testing.T) {
	m, _ := Decode(StartingPlacement)
	c := m.Clone()
	c[0][0] = NoPiece
	if m[0][0].Empty() {
		t.Fatal("Clone shares storage with the original")
	}
}
