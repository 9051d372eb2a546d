package gui

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
)

// Terminal safe color palette is available here
// Themes should be limited to the colors defined in this reference
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme is used for dynamically coloring the UI
type Theme struct {
	Name         string      `json:"name"`
	SquareDark   tcell.Color `json:"squareDark"`
	SquareLight  tcell.Color `json:"squareLight"`
	SquareHigh   tcell.Color `json:"squareHigh"`
	SquareCursor tcell.Color `json:"squareCursor"`
	SquarePromo  tcell.Color `json:"squarePromo"`
	White        tcell.Color `json:"white"`
	Black        tcell.Color `json:"black"`
	Rank         tcell.Color `json:"rank"`
	File         tcell.Color `json:"file"`
	Msg          tcell.Color `json:"msg"`
	Status       tcell.Color `json:"status"`
}

// ThemeHex is the on-disk form of a Theme
type ThemeHex struct {
	Name         string `json:"name"`
	SquareDark   string `json:"squareDark"`
	SquareLight  string `json:"squareLight"`
	SquareHigh   string `json:"squareHigh"`
	SquareCursor string `json:"squareCursor"`
	SquarePromo  string `json:"squarePromo"`
	White        string `json:"white"`
	Black        string `json:"black"`
	Rank         string `json:"rank"`
	File         string `json:"file"`
	Msg          string `json:"msg"`
	Status       string `json:"status"`
}

// fmtHex returns a one character hex for the ColorDefault
// and otherwise it returns a standard hex. This is useful
// because it allows ColorDefault to be imported from the config
// and parsed properly rather than being interpreted as black
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

// Hex converts a Theme to a ThemeHex
func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		Name:         t.Name,
		SquareDark:   fmtHex(t.SquareDark.Hex()),
		SquareLight:  fmtHex(t.SquareLight.Hex()),
		SquareHigh:   fmtHex(t.SquareHigh.Hex()),
		SquareCursor: fmtHex(t.SquareCursor.Hex()),
		SquarePromo:  fmtHex(t.SquarePromo.Hex()),
		White:        fmtHex(t.White.Hex()),
		Black:        fmtHex(t.Black.Hex()),
		Rank:         fmtHex(t.Rank.Hex()),
		File:         fmtHex(t.File.Hex()),
		Msg:          fmtHex(t.Msg.Hex()),
		Status:       fmtHex(t.Status.Hex()),
	}
}

// Theme converts a ThemeHex to a Theme
func (t ThemeHex) Theme() Theme {
	return Theme{
		Name:         t.Name,
		SquareDark:   tcell.GetColor(t.SquareDark),
		SquareLight:  tcell.GetColor(t.SquareLight),
		SquareHigh:   tcell.GetColor(t.SquareHigh),
		SquareCursor: tcell.GetColor(t.SquareCursor),
		SquarePromo:  tcell.GetColor(t.SquarePromo),
		White:        tcell.GetColor(t.White),
		Black:        tcell.GetColor(t.Black),
		Rank:         tcell.GetColor(t.Rank),
		File:         tcell.GetColor(t.File),
		Msg:          tcell.GetColor(t.Msg),
		Status:       tcell.GetColor(t.Status),
	}
}

var ErrNoTheme = errors.New("theme: no theme found")

// ImportThemes returns a converted Theme from a slice of ThemeHex
// entities if its name matches the want argument
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	return Theme{}, ErrNoTheme
}

// LoadTheme resolves a theme name. "basic" and "dark" are built in; anything else is looked up in
// the JSON file at path, which holds a list of ThemeHex.
func LoadTheme(want, path string) (Theme, error) {
	for _, t := range []Theme{ThemeBasic, ThemeDark} {
		if t.Name == want {
			return t, nil
		}
	}
	if path == "" {
		return Theme{}, fmt.Errorf("%w: %q", ErrNoTheme, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var themes []ThemeHex
	if err := json.Unmarshal(data, &themes); err != nil {
		return Theme{}, fmt.Errorf("theme file %s: %w", path, err)
	}
	return ImportThemes(want, themes)
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	Name:         "basic",
	SquareDark:   tcell.Color188,
	SquareLight:  tcell.Color230,
	SquareHigh:   tcell.Color226,
	SquareCursor: tcell.Color223,
	SquarePromo:  tcell.Color218,
	White:        tcell.Color232,
	Black:        tcell.Color232,
	Rank:         tcell.Color247,
	File:         tcell.Color247,
	Msg:          tcell.Color160,
	Status:       tcell.ColorDefault,
}

var ThemeDark = Theme{
	Name:         "dark",
	SquareDark:   tcell.Color94,
	SquareLight:  tcell.Color180,
	SquareHigh:   tcell.Color142,
	SquareCursor: tcell.Color67,
	SquarePromo:  tcell.Color168,
	White:        tcell.Color231,
	Black:        tcell.Color16,
	Rank:         tcell.Color245,
	File:         tcell.Color245,
	Msg:          tcell.Color203,
	Status:       tcell.ColorDefault,
}
