package present

import (
	"fmt"
	"regexp"
)

// Palette holds the colors of the review sheet as #RRGGBB strings.
type Palette struct {
	BandA      string `yaml:"band_a"`
	BandB      string `yaml:"band_b"`
	BandFont   string `yaml:"band_font"`
	Highlight  string `yaml:"highlight"`
	HeaderFill string `yaml:"header_fill"`
	HeaderFont string `yaml:"header_font"`
}

// DefaultPalette is the blue banding with a light red highlight used by the
// finance team's sheets.
func DefaultPalette() Palette {
	return Palette{
		BandA:      "#8DB4E2",
		BandB:      "#DCE6F1",
		BandFont:   "#000000",
		Highlight:  "#FFCDD2",
		HeaderFill: "#538DD5",
		HeaderFont: "#FFFFFF",
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate checks every color is a #RRGGBB value. Colors are checked in
// declaration order.
func (p Palette) Validate() error {
	for _, c := range []struct{ name, value string }{
		{"band_a", p.BandA},
		{"band_b", p.BandB},
		{"band_font", p.BandFont},
		{"highlight", p.Highlight},
		{"header_fill", p.HeaderFill},
		{"header_font", p.HeaderFont},
	} {
		if !hexColor.MatchString(c.value) {
			return fmt.Errorf("palette %s: %q is not a #RRGGBB color", c.name, c.value)
		}
	}
	return nil
}

// WithDefaults fills empty colors from DefaultPalette.
func (p Palette) WithDefaults() Palette {
	d := DefaultPalette()
	if p.BandA == "" {
		p.BandA = d.BandA
	}
	if p.BandB == "" {
		p.BandB = d.BandB
	}
	if p.BandFont == "" {
		p.BandFont = d.BandFont
	}
	if p.Highlight == "" {
		p.Highlight = d.Highlight
	}
	if p.HeaderFill == "" {
		p.HeaderFill = d.HeaderFill
	}
	if p.HeaderFont == "" {
		p.HeaderFont = d.HeaderFont
	}
	return p
}
