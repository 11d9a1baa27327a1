package dualsub

import (
	"fmt"
	"strings"

	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

// Position places a style at the top or bottom of the screen.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// TrackStyle is the rendering style for one language track.
type TrackStyle struct {
	FontName string   `json:"font_name"`
	FontSize int      `json:"font_size"`
	Color    string   `json:"color"` // #RRGGBB
	Position Position `json:"position"`
	MarginV  int      `json:"margin_v"`
}

// StylingConfig configures the two named styles of a dual document.
type StylingConfig struct {
	Primary   TrackStyle `json:"primary"`
	Secondary TrackStyle `json:"secondary"`
}

// DefaultStyling returns the standard white-on-bottom, yellow-on-top layout.
func DefaultStyling() StylingConfig {
	return StylingConfig{
		Primary: TrackStyle{
			FontName: "Arial",
			FontSize: 20,
			Color:    "#FFFFFF",
			Position: PositionBottom,
			MarginV:  20,
		},
		Secondary: TrackStyle{
			FontName: "Arial",
			FontSize: 18,
			Color:    "#FFFF00",
			Position: PositionTop,
			MarginV:  20,
		},
	}
}

// stackGap is the extra vertical margin used to separate two styles that
// share a screen position.
const stackGap = 40

// Validate checks color formats and font sizes.
func (c StylingConfig) Validate() error {
	for _, style := range []TrackStyle{c.Primary, c.Secondary} {
		if _, err := parseHexColor(style.Color); err != nil {
			return err
		}
		if style.FontSize <= 0 {
			return fmt.Errorf("font size must be positive, got %d", style.FontSize)
		}
		if style.Position != PositionTop && style.Position != PositionBottom {
			return fmt.Errorf("position must be top or bottom, got %q", style.Position)
		}
	}
	return nil
}

// Resolved returns a copy with the vertical stacking rule applied: when both
// styles share a position, the secondary style gets pushed further from the
// screen edge so the tracks never overlap.
func (c StylingConfig) Resolved() StylingConfig {
	ret := c
	if ret.Primary.Position == ret.Secondary.Position && ret.Secondary.MarginV <= ret.Primary.MarginV {
		ret.Secondary.MarginV = ret.Primary.MarginV + stackGap
	}
	return ret
}

// EnhanceForLanguages bumps font sizes and margins for CJK tracks, which need
// larger glyphs, and switches to a CJK-capable font.
func (c StylingConfig) EnhanceForLanguages(primaryLang, secondaryLang string) StylingConfig {
	ret := c
	if subtitle.IsCJK(primaryLang) {
		ret.Primary = enhanceCJK(ret.Primary)
	}
	if subtitle.IsCJK(secondaryLang) {
		ret.Secondary = enhanceCJK(ret.Secondary)
	}
	return ret
}

func enhanceCJK(style TrackStyle) TrackStyle {
	style.FontSize += 2
	style.MarginV += 5
	style.FontName = "Noto Sans CJK SC"
	return style
}

type rgb struct {
	r, g, b uint8
}

func parseHexColor(color string) (rgb, error) {
	color = strings.TrimPrefix(color, "#")
	if len(color) != 6 {
		return rgb{}, fmt.Errorf("color must be #RRGGBB, got %q", color)
	}
	var ret rgb
	if _, err := fmt.Sscanf(color, "%02x%02x%02x", &ret.r, &ret.g, &ret.b); err != nil {
		return rgb{}, fmt.Errorf("color must be #RRGGBB, got %q", color)
	}
	return ret, nil
}

// colorToASS converts #RRGGBB to the ASS &HBBGGRR little-endian form.
func colorToASS(color string) string {
	c, err := parseHexColor(color)
	if err != nil {
		return "&H00FFFFFF"
	}
	return fmt.Sprintf("&H00%02X%02X%02X", c.b, c.g, c.r)
}
