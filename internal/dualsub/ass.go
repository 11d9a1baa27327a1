package dualsub

import (
	"fmt"
	"strings"
	"time"
)

// ASS alignment codes (numpad layout): 2 = bottom center, 8 = top center.
func assAlignment(pos Position) int {
	if pos == PositionTop {
		return 8
	}
	return 2
}

const assOutlineColor = "&H00000000"
const assBackColor = "&H80000000"

// renderASS emits an Advanced SubStation Alpha document with the two named
// styles and one Dialogue line per event.
func (d *Document) renderASS() string {
	var b strings.Builder

	b.WriteString("[Script Info]\n")
	b.WriteString("Title: Dual Subtitles\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("PlayResX: 1920\n")
	b.WriteString("PlayResY: 1080\n")
	b.WriteString("\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	b.WriteString(assStyleLine(string(StylePrimary), d.Styling.Primary))
	b.WriteString(assStyleLine(string(StyleSecondary), d.Styling.Secondary))
	b.WriteString("\n")

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, event := range d.Events {
		b.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			formatASSTime(event.Start),
			formatASSTime(event.End),
			event.Style,
			escapeASSText(event.Text)))
	}

	return b.String()
}

func assStyleLine(name string, style TrackStyle) string {
	return fmt.Sprintf("Style: %s,%s,%d,%s,%s,%s,%s,0,0,0,0,100,100,0,0,1,2,1,%d,10,10,%d,1\n",
		name,
		style.FontName,
		style.FontSize,
		colorToASS(style.Color),
		colorToASS(style.Color),
		assOutlineColor,
		assBackColor,
		assAlignment(style.Position),
		style.MarginV)
}

// formatASSTime renders H:MM:SS.cc (centisecond precision).
func formatASSTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	centis := int(d.Milliseconds()) % 1000 / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// escapeASSText converts newlines to ASS soft line breaks.
func escapeASSText(text string) string {
	return strings.ReplaceAll(text, "\n", "\\N")
}
