package dualsub

import (
	"fmt"
	"strings"

	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

// renderSRT emits the flattened form: every event becomes its own numbered
// entry with a language-tag prefix. Flattened output trades visual stacking
// for maximal player compatibility.
func (d *Document) renderSRT() string {
	var b strings.Builder

	for i, event := range d.Events {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", subtitle.FormatSRTTime(event.Start), subtitle.FormatSRTTime(event.End))
		fmt.Fprintf(&b, "%s\n\n", prefixLines(event.Text, subtitle.PrefixTag(event.Lang)))
	}

	return b.String()
}

// prefixLines tags the first line of a multi-line cue.
func prefixLines(text, tag string) string {
	return tag + " " + text
}
