package dualsub

import (
	"fmt"
	"sort"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

// Format selects the output document kind.
type Format string

const (
	FormatASS Format = "ass"
	FormatSRT Format = "srt"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatASS, FormatSRT:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown dual-subtitle format %q", name)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	return "." + string(f)
}

// StyleName tags an event with the track it came from.
type StyleName string

const (
	StylePrimary   StyleName = "Primary"
	StyleSecondary StyleName = "Secondary"
)

// Event is one rendered cue of the merged document.
type Event struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
	Style StyleName     `json:"style"`
	Lang  string        `json:"lang"`
}

// Document is the merged dual-subtitle output. Immutable after Merge.
type Document struct {
	Format    Format        `json:"format"`
	Styling   StylingConfig `json:"styling"`
	Events    []Event       `json:"events"`
	Primary   string        `json:"primary"`
	Secondary string        `json:"secondary"`
}

// Merge combines two independently-timed tracks into one document. Every cue
// of each track becomes exactly one event keeping its own timing window; the
// tracks are never re-bucketed onto a shared timeline. An empty track is
// legal and yields a document carrying only the other track's cues.
func Merge(primary, secondary *subtitle.Track, cfg StylingConfig, format Format) (*Document, error) {
	if primary == nil && secondary == nil {
		return nil, fmt.Errorf("both tracks are nil")
	}
	if format != FormatASS && format != FormatSRT {
		return nil, fmt.Errorf("unknown dual-subtitle format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid styling: %w", err)
	}

	doc := &Document{
		Format:  format,
		Styling: cfg.Resolved(),
		Events:  make([]Event, 0, cueCount(primary)+cueCount(secondary)),
	}
	if primary != nil {
		doc.Primary = primary.Language
		for _, cue := range primary.Cues {
			doc.Events = append(doc.Events, Event{
				Start: cue.Start,
				End:   cue.End,
				Text:  cue.Text,
				Style: StylePrimary,
				Lang:  primary.Language,
			})
		}
	}
	if secondary != nil {
		doc.Secondary = secondary.Language
		for _, cue := range secondary.Cues {
			doc.Events = append(doc.Events, Event{
				Start: cue.Start,
				End:   cue.End,
				Text:  cue.Text,
				Style: StyleSecondary,
				Lang:  secondary.Language,
			})
		}
	}

	// stable sort keeps primary-before-secondary on timestamp ties
	sort.SliceStable(doc.Events, func(i, j int) bool {
		return doc.Events[i].Start < doc.Events[j].Start
	})

	return doc, nil
}

func cueCount(track *subtitle.Track) int {
	if track == nil {
		return 0
	}
	return len(track.Cues)
}

// Render serializes the document in its format.
func (d *Document) Render() (string, error) {
	switch d.Format {
	case FormatASS:
		return d.renderASS(), nil
	case FormatSRT:
		return d.renderSRT(), nil
	default:
		return "", fmt.Errorf("unknown dual-subtitle format %q", d.Format)
	}
}
