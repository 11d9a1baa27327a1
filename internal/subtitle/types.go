package subtitle

import "time"

// Reader is the interface for reading subtitle files
type Reader interface {
	Read(path string) (*Track, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, track *Track) error
}

// Cue represents a single timed subtitle line
type Cue struct {
	Index int           `json:"index"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Track represents a parsed subtitle track
type Track struct {
	Cues     []Cue  `json:"cues"`
	Language string `json:"language"` // normalized ISO 639-1 code, or "unknown"
	Format   string `json:"format"`   // e.g. SRT
	Path     string `json:"path"`
}

// Duration returns the end time of the last cue.
func (t *Track) Duration() time.Duration {
	if t == nil || len(t.Cues) == 0 {
		return 0
	}
	return t.Cues[len(t.Cues)-1].End
}

// Shifted returns a copy of the track with every cue moved by offset.
// Timestamps never go below zero.
func (t *Track) Shifted(offset time.Duration) *Track {
	if t == nil {
		return nil
	}
	ret := &Track{
		Cues:     make([]Cue, len(t.Cues)),
		Language: t.Language,
		Format:   t.Format,
		Path:     t.Path,
	}
	for i, cue := range t.Cues {
		start := cue.Start + offset
		end := cue.End + offset
		if start < 0 {
			start = 0
		}
		if end < 0 {
			end = 0
		}
		ret.Cues[i] = Cue{Index: cue.Index, Start: start, End: end, Text: cue.Text}
	}
	return ret
}
