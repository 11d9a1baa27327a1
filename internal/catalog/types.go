package catalog

import (
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

// Show is a series discovered in a media directory.
type Show struct {
	ID           string `json:"id"`
	SourceID     string `json:"source_id"`
	Name         string `json:"name"`
	Path         string `json:"path"`
	EpisodeCount int    `json:"episode_count"`
}

// ExternalSubtitle is a sidecar subtitle file next to the media file.
type ExternalSubtitle struct {
	Path     string `json:"path"`
	Language string `json:"language"` // normalized code or "unknown"
	Forced   bool   `json:"forced"`
	SDH      bool   `json:"sdh"`
}

// EmbeddedSubtitle is a subtitle stream inside the media container.
type EmbeddedSubtitle struct {
	StreamIndex int    `json:"stream_index"`
	Language    string `json:"language"` // normalized code or "unknown"
	Codec       string `json:"codec"`
	Title       string `json:"title,omitempty"`
	Default     bool   `json:"default"`
}

// DualOutput is an already-generated dual-subtitle file and its language pair.
type DualOutput struct {
	Path      string `json:"path"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Format    string `json:"format"` // ass or srt
}

// EpisodeSubtitleProfile captures everything known about one episode's
// subtitle situation: sidecar files, embedded streams and existing dual
// outputs.
type EpisodeSubtitleProfile struct {
	EpisodeID string             `json:"episode_id"`
	ShowID    string             `json:"show_id"`
	Name      string             `json:"name"`
	Season    string             `json:"season"`
	MediaPath string             `json:"media_path"`
	External  []ExternalSubtitle `json:"external"`
	Embedded  []EmbeddedSubtitle `json:"embedded"`
	Duals     []DualOutput       `json:"duals"`
}

// HasDualFor reports whether a dual output already covers the language pair,
// in either order. Matching follows subtitle.SameLanguage, so a bare base
// code covers its variants.
func (p EpisodeSubtitleProfile) HasDualFor(primary, secondary string) bool {
	for _, dual := range p.Duals {
		if (subtitle.SameLanguage(dual.Primary, primary) && subtitle.SameLanguage(dual.Secondary, secondary)) ||
			(subtitle.SameLanguage(dual.Primary, secondary) && subtitle.SameLanguage(dual.Secondary, primary)) {
			return true
		}
	}
	return false
}

// ExternalFor returns the first non-forced external subtitle matching lang.
func (p EpisodeSubtitleProfile) ExternalFor(lang string) (ExternalSubtitle, bool) {
	for _, ext := range p.External {
		if ext.Forced {
			continue
		}
		if subtitle.SameLanguage(ext.Language, lang) {
			return ext, true
		}
	}
	return ExternalSubtitle{}, false
}

// EmbeddedFor returns the first embedded stream matching lang.
func (p EpisodeSubtitleProfile) EmbeddedFor(lang string) (EmbeddedSubtitle, bool) {
	for _, emb := range p.Embedded {
		if subtitle.SameLanguage(emb.Language, lang) {
			return emb, true
		}
	}
	return EmbeddedSubtitle{}, false
}

// VideoRef points at the media file backing an episode, used by alignment
// strategies that need the audio or the container duration.
type VideoRef struct {
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration,omitempty"`
}
