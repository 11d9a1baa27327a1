package availability

import "github.com/TomMannion/plex-dualsub-manager/internal/catalog"

// LanguageAvailability summarizes which episodes carry a given language,
// with a per-source-kind breakdown. Built fresh per analysis call.
type LanguageAvailability struct {
	Language      string   `json:"language"`
	EpisodeCount  int      `json:"episode_count"`
	ExternalCount int      `json:"external_count"`
	EmbeddedCount int      `json:"embedded_count"`
	EpisodeIDs    []string `json:"episode_ids"`

	// Profiles are the qualifying episode profiles, in catalog order.
	Profiles []catalog.EpisodeSubtitleProfile `json:"-"`
}

// Contains reports whether the episode is counted under this language.
func (a LanguageAvailability) Contains(episodeID string) bool {
	for _, id := range a.EpisodeIDs {
		if id == episodeID {
			return true
		}
	}
	return false
}

// Selection partitions a show's episodes for one language pair. The four
// buckets are disjoint and together cover every episode exactly once.
type Selection struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Total     int    `json:"total"`

	Ready          []catalog.EpisodeSubtitleProfile `json:"ready"`
	AlreadyExists  []catalog.EpisodeSubtitleProfile `json:"already_exists"`
	NeedsAttention []catalog.EpisodeSubtitleProfile `json:"needs_attention"`
	WillSkip       []catalog.EpisodeSubtitleProfile `json:"will_skip"`
}

// SourceKind says where a resolved subtitle track comes from.
type SourceKind string

const (
	SourceExternal SourceKind = "external"
	SourceEmbedded SourceKind = "embedded"
)

// SourceRef points at the concrete subtitle source chosen for one language
// of one episode.
type SourceRef struct {
	Kind        SourceKind `json:"kind"`
	Language    string     `json:"language"`
	Path        string     `json:"path,omitempty"`
	StreamIndex int        `json:"stream_index,omitempty"`
}

// ResolveSource picks the best subtitle source for lang: the external file
// wins over an embedded stream. Forced tracks never qualify. Returns false
// when neither source kind resolves.
func ResolveSource(profile catalog.EpisodeSubtitleProfile, lang string) (SourceRef, bool) {
	if ext, ok := profile.ExternalFor(lang); ok {
		return SourceRef{Kind: SourceExternal, Language: lang, Path: ext.Path}, true
	}
	if emb, ok := profile.EmbeddedFor(lang); ok {
		return SourceRef{Kind: SourceEmbedded, Language: lang, StreamIndex: emb.StreamIndex}, true
	}
	return SourceRef{}, false
}
