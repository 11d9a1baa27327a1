package availability

import (
	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

// Analyze builds the per-language coverage map for a set of episode profiles.
//
// An episode contributes at most once per language, no matter how many
// duplicate files or streams carry that language. External and embedded
// membership is tracked separately so the source breakdown stays accurate:
// an episode already counted from an external file still has its embedded
// stream recorded in the breakdown without bumping the episode count again.
// Unrecognized codes land in the "unknown" bucket. Existing dual outputs
// never feed single-language counts; they stay on the profile for
// skip-detection.
func Analyze(profiles []catalog.EpisodeSubtitleProfile) map[string]LanguageAvailability {
	type membership struct {
		counted  map[string]bool // episodeID → already counted for language
		external map[string]bool
		embedded map[string]bool
	}

	byLang := make(map[string]*LanguageAvailability)
	seen := make(map[string]*membership)

	ensure := func(lang string) (*LanguageAvailability, *membership) {
		if lang == "" {
			lang = subtitle.LanguageUnknown
		}
		avail, ok := byLang[lang]
		if !ok {
			avail = &LanguageAvailability{Language: lang}
			byLang[lang] = avail
			seen[lang] = &membership{
				counted:  make(map[string]bool),
				external: make(map[string]bool),
				embedded: make(map[string]bool),
			}
		}
		return avail, seen[lang]
	}

	for _, profile := range profiles {
		for _, ext := range profile.External {
			avail, member := ensure(ext.Language)
			if !member.external[profile.EpisodeID] {
				member.external[profile.EpisodeID] = true
				avail.ExternalCount++
			}
			registerEpisode(avail, member.counted, profile)
		}

		for _, emb := range profile.Embedded {
			avail, member := ensure(emb.Language)
			if !member.embedded[profile.EpisodeID] {
				member.embedded[profile.EpisodeID] = true
				avail.EmbeddedCount++
			}
			registerEpisode(avail, member.counted, profile)
		}
	}

	ret := make(map[string]LanguageAvailability, len(byLang))
	for lang, avail := range byLang {
		ret[lang] = *avail
	}
	return ret
}

// registerEpisode counts the episode once per language; first occurrence wins.
func registerEpisode(avail *LanguageAvailability, counted map[string]bool, profile catalog.EpisodeSubtitleProfile) {
	if counted[profile.EpisodeID] {
		return
	}
	counted[profile.EpisodeID] = true
	avail.EpisodeCount++
	avail.EpisodeIDs = append(avail.EpisodeIDs, profile.EpisodeID)
	avail.Profiles = append(avail.Profiles, profile)
}
