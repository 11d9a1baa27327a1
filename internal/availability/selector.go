package availability

import (
	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

// SelectEpisodes partitions every episode of a show into the four job
// buckets for one language pair:
//
//   - ready: carries both languages and no dual output for the pair yet
//   - already-exists: carries both languages but a dual output covering the
//     same unordered pair is present
//   - needs-attention: carries exactly one of the two languages
//   - will-skip: carries neither language
//
// Source resolution (external vs embedded) happens at execution time, not
// here; an episode that later fails to resolve fails its task instead of
// moving buckets.
func SelectEpisodes(
	profiles []catalog.EpisodeSubtitleProfile,
	avail map[string]LanguageAvailability,
	primary, secondary string,
) Selection {
	primarySet := matchSet(avail, primary)
	secondarySet := matchSet(avail, secondary)

	ret := Selection{
		Primary:        primary,
		Secondary:      secondary,
		Total:          len(profiles),
		Ready:          make([]catalog.EpisodeSubtitleProfile, 0),
		AlreadyExists:  make([]catalog.EpisodeSubtitleProfile, 0),
		NeedsAttention: make([]catalog.EpisodeSubtitleProfile, 0),
		WillSkip:       make([]catalog.EpisodeSubtitleProfile, 0),
	}

	for _, profile := range profiles {
		inPrimary := primarySet[profile.EpisodeID]
		inSecondary := secondarySet[profile.EpisodeID]

		switch {
		case inPrimary && inSecondary:
			if profile.HasDualFor(primary, secondary) {
				ret.AlreadyExists = append(ret.AlreadyExists, profile)
			} else {
				ret.Ready = append(ret.Ready, profile)
			}
		case inPrimary || inSecondary:
			ret.NeedsAttention = append(ret.NeedsAttention, profile)
		default:
			ret.WillSkip = append(ret.WillSkip, profile)
		}
	}

	return ret
}

// matchSet gathers the episode ids of every availability bucket the
// requested language matches; a bare base code like "zh" pulls in both
// "zh-cn" and "zh-tw".
func matchSet(avail map[string]LanguageAvailability, lang string) map[string]bool {
	ret := make(map[string]bool)
	for code, entry := range avail {
		if !subtitle.SameLanguage(code, lang) {
			continue
		}
		for _, id := range entry.EpisodeIDs {
			ret[id] = true
		}
	}
	return ret
}
