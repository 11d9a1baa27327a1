package availability

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
)

func episodeID(i int) string {
	return fmt.Sprintf("/shows/demo/ep%02d.mkv", i)
}

func TestAnalyze_NoDoubleCountingPerLanguage(t *testing.T) {
	profiles := []catalog.EpisodeSubtitleProfile{
		{
			EpisodeID: episodeID(1),
			External: []catalog.ExternalSubtitle{
				{Path: "ep01.en.srt", Language: "en"},
				{Path: "ep01.english.srt", Language: "en"}, // duplicate file, same language
				{Path: "ep01.ja.srt", Language: "ja"},
			},
			Embedded: []catalog.EmbeddedSubtitle{
				{StreamIndex: 2, Language: "en"},
			},
		},
	}

	avail := Analyze(profiles)

	en := avail["en"]
	assert.Equal(t, 1, en.EpisodeCount, "episode counted once despite three English sources")
	assert.Equal(t, 1, en.ExternalCount)
	assert.Equal(t, 1, en.EmbeddedCount, "embedded breakdown still recorded")

	ja := avail["ja"]
	assert.Equal(t, 1, ja.EpisodeCount)
	assert.Equal(t, 0, ja.EmbeddedCount)
}

func TestAnalyze_UnknownBucket(t *testing.T) {
	profiles := []catalog.EpisodeSubtitleProfile{
		{
			EpisodeID: episodeID(1),
			External:  []catalog.ExternalSubtitle{{Path: "ep01.srt", Language: "unknown"}},
			Embedded:  []catalog.EmbeddedSubtitle{{StreamIndex: 3, Language: ""}},
		},
	}

	avail := Analyze(profiles)
	require.Contains(t, avail, "unknown")
	assert.Equal(t, 1, avail["unknown"].EpisodeCount)
	assert.Equal(t, 1, avail["unknown"].ExternalCount)
	assert.Equal(t, 1, avail["unknown"].EmbeddedCount)
}

func TestAnalyze_DualOutputsDoNotContribute(t *testing.T) {
	profiles := []catalog.EpisodeSubtitleProfile{
		{
			EpisodeID: episodeID(1),
			Duals: []catalog.DualOutput{
				{Path: "ep01.ja.en.dual.ass", Primary: "ja", Secondary: "en"},
			},
		},
	}

	avail := Analyze(profiles)
	assert.Empty(t, avail)
}

func TestAnalyze_EmbeddedOnlyEpisode(t *testing.T) {
	profiles := []catalog.EpisodeSubtitleProfile{
		{
			EpisodeID: episodeID(1),
			Embedded:  []catalog.EmbeddedSubtitle{{StreamIndex: 2, Language: "ja"}},
		},
	}

	avail := Analyze(profiles)
	ja := avail["ja"]
	assert.Equal(t, 1, ja.EpisodeCount)
	assert.Equal(t, 0, ja.ExternalCount)
	assert.Equal(t, 1, ja.EmbeddedCount)
	assert.True(t, ja.Contains(episodeID(1)))
}

// buildScenario models the 24-episode show used across selector tests:
// English in all 24 (20 external, 4 embedded), Japanese in 22 (18 external,
// 4 embedded), 2 of those 22 already carrying an EN+JA dual output.
func buildScenario() []catalog.EpisodeSubtitleProfile {
	profiles := make([]catalog.EpisodeSubtitleProfile, 0, 24)
	for i := 1; i <= 24; i++ {
		profile := catalog.EpisodeSubtitleProfile{EpisodeID: episodeID(i)}

		if i <= 20 {
			profile.External = append(profile.External, catalog.ExternalSubtitle{
				Path: fmt.Sprintf("ep%02d.en.srt", i), Language: "en",
			})
		} else {
			profile.Embedded = append(profile.Embedded, catalog.EmbeddedSubtitle{
				StreamIndex: 2, Language: "en",
			})
		}

		if i <= 18 {
			profile.External = append(profile.External, catalog.ExternalSubtitle{
				Path: fmt.Sprintf("ep%02d.ja.srt", i), Language: "ja",
			})
		} else if i <= 22 {
			profile.Embedded = append(profile.Embedded, catalog.EmbeddedSubtitle{
				StreamIndex: 3, Language: "ja",
			})
		}

		if i <= 2 {
			profile.Duals = append(profile.Duals, catalog.DualOutput{
				Path: fmt.Sprintf("ep%02d.ja.en.dual.ass", i), Primary: "ja", Secondary: "en",
			})
		}

		profiles = append(profiles, profile)
	}
	return profiles
}

func TestAnalyze_Scenario24Episodes(t *testing.T) {
	avail := Analyze(buildScenario())

	en := avail["en"]
	assert.Equal(t, 24, en.EpisodeCount)
	assert.Equal(t, 20, en.ExternalCount)
	assert.Equal(t, 4, en.EmbeddedCount)

	ja := avail["ja"]
	assert.Equal(t, 22, ja.EpisodeCount)
	assert.Equal(t, 18, ja.ExternalCount)
	assert.Equal(t, 4, ja.EmbeddedCount)
}
