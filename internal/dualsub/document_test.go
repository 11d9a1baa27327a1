package dualsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

func jaTrack() *subtitle.Track {
	return &subtitle.Track{
		Language: "ja",
		Cues: []subtitle.Cue{
			{Start: 1 * time.Second, End: 3 * time.Second, Text: "こんにちは"},
			{Start: 5 * time.Second, End: 7 * time.Second, Text: "元気ですか"},
		},
	}
}

func enTrack() *subtitle.Track {
	return &subtitle.Track{
		Language: "en",
		Cues: []subtitle.Cue{
			{Start: 900 * time.Millisecond, End: 2900 * time.Millisecond, Text: "Hello."},
			{Start: 4800 * time.Millisecond, End: 6800 * time.Millisecond, Text: "How are you?"},
			{Start: 9 * time.Second, End: 10 * time.Second, Text: "Goodbye."},
		},
	}
}

func TestMerge_PreservesAllCues(t *testing.T) {
	doc, err := Merge(jaTrack(), enTrack(), DefaultStyling(), FormatASS)
	require.NoError(t, err)

	// N + M events, each keeping its own timing window
	require.Len(t, doc.Events, 5)
	assert.Equal(t, "ja", doc.Primary)
	assert.Equal(t, "en", doc.Secondary)

	primaries := 0
	for _, event := range doc.Events {
		if event.Style == StylePrimary {
			primaries++
		}
	}
	assert.Equal(t, 2, primaries)

	// sorted by start time
	for i := 1; i < len(doc.Events); i++ {
		assert.LessOrEqual(t, doc.Events[i-1].Start, doc.Events[i].Start)
	}
}

func TestMerge_EmptyTrackIsLegal(t *testing.T) {
	empty := &subtitle.Track{Language: "ja"}

	doc, err := Merge(empty, enTrack(), DefaultStyling(), FormatASS)
	require.NoError(t, err)
	assert.Len(t, doc.Events, 3)
	for _, event := range doc.Events {
		assert.Equal(t, StyleSecondary, event.Style)
	}
}

func TestMerge_RejectsBadInput(t *testing.T) {
	_, err := Merge(nil, nil, DefaultStyling(), FormatASS)
	require.Error(t, err)

	_, err = Merge(jaTrack(), enTrack(), DefaultStyling(), Format("vtt"))
	require.Error(t, err)

	bad := DefaultStyling()
	bad.Primary.Color = "white"
	_, err = Merge(jaTrack(), enTrack(), bad, FormatASS)
	require.Error(t, err)
}

func TestMerge_DoesNotRebucketOverlaps(t *testing.T) {
	overlapping := &subtitle.Track{
		Language: "ja",
		Cues: []subtitle.Cue{
			{Start: 1 * time.Second, End: 4 * time.Second, Text: "a"},
			{Start: 2 * time.Second, End: 3 * time.Second, Text: "b"},
		},
	}

	doc, err := Merge(overlapping, enTrack(), DefaultStyling(), FormatASS)
	require.NoError(t, err)
	require.Len(t, doc.Events, 5)
}

func TestStylingConfig_Resolved_StacksSharedPosition(t *testing.T) {
	cfg := DefaultStyling()
	cfg.Secondary.Position = PositionBottom
	cfg.Secondary.MarginV = cfg.Primary.MarginV

	resolved := cfg.Resolved()
	assert.Greater(t, resolved.Secondary.MarginV, resolved.Primary.MarginV)

	// distinct positions stay untouched
	distinct := DefaultStyling().Resolved()
	assert.Equal(t, DefaultStyling().Secondary.MarginV, distinct.Secondary.MarginV)
}

func TestStylingConfig_EnhanceForLanguages(t *testing.T) {
	cfg := DefaultStyling()
	enhanced := cfg.EnhanceForLanguages("ja", "en")

	assert.Equal(t, cfg.Primary.FontSize+2, enhanced.Primary.FontSize)
	assert.Equal(t, "Noto Sans CJK SC", enhanced.Primary.FontName)
	assert.Equal(t, cfg.Secondary.FontSize, enhanced.Secondary.FontSize)
}

func TestRenderASS(t *testing.T) {
	doc, err := Merge(jaTrack(), enTrack(), DefaultStyling(), FormatASS)
	require.NoError(t, err)

	content, err := doc.Render()
	require.NoError(t, err)

	assert.Contains(t, content, "[Script Info]")
	assert.Contains(t, content, "[V4+ Styles]")
	assert.Contains(t, content, "Style: Primary,Arial,20,&H00FFFFFF")
	assert.Contains(t, content, "Style: Secondary,Arial,18,&H0000FFFF")
	assert.Contains(t, content, "Dialogue: 0,0:00:01.00,0:00:03.00,Primary,,0,0,0,,こんにちは")
	assert.Contains(t, content, "Dialogue: 0,0:00:00.90,0:00:02.90,Secondary,,0,0,0,,Hello.")
}

func TestRenderASS_EscapesNewlines(t *testing.T) {
	track := &subtitle.Track{
		Language: "en",
		Cues:     []subtitle.Cue{{Start: time.Second, End: 2 * time.Second, Text: "line one\nline two"}},
	}
	doc, err := Merge(track, nil, DefaultStyling(), FormatASS)
	require.NoError(t, err)

	content, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, content, "line one\\Nline two")
}

func TestRenderSRT_PrefixesLanguageTags(t *testing.T) {
	doc, err := Merge(jaTrack(), enTrack(), DefaultStyling(), FormatSRT)
	require.NoError(t, err)

	content, err := doc.Render()
	require.NoError(t, err)

	assert.Contains(t, content, "[JA] こんにちは")
	assert.Contains(t, content, "[EN] Hello.")
	assert.Contains(t, content, "00:00:00,900 --> 00:00:02,900")
}

func TestColorToASS(t *testing.T) {
	assert.Equal(t, "&H00FFFFFF", colorToASS("#FFFFFF"))
	assert.Equal(t, "&H0000FFFF", colorToASS("#FFFF00"))
	assert.Equal(t, "&H00FF0000", colorToASS("#0000FF"))
}
