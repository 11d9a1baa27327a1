package dualsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputName(t *testing.T) {
	got := OutputName("/shows/Frieren/Season 1/Frieren - S01E01.mkv", "ja", "en", FormatASS)
	assert.Equal(t, "/shows/Frieren/Season 1/Frieren - S01E01.ja.en.dual.ass", got)

	got = OutputName("/shows/ep.mp4", "zh-cn", "en", FormatSRT)
	assert.Equal(t, "/shows/ep.zh-cn.en.dual.srt", got)
}

func TestParseDualName(t *testing.T) {
	primary, secondary, format, ok := ParseDualName("/shows/ep01.ja.en.dual.ass")
	require.True(t, ok)
	assert.Equal(t, "ja", primary)
	assert.Equal(t, "en", secondary)
	assert.Equal(t, FormatASS, format)

	_, _, _, ok = ParseDualName("/shows/ep01.ja.srt")
	assert.False(t, ok)

	_, _, _, ok = ParseDualName("/shows/ep01.ja.en.dual.vtt")
	assert.False(t, ok)

	_, _, _, ok = ParseDualName("/shows/ep01.foo.bar.dual.srt")
	assert.False(t, ok)
}

func TestOutputNameRoundTrips(t *testing.T) {
	path := OutputName("/shows/ep01.mkv", "ja", "en", FormatSRT)
	primary, secondary, format, ok := ParseDualName(path)
	require.True(t, ok)
	assert.Equal(t, "ja", primary)
	assert.Equal(t, "en", secondary)
	assert.Equal(t, FormatSRT, format)
	assert.True(t, IsDualFile(path))
}
