package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeStreamArgs(t *testing.T) {
	ff := NewFfmpeg()
	args := ff.probeStreamArgs("/shows/ep01.mkv")
	assert.Contains(t, args, "-show_streams")
	assert.Contains(t, args, "s")
	assert.Equal(t, "/shows/ep01.mkv", args[len(args)-1])
}

func TestExtractStreamArgs_MapsStreamIndex(t *testing.T) {
	ff := NewFfmpeg()
	args := ff.extractStreamArgs("/shows/ep01.mkv", 3, "/tmp/out.srt")

	assert.Contains(t, args, "-map")
	assert.Contains(t, args, "0:3")
	assert.Contains(t, args, "srt")
	assert.Equal(t, "/tmp/out.srt", args[len(args)-1])
}

func TestProbeFormatArgs(t *testing.T) {
	ff := NewFfmpeg()
	args := ff.probeFormatArgs("/shows/ep01.mkv")
	assert.Contains(t, args, "-show_format")
	assert.Equal(t, "/shows/ep01.mkv", args[len(args)-1])
}
