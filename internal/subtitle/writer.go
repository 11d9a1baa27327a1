package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

// DefaultWriter is the default subtitle file writer
type DefaultWriter struct{}

// NewWriter creates a new subtitle file writer
func NewWriter() Writer {
	return &DefaultWriter{}
}

// Write writes the track to path in SRT format.
func (w *DefaultWriter) Write(path string, track *Track) error {
	if track == nil {
		return fmt.Errorf("subtitle track is empty")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	for i, cue := range track.Cues {
		// indices are renumbered on write
		fmt.Fprintf(writer, "%d\n", i+1)
		fmt.Fprintf(writer, "%s --> %s\n", FormatSRTTime(cue.Start), FormatSRTTime(cue.End))
		fmt.Fprintf(writer, "%s\n\n", cue.Text)
	}

	return nil
}

// FormatSRTTime formats time.Duration to SRT time format
func FormatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
