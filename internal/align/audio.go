package align

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

const audioConfidence = 0.95

// AudioStrategy shells out to an ffsubsync-style aligner that correlates the
// subtitle timing against the media file's audio. Highest accuracy, but needs
// the aligner binary, a decodable media reference and a bounded time budget.
type AudioStrategy struct {
	alignerCmd string
	timeout    time.Duration
	maxOffset  time.Duration

	reader subtitle.Reader
	writer subtitle.Writer
}

func NewAudioStrategy(alignerCmd string, timeout, maxOffset time.Duration) *AudioStrategy {
	return &AudioStrategy{
		alignerCmd: alignerCmd,
		timeout:    timeout,
		maxOffset:  maxOffset,
		reader:     subtitle.NewReader(),
		writer:     subtitle.NewWriter(),
	}
}

func (s *AudioStrategy) Name() string { return "audio" }

func (s *AudioStrategy) Align(ctx context.Context, primary, secondary *subtitle.Track, media *catalog.VideoRef) (*Result, error) {
	if secondary == nil || len(secondary.Cues) == 0 {
		return nil, fmt.Errorf("%w: empty secondary track", ErrStrategyUnavailable)
	}
	if media == nil || media.Path == "" {
		return nil, fmt.Errorf("%w: no media reference", ErrStrategyUnavailable)
	}
	if _, err := os.Stat(media.Path); err != nil {
		return nil, fmt.Errorf("%w: media not readable: %v", ErrStrategyUnavailable, err)
	}

	cmdPath, err := exec.LookPath(s.alignerCmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrStrategyUnavailable, s.alignerCmd)
	}

	workDir, err := os.MkdirTemp("", "dualsub-align-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	inPath := secondary.Path
	if inPath == "" {
		inPath = filepath.Join(workDir, "secondary.srt")
		if err := s.writer.Write(inPath, secondary); err != nil {
			return nil, err
		}
	}
	outPath := filepath.Join(workDir, "aligned.srt")

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, cmdPath, media.Path, "-i", inPath, "-o", outPath,
		"--max-offset-seconds", fmt.Sprintf("%.0f", s.maxOffset.Seconds()))
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrStrategyTimeout, s.timeout)
		}
		log.Warn("Audio aligner failed on %s: %v (%s)", media.Path, err, firstLine(output))
		return nil, fmt.Errorf("audio aligner: %w", err)
	}

	aligned, err := s.reader.Read(outPath)
	if err != nil {
		return nil, fmt.Errorf("read aligned output: %w", err)
	}
	if len(aligned.Cues) == 0 {
		return nil, fmt.Errorf("audio aligner produced an empty track")
	}
	aligned.Language = secondary.Language
	aligned.Path = secondary.Path

	offset := aligned.Cues[0].Start - secondary.Cues[0].Start
	if offset > s.maxOffset || offset < -s.maxOffset {
		return nil, fmt.Errorf("audio offset %s exceeds limit %s", offset, s.maxOffset)
	}

	return &Result{
		Track:      aligned,
		Strategy:   s.Name(),
		Offset:     offset,
		Confidence: audioConfidence,
	}, nil
}

func firstLine(output []byte) string {
	for i, b := range output {
		if b == '\n' {
			return string(output[:i])
		}
	}
	return string(output)
}
