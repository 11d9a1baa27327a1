package align

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

const (
	patternAnchorLimit   = 10
	patternMinConfidence = 0.3
	patternMaxConfidence = 0.8
)

// PatternStrategy derives a linear shift from the cue timing pattern alone,
// no media needed. It pairs the first cues of both tracks as coarse anchors,
// takes the median start-time delta as the offset, and scores confidence by
// how consistent the deltas are.
type PatternStrategy struct {
	maxOffset time.Duration
}

func NewPatternStrategy(maxOffset time.Duration) *PatternStrategy {
	return &PatternStrategy{maxOffset: maxOffset}
}

func (s *PatternStrategy) Name() string { return "pattern" }

func (s *PatternStrategy) Align(ctx context.Context, primary, secondary *subtitle.Track, _ *catalog.VideoRef) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if primary == nil || len(primary.Cues) == 0 || secondary == nil || len(secondary.Cues) == 0 {
		return nil, fmt.Errorf("%w: pattern alignment needs cues on both tracks", ErrStrategyUnavailable)
	}

	anchors := min(patternAnchorLimit, min(len(primary.Cues), len(secondary.Cues)))
	deltas := make([]time.Duration, 0, anchors)
	for i := 0; i < anchors; i++ {
		deltas = append(deltas, primary.Cues[i].Start-secondary.Cues[i].Start)
	}

	offset := medianDuration(deltas)
	if offset > s.maxOffset || offset < -s.maxOffset {
		return nil, fmt.Errorf("pattern offset %s exceeds limit %s", offset, s.maxOffset)
	}

	return &Result{
		Track:      secondary.Shifted(offset),
		Strategy:   s.Name(),
		Offset:     offset,
		Confidence: deltaConfidence(deltas, offset),
	}, nil
}

func medianDuration(values []time.Duration) time.Duration {
	sorted := append([]time.Duration(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// deltaConfidence maps delta spread to [0.3, 0.8]: tight deltas mean the two
// tracks really are one linear shift apart; scattered deltas mean the anchor
// pairing is unreliable.
func deltaConfidence(deltas []time.Duration, median time.Duration) float64 {
	if len(deltas) < 2 {
		return patternMinConfidence
	}

	var sumSquares float64
	for _, delta := range deltas {
		diff := (delta - median).Seconds()
		sumSquares += diff * diff
	}
	stddev := math.Sqrt(sumSquares / float64(len(deltas)))

	conf := patternMaxConfidence - stddev*0.5
	if conf < patternMinConfidence {
		return patternMinConfidence
	}
	if conf > patternMaxConfidence {
		return patternMaxConfidence
	}
	return conf
}
