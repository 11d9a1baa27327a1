package align

import (
	"context"
	"fmt"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

const fixedOffsetConfidence = 0.3

// FixedOffsetStrategy applies one constant signed shift to every cue of the
// secondary track. It always succeeds, making it the chain's total fallback.
type FixedOffsetStrategy struct {
	offset time.Duration
}

func NewFixedOffsetStrategy(offset time.Duration) *FixedOffsetStrategy {
	return &FixedOffsetStrategy{offset: offset}
}

func (s *FixedOffsetStrategy) Name() string { return "fixed-offset" }

func (s *FixedOffsetStrategy) Align(ctx context.Context, _, secondary *subtitle.Track, _ *catalog.VideoRef) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if secondary == nil {
		return nil, fmt.Errorf("secondary track is nil")
	}

	return &Result{
		Track:      secondary.Shifted(s.offset),
		Strategy:   s.Name(),
		Offset:     s.offset,
		Confidence: fixedOffsetConfidence,
	}, nil
}
