package align

import (
	"context"
	"errors"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

// ErrStrategyUnavailable means the strategy cannot run in this environment
// or against this input (missing binary, missing media, empty track).
var ErrStrategyUnavailable = errors.New("alignment strategy unavailable")

// ErrStrategyTimeout means the strategy exceeded its time budget.
var ErrStrategyTimeout = errors.New("alignment strategy timed out")

// Result is the outcome of one alignment attempt. Track is the secondary
// track with the derived shift applied; the primary track is never moved.
type Result struct {
	Track      *subtitle.Track `json:"-"`
	Strategy   string          `json:"strategy"`
	Offset     time.Duration   `json:"offset"`
	Confidence float64         `json:"confidence"` // 0..1
	Warnings   []string        `json:"warnings,omitempty"`
}

// Strategy aligns the secondary track against the primary one.
type Strategy interface {
	Name() string
	Align(ctx context.Context, primary, secondary *subtitle.Track, media *catalog.VideoRef) (*Result, error)
}
