package align

import (
	"context"
	"fmt"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

// Config parameterizes the default strategy chain.
type Config struct {
	AlignerCmd     string
	Timeout        time.Duration
	MaxOffset      time.Duration
	FallbackOffset time.Duration
}

// Chain runs strategies in order until one succeeds. The last strategy is a
// total fallback, so the chain as a whole cannot fail.
type Chain struct {
	strategies []Strategy
}

// NewChain builds the default auto-mode chain:
// audio correlation, then pattern matching, then the fixed manual offset.
func NewChain(cfg Config) *Chain {
	return &Chain{
		strategies: []Strategy{
			NewAudioStrategy(cfg.AlignerCmd, cfg.Timeout, cfg.MaxOffset),
			NewPatternStrategy(cfg.MaxOffset),
			NewFixedOffsetStrategy(cfg.FallbackOffset),
		},
	}
}

// NewChainWith builds a chain from explicit strategies, mainly for tests.
func NewChainWith(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Align tries each strategy in order. Failures and timeouts are demoted to
// warnings on the final result; only context cancellation aborts the chain.
func (c *Chain) Align(ctx context.Context, primary, secondary *subtitle.Track, media *catalog.VideoRef) (*Result, error) {
	warnings := make([]string, 0)

	for _, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := strategy.Align(ctx, primary, secondary, media)
		if err != nil {
			log.Warn("Alignment strategy %s failed: %v", strategy.Name(), err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", strategy.Name(), err))
			continue
		}

		result.Warnings = warnings
		return result, nil
	}

	// only reachable with a custom strategy list whose tail can fail
	return nil, fmt.Errorf("all alignment strategies failed: %v", warnings)
}

// Passthrough wraps the secondary track unmodified, for "disable sync" mode.
func Passthrough(secondary *subtitle.Track) *Result {
	return &Result{
		Track:      secondary,
		Strategy:   "none",
		Offset:     0,
		Confidence: 1,
	}
}
