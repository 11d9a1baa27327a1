package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/align"
	"github.com/TomMannion/plex-dualsub-manager/internal/availability"
	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
	"github.com/TomMannion/plex-dualsub-manager/internal/jobs"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
	"github.com/TomMannion/plex-dualsub-manager/pkg/file"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

const (
	durationWarnMinor = 5 * time.Second
	durationWarnMajor = 30 * time.Second
)

// runTask processes one episode end to end: resolve sources, load tracks,
// sync, merge, write. Conditions discovered here never move the episode to
// another bucket; they surface as the task's outcome.
func (e *Engine) runTask(ctx context.Context, job *jobs.Job, task jobs.EpisodeTask) jobs.TaskOutcome {
	profile := task.Profile

	// the profile is a snapshot from job creation; check the disk too so a
	// dual written after that (by another job or by hand) is never clobbered
	outPath := dualsub.OutputName(profile.MediaPath, job.Primary, job.Secondary, job.Format)
	if profile.HasDualFor(job.Primary, job.Secondary) || file.Exists(outPath) {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeSkipped,
			Reason: "dual subtitle already exists",
		}
	}

	primarySrc, ok := availability.ResolveSource(profile, job.Primary)
	if !ok {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeSkipped,
			Reason: fmt.Sprintf("no usable %s subtitle source", job.Primary),
		}
	}
	secondarySrc, ok := availability.ResolveSource(profile, job.Secondary)
	if !ok {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeSkipped,
			Reason: fmt.Sprintf("no usable %s subtitle source", job.Secondary),
		}
	}

	tempDir, err := os.MkdirTemp("", "dualsub-task-*")
	if err != nil {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeFailed,
			Reason: fmt.Sprintf("create temp dir: %v", err),
			Fatal:  true,
		}
	}
	defer os.RemoveAll(tempDir)

	primaryTrack, err := e.loadTrack(ctx, profile, primarySrc, tempDir)
	if err != nil {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeFailed,
			Reason: fmt.Sprintf("load %s track: %v", job.Primary, err),
		}
	}
	secondaryTrack, err := e.loadTrack(ctx, profile, secondarySrc, tempDir)
	if err != nil {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeFailed,
			Reason: fmt.Sprintf("load %s track: %v", job.Secondary, err),
		}
	}

	warnings := make([]string, 0)
	var media *catalog.VideoRef
	if ref, err := e.media.Duration(ctx, profile.MediaPath); err != nil {
		log.Warn("Probe failed for %s: %v", profile.MediaPath, err)
		warnings = append(warnings, fmt.Sprintf("media probe failed: %v", err))
	} else {
		media = &ref
		warnings = append(warnings, durationWarnings(primaryTrack, job.Primary, ref.Duration)...)
		warnings = append(warnings, durationWarnings(secondaryTrack, job.Secondary, ref.Duration)...)
	}

	var synced *align.Result
	if job.SyncMode == jobs.SyncNone {
		synced = align.Passthrough(secondaryTrack)
	} else {
		synced, err = e.aligner.Align(ctx, primaryTrack, secondaryTrack, media)
		if err != nil {
			return jobs.TaskOutcome{
				Status: jobs.OutcomeFailed,
				Reason: fmt.Sprintf("sync aborted: %v", err),
			}
		}
	}
	warnings = append(warnings, synced.Warnings...)

	styling := job.Styling.EnhanceForLanguages(job.Primary, job.Secondary)
	doc, err := dualsub.Merge(primaryTrack, synced.Track, styling, job.Format)
	if err != nil {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeFailed,
			Reason: fmt.Sprintf("merge: %v", err),
		}
	}

	if err := doc.WriteFile(outPath); err != nil {
		return jobs.TaskOutcome{
			Status: jobs.OutcomeFailed,
			Reason: fmt.Sprintf("write %s: %v", outPath, err),
		}
	}
	log.Info("Wrote %s (%s, confidence %.2f)", outPath, synced.Strategy, synced.Confidence)

	// the next availability analysis must see the new dual output
	e.library.Invalidate()

	return jobs.TaskOutcome{
		Status:     jobs.OutcomeSuccessful,
		OutputPath: outPath,
		Strategy:   synced.Strategy,
		Confidence: synced.Confidence,
		OffsetMs:   synced.Offset.Milliseconds(),
		Warnings:   warnings,
	}
}

// loadTrack materialises a subtitle source as a parsed track. Embedded
// streams are extracted to the task's temp dir first.
func (e *Engine) loadTrack(ctx context.Context, profile catalog.EpisodeSubtitleProfile, src availability.SourceRef, tempDir string) (*subtitle.Track, error) {
	path := src.Path
	if src.Kind == availability.SourceEmbedded {
		extracted, err := e.media.ExtractStream(ctx, profile.MediaPath, src.StreamIndex, tempDir)
		if err != nil {
			return nil, fmt.Errorf("extract stream %d: %w", src.StreamIndex, err)
		}
		path = extracted
	}
	track, err := e.reader.Read(path)
	if err != nil {
		return nil, err
	}
	if len(track.Cues) == 0 {
		return nil, fmt.Errorf("%s contains no cues", path)
	}
	return track, nil
}

// durationWarnings flags tracks that run well past or stop well short of
// the media. These are advisory only.
func durationWarnings(track *subtitle.Track, lang string, media time.Duration) []string {
	if media <= 0 {
		return nil
	}
	diff := track.Duration() - media
	switch {
	case diff > durationWarnMajor:
		return []string{fmt.Sprintf("%s track runs %s past the media", lang, diff.Round(time.Second))}
	case diff > durationWarnMinor:
		return []string{fmt.Sprintf("%s track slightly exceeds the media duration", lang)}
	case diff < -durationWarnMajor && media-track.Duration() > media/4:
		return []string{fmt.Sprintf("%s track ends %s before the media does", lang, (-diff).Round(time.Second))}
	}
	return nil
}
