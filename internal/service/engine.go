package service

import (
	"context"
	"fmt"

	"github.com/TomMannion/plex-dualsub-manager/internal/availability"
	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/config"
	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
	"github.com/TomMannion/plex-dualsub-manager/internal/jobs"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"

	"github.com/TomMannion/plex-dualsub-manager/internal/align"
)

// Aligner produces a sync result for a secondary track. The chain
// implementation in internal/align satisfies this.
type Aligner interface {
	Align(ctx context.Context, primary, secondary *subtitle.Track, media *catalog.VideoRef) (*align.Result, error)
}

// Engine ties the library, availability analysis, sync chain and job
// machinery together behind one facade used by the HTTP layer.
type Engine struct {
	cfg          *config.Config
	library      catalog.Service
	media        catalog.MediaResolver
	registry     *jobs.Registry
	orchestrator *jobs.Orchestrator
	aligner      Aligner
	reader       subtitle.Reader
}

func NewEngine(
	cfg *config.Config,
	library catalog.Service,
	media catalog.MediaResolver,
	registry *jobs.Registry,
	aligner Aligner,
) *Engine {
	e := &Engine{
		cfg:      cfg,
		library:  library,
		media:    media,
		registry: registry,
		aligner:  aligner,
		reader:   subtitle.NewReader(),
	}
	e.orchestrator = jobs.NewOrchestrator(registry, e.runTask, cfg.Jobs.TaskTimeout)
	return e
}

// ShowAvailability is the availability report for one show, optionally with
// the four-bucket selection for a requested language pair.
type ShowAvailability struct {
	Show      catalog.Show                                 `json:"show"`
	Languages map[string]availability.LanguageAvailability `json:"languages"`
	Selection *availability.Selection                      `json:"selection,omitempty"`
}

func (e *Engine) Shows(ctx context.Context) ([]catalog.Show, error) {
	return e.library.Shows(ctx)
}

// AnalyzeShow builds the per-language coverage map for a show. When both
// primary and secondary are non-empty it also partitions the episodes for
// that pair.
func (e *Engine) AnalyzeShow(ctx context.Context, showID, primary, secondary string) (*ShowAvailability, error) {
	show, err := e.findShow(ctx, showID)
	if err != nil {
		return nil, err
	}
	profiles, err := e.library.EpisodeProfiles(ctx, showID)
	if err != nil {
		return nil, WrapError(err, ErrUnknown, "load episode profiles").WithContext("show_id", showID)
	}

	ret := &ShowAvailability{
		Show:      show,
		Languages: availability.Analyze(profiles),
	}
	if primary != "" && secondary != "" {
		primary = subtitle.NormalizeCode(primary)
		secondary = subtitle.NormalizeCode(secondary)
		selection := availability.SelectEpisodes(profiles, ret.Languages, primary, secondary)
		ret.Selection = &selection
	}
	return ret, nil
}

// BulkJobRequest describes a bulk dual-subtitle job for one show and
// language pair. Format and Styling fall back to the configured defaults
// when left empty.
type BulkJobRequest struct {
	ShowID    string
	Primary   string
	Secondary string
	SyncMode  jobs.SyncMode
	Format    dualsub.Format
	Styling   *dualsub.StylingConfig
}

// CreateBulkJob validates the request against the show's availability,
// creates a job covering every ready episode and starts it.
func (e *Engine) CreateBulkJob(ctx context.Context, req BulkJobRequest) (*jobs.Job, error) {
	if req.Primary == "" || req.Secondary == "" {
		return nil, NewError(ErrValidation, "primary and secondary languages are required")
	}
	primary := subtitle.NormalizeCode(req.Primary)
	secondary := subtitle.NormalizeCode(req.Secondary)
	if primary == "" || secondary == "" {
		return nil, NewError(ErrValidation, "unrecognized language code").
			WithContext("primary", req.Primary).
			WithContext("secondary", req.Secondary)
	}
	if subtitle.SameLanguage(primary, secondary) {
		return nil, NewError(ErrValidation, "primary and secondary languages must differ").
			WithContext("primary", req.Primary).
			WithContext("secondary", req.Secondary)
	}

	syncMode := req.SyncMode
	if syncMode == "" {
		syncMode = jobs.SyncAuto
	}
	if syncMode != jobs.SyncAuto && syncMode != jobs.SyncNone {
		return nil, NewError(ErrValidation, "unknown sync mode").WithContext("sync_mode", string(syncMode))
	}

	format := req.Format
	if format == "" {
		parsed, err := dualsub.ParseFormat(e.cfg.Styling.OutputFormat)
		if err != nil {
			return nil, WrapError(err, ErrValidation, "configured output format is invalid")
		}
		format = parsed
	}
	styling := e.defaultStyling()
	if req.Styling != nil {
		styling = *req.Styling
	}
	if err := styling.Validate(); err != nil {
		return nil, WrapError(err, ErrValidation, "invalid styling")
	}

	if _, err := e.findShow(ctx, req.ShowID); err != nil {
		return nil, err
	}
	profiles, err := e.library.EpisodeProfiles(ctx, req.ShowID)
	if err != nil {
		return nil, WrapError(err, ErrUnknown, "load episode profiles").WithContext("show_id", req.ShowID)
	}

	avail := availability.Analyze(profiles)
	selection := availability.SelectEpisodes(profiles, avail, primary, secondary)
	if len(selection.Ready) == 0 {
		return nil, NewError(ErrAvailabilityGap, "no episodes carry both languages without an existing dual output").
			WithContext("show_id", req.ShowID).
			WithContext("primary", primary).
			WithContext("secondary", secondary).
			WithContext("already_exists", len(selection.AlreadyExists)).
			WithContext("needs_attention", len(selection.NeedsAttention)).
			WithContext("will_skip", len(selection.WillSkip))
	}

	tasks := make([]jobs.EpisodeTask, 0, len(selection.Ready))
	for _, profile := range selection.Ready {
		tasks = append(tasks, jobs.EpisodeTask{
			EpisodeID: profile.EpisodeID,
			Name:      profile.Name,
			MediaPath: profile.MediaPath,
			Profile:   profile,
		})
	}

	job := e.registry.Create(jobs.CreateRequest{
		ShowID:    req.ShowID,
		Primary:   primary,
		Secondary: secondary,
		SyncMode:  syncMode,
		Format:    format,
		Styling:   styling,
		Tasks:     tasks,
	})
	log.Info("Created bulk job %s for show %s: %d ready, %d existing, %d needs attention, %d skipped",
		job.ID, req.ShowID, len(selection.Ready), len(selection.AlreadyExists), len(selection.NeedsAttention), len(selection.WillSkip))

	// Jobs outlive the request that created them, so the run gets a fresh
	// context. A restart fails whatever was in flight.
	e.orchestrator.Start(context.Background(), job.ID)
	return job, nil
}

func (e *Engine) Job(id string) (*jobs.Job, bool) {
	return e.registry.Get(id)
}

func (e *Engine) Jobs() []*jobs.Job {
	return e.registry.List()
}

func (e *Engine) CancelJob(id string) error {
	return e.registry.Cancel(id)
}

func (e *Engine) JobStats() map[jobs.Status]int {
	return e.registry.Stats()
}

func (e *Engine) findShow(ctx context.Context, showID string) (catalog.Show, error) {
	shows, err := e.library.Shows(ctx)
	if err != nil {
		return catalog.Show{}, WrapError(err, ErrUnknown, "scan library")
	}
	for _, show := range shows {
		if show.ID == showID {
			return show, nil
		}
	}
	return catalog.Show{}, NewError(ErrNotFound, fmt.Sprintf("unknown show %q", showID))
}

func (e *Engine) defaultStyling() dualsub.StylingConfig {
	styling := dualsub.DefaultStyling()
	styling.Primary.Color = e.cfg.Styling.PrimaryColor
	styling.Primary.FontSize = e.cfg.Styling.PrimaryFontSize
	styling.Secondary.Color = e.cfg.Styling.SecondaryColor
	styling.Secondary.FontSize = e.cfg.Styling.SecondaryFontSize
	return styling
}
