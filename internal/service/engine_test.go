package service

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomMannion/plex-dualsub-manager/internal/align"
	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/config"
	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
	"github.com/TomMannion/plex-dualsub-manager/internal/jobs"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
)

type fakeLibrary struct {
	shows       []catalog.Show
	profiles    map[string][]catalog.EpisodeSubtitleProfile
	invalidated atomic.Int32
}

func (l *fakeLibrary) Shows(context.Context) ([]catalog.Show, error) {
	return l.shows, nil
}

func (l *fakeLibrary) EpisodeProfiles(_ context.Context, showID string) ([]catalog.EpisodeSubtitleProfile, error) {
	return l.profiles[showID], nil
}

func (l *fakeLibrary) Invalidate() {
	l.invalidated.Add(1)
}

type fakeResolver struct {
	duration time.Duration
}

func (r *fakeResolver) ProbeSubtitleStreams(context.Context, string) ([]catalog.EmbeddedSubtitle, error) {
	return nil, nil
}

func (r *fakeResolver) ExtractStream(_ context.Context, _ string, _ int, toDir string) (string, error) {
	out := filepath.Join(toDir, "extracted.srt")
	return out, os.WriteFile(out, []byte(sampleSRT("embedded line")), 0o644)
}

func (r *fakeResolver) Duration(_ context.Context, mediaPath string) (catalog.VideoRef, error) {
	return catalog.VideoRef{Path: mediaPath, Duration: r.duration}, nil
}

func sampleSRT(text string) string {
	return "1\n00:00:01,000 --> 00:00:03,000\n" + text + "\n\n2\n00:00:05,000 --> 00:00:07,000\nsecond line\n"
}

// buildFixture lays one show with two episodes on disk: e01 carries both
// languages externally, e02 carries only the primary.
func buildFixture(t *testing.T) (*fakeLibrary, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e01.ja.srt"), []byte(sampleSRT("こんにちは")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e01.en.srt"), []byte(sampleSRT("hello")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e02.ja.srt"), []byte(sampleSRT("さようなら")), 0o644))

	lib := &fakeLibrary{
		shows: []catalog.Show{{ID: "show-1", Name: "Demo", Path: dir, EpisodeCount: 2}},
		profiles: map[string][]catalog.EpisodeSubtitleProfile{
			"show-1": {
				{
					EpisodeID: "ep-1",
					ShowID:    "show-1",
					Name:      "E01",
					MediaPath: filepath.Join(dir, "e01.mkv"),
					External: []catalog.ExternalSubtitle{
						{Path: filepath.Join(dir, "e01.ja.srt"), Language: "ja"},
						{Path: filepath.Join(dir, "e01.en.srt"), Language: "en"},
					},
				},
				{
					EpisodeID: "ep-2",
					ShowID:    "show-1",
					Name:      "E02",
					MediaPath: filepath.Join(dir, "e02.mkv"),
					External: []catalog.ExternalSubtitle{
						{Path: filepath.Join(dir, "e02.ja.srt"), Language: "ja"},
					},
				},
			},
		},
	}
	return lib, dir
}

func newTestEngine(t *testing.T, lib *fakeLibrary) *Engine {
	t.Helper()
	t.Setenv("SHOW_DIR", t.TempDir())
	cfg, err := config.NewFromEnv()
	require.NoError(t, err)
	registry := jobs.NewRegistry(nil)
	chain := align.NewChainWith(align.NewFixedOffsetStrategy(0))
	return NewEngine(cfg, lib, &fakeResolver{duration: 7 * time.Second}, registry, chain)
}

func TestEngine_AnalyzeShow(t *testing.T) {
	lib, _ := buildFixture(t)
	e := newTestEngine(t, lib)

	report, err := e.AnalyzeShow(context.Background(), "show-1", "ja", "en")
	require.NoError(t, err)
	assert.Equal(t, "Demo", report.Show.Name)
	assert.Equal(t, 2, report.Languages["ja"].EpisodeCount)
	assert.Equal(t, 1, report.Languages["en"].EpisodeCount)
	require.NotNil(t, report.Selection)
	assert.Len(t, report.Selection.Ready, 1)
	assert.Len(t, report.Selection.NeedsAttention, 1)
}

func TestEngine_AnalyzeShow_UnknownShow(t *testing.T) {
	lib, _ := buildFixture(t)
	e := newTestEngine(t, lib)

	_, err := e.AnalyzeShow(context.Background(), "nope", "", "")
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrNotFound))
}

func TestEngine_CreateBulkJob_Validation(t *testing.T) {
	lib, _ := buildFixture(t)
	e := newTestEngine(t, lib)
	ctx := context.Background()

	_, err := e.CreateBulkJob(ctx, BulkJobRequest{ShowID: "show-1"})
	assert.True(t, IsErrorType(err, ErrValidation))

	_, err = e.CreateBulkJob(ctx, BulkJobRequest{ShowID: "show-1", Primary: "en", Secondary: "eng"})
	assert.True(t, IsErrorType(err, ErrValidation))

	_, err = e.CreateBulkJob(ctx, BulkJobRequest{ShowID: "show-1", Primary: "ja", Secondary: "en", SyncMode: "bogus"})
	assert.True(t, IsErrorType(err, ErrValidation))

	_, err = e.CreateBulkJob(ctx, BulkJobRequest{ShowID: "show-1", Primary: "notalang", Secondary: "en"})
	assert.True(t, IsErrorType(err, ErrValidation))
}

func TestEngine_CreateBulkJob_AvailabilityGap(t *testing.T) {
	lib, _ := buildFixture(t)
	e := newTestEngine(t, lib)

	_, err := e.CreateBulkJob(context.Background(), BulkJobRequest{ShowID: "show-1", Primary: "ja", Secondary: "de"})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrAvailabilityGap))
}

func TestEngine_CreateBulkJob_RunsToCompletion(t *testing.T) {
	lib, dir := buildFixture(t)
	e := newTestEngine(t, lib)

	job, err := e.CreateBulkJob(context.Background(), BulkJobRequest{
		ShowID:    "show-1",
		Primary:   "ja",
		Secondary: "en",
		SyncMode:  jobs.SyncNone,
		Format:    dualsub.FormatASS,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, job.Progress.Total)

	var got *jobs.Job
	require.Eventually(t, func() bool {
		j, ok := e.Job(job.ID)
		if !ok || !j.Status.Terminal() {
			return false
		}
		got = j
		return true
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, jobs.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	require.Len(t, got.Result.Successful, 1)

	outPath := filepath.Join(dir, "e01.ja.en.dual.ass")
	assert.Equal(t, outPath, got.Result.Successful[0].OutputPath)
	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "こんにちは")
	assert.Contains(t, string(content), "hello")

	// a fresh dual on disk must trigger a rescan
	assert.Greater(t, lib.invalidated.Load(), int32(0))
}

func TestRunTask_SkipsWhenDualExists(t *testing.T) {
	lib, dir := buildFixture(t)
	e := newTestEngine(t, lib)

	profile := lib.profiles["show-1"][0]
	profile.Duals = []catalog.DualOutput{{Path: filepath.Join(dir, "e01.ja.en.dual.ass"), Primary: "ja", Secondary: "en", Format: "ass"}}

	job := &jobs.Job{Primary: "ja", Secondary: "en", SyncMode: jobs.SyncNone, Format: dualsub.FormatASS, Styling: dualsub.DefaultStyling()}
	outcome := e.runTask(context.Background(), job, jobs.EpisodeTask{EpisodeID: "ep-1", Profile: profile})
	assert.Equal(t, jobs.OutcomeSkipped, outcome.Status)
	assert.Contains(t, outcome.Reason, "already exists")
}

func TestRunTask_SkipsWhenOutputAlreadyOnDisk(t *testing.T) {
	lib, dir := buildFixture(t)
	e := newTestEngine(t, lib)

	// a dual written after the job snapshot was taken
	existing := filepath.Join(dir, "e01.ja.en.dual.ass")
	require.NoError(t, os.WriteFile(existing, []byte("pre-existing"), 0o644))

	profile := lib.profiles["show-1"][0]
	job := &jobs.Job{Primary: "ja", Secondary: "en", SyncMode: jobs.SyncNone, Format: dualsub.FormatASS, Styling: dualsub.DefaultStyling()}
	outcome := e.runTask(context.Background(), job, jobs.EpisodeTask{EpisodeID: "ep-1", Profile: profile})
	assert.Equal(t, jobs.OutcomeSkipped, outcome.Status)
	assert.Contains(t, outcome.Reason, "already exists")

	// the file on disk is left untouched
	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "pre-existing", string(content))
}

func TestRunTask_SkipsWhenSourceUnresolvable(t *testing.T) {
	lib, _ := buildFixture(t)
	e := newTestEngine(t, lib)

	// ep-2 has no secondary language source
	profile := lib.profiles["show-1"][1]
	job := &jobs.Job{Primary: "ja", Secondary: "en", SyncMode: jobs.SyncNone, Format: dualsub.FormatASS, Styling: dualsub.DefaultStyling()}
	outcome := e.runTask(context.Background(), job, jobs.EpisodeTask{EpisodeID: "ep-2", Profile: profile})
	assert.Equal(t, jobs.OutcomeSkipped, outcome.Status)
	assert.Contains(t, outcome.Reason, "no usable en")
}

func TestRunTask_UsesEmbeddedStream(t *testing.T) {
	lib, dir := buildFixture(t)
	e := newTestEngine(t, lib)

	profile := lib.profiles["show-1"][1]
	profile.Embedded = []catalog.EmbeddedSubtitle{{StreamIndex: 2, Language: "en", Codec: "subrip"}}

	job := &jobs.Job{Primary: "ja", Secondary: "en", SyncMode: jobs.SyncNone, Format: dualsub.FormatSRT, Styling: dualsub.DefaultStyling()}
	outcome := e.runTask(context.Background(), job, jobs.EpisodeTask{EpisodeID: "ep-2", Profile: profile})
	require.Equal(t, jobs.OutcomeSuccessful, outcome.Status)

	content, err := os.ReadFile(filepath.Join(dir, "e02.ja.en.dual.srt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "embedded line")
	assert.Contains(t, string(content), "さようなら")
}

func TestDurationWarnings(t *testing.T) {
	track := &subtitle.Track{Cues: []subtitle.Cue{{Start: 0, End: 100 * time.Second}}}
	assert.Len(t, durationWarnings(track, "en", 60*time.Second), 1)
	assert.Empty(t, durationWarnings(track, "en", 99*time.Second))
	assert.Empty(t, durationWarnings(track, "en", 0))
}
