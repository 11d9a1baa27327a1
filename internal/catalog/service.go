package catalog

import "context"

// Service exposes the media catalog to the availability analyzer and the
// orchestration engine.
type Service interface {
	// Shows lists all series across the configured media directories.
	Shows(ctx context.Context) ([]Show, error)
	// EpisodeProfiles returns the subtitle profiles for every episode of a show.
	EpisodeProfiles(ctx context.Context, showID string) ([]EpisodeSubtitleProfile, error)
	// Invalidate drops cached scan results.
	Invalidate()
}

// MediaResolver abstracts ffprobe/ffmpeg access to a media container.
type MediaResolver interface {
	// ProbeSubtitleStreams lists the embedded subtitle streams of a media file.
	ProbeSubtitleStreams(ctx context.Context, mediaPath string) ([]EmbeddedSubtitle, error)
	// ExtractStream converts one embedded subtitle stream to an SRT file under toDir.
	ExtractStream(ctx context.Context, mediaPath string, streamIndex int, toDir string) (string, error)
	// Duration reports the container duration of a media file.
	Duration(ctx context.Context, mediaPath string) (VideoRef, error)
}
