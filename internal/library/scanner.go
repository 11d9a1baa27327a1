package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

// EmbeddedProber lists the embedded subtitle streams of a media file.
// A nil prober disables embedded detection.
type EmbeddedProber func(ctx context.Context, mediaPath string) ([]catalog.EmbeddedSubtitle, error)

type scannerOptions struct {
	prober   EmbeddedProber
	cacheTTL time.Duration
}

type Option func(*scannerOptions)

func WithEmbeddedProber(prober EmbeddedProber) Option {
	return func(o *scannerOptions) {
		o.prober = prober
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(o *scannerOptions) {
		o.cacheTTL = ttl
	}
}

type scanCache struct {
	version uint64
	scanned time.Time
	data    *snapshot
}

// Scanner walks the configured media directories and builds the catalog.
// Implements catalog.Service.
type Scanner struct {
	sources []SourceConfig
	prober  EmbeddedProber

	mu            sync.RWMutex
	cacheTTL      time.Duration
	cache         *scanCache
	configVersion uint64

	group singleflight.Group
}

func NewScanner(sources []SourceConfig, opts ...Option) *Scanner {
	options := scannerOptions{
		cacheTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Scanner{
		sources:  sources,
		prober:   options.prober,
		cacheTTL: options.cacheTTL,
	}
}

// Invalidate drops the cached scan results.
func (s *Scanner) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.configVersion++
	s.mu.Unlock()
}

// Shows lists all series across the configured media directories.
func (s *Scanner) Shows(ctx context.Context) ([]catalog.Show, error) {
	snap, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Shows, nil
}

// EpisodeProfiles returns the subtitle profiles for every episode of a show.
func (s *Scanner) EpisodeProfiles(ctx context.Context, showID string) ([]catalog.EpisodeSubtitleProfile, error) {
	snap, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for _, show := range snap.Shows {
		if show.ID == showID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown show %q", showID)
	}

	ret := make([]catalog.EpisodeSubtitleProfile, 0)
	for _, profile := range snap.Profiles {
		if profile.ShowID == showID {
			ret = append(ret, profile)
		}
	}
	return ret, nil
}

// scan returns the cached snapshot or rebuilds it. Concurrent callers share
// one rebuild via singleflight.
func (s *Scanner) scan(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	version := s.configVersion
	cacheTTL := s.cacheTTL
	if s.cache != nil && s.cache.version == version && (cacheTTL <= 0 || time.Since(s.cache.scanned) < cacheTTL) {
		cached := cloneSnapshot(s.cache.data)
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.group.Do("scan", func() (any, error) {
		return s.rebuild(ctx, version)
	})
	if err != nil {
		return nil, err
	}
	return cloneSnapshot(result.(*snapshot)), nil
}

func (s *Scanner) rebuild(ctx context.Context, version uint64) (*snapshot, error) {
	s.mu.RLock()
	sources := append([]SourceConfig(nil), s.sources...)
	prober := s.prober
	s.mu.RUnlock()

	ret := &snapshot{
		Shows:    make([]catalog.Show, 0),
		Profiles: make([]catalog.EpisodeSubtitleProfile, 0),
	}

	for _, sourceCfg := range sources {
		if sourceCfg.Path == "" {
			continue
		}
		if _, err := os.Stat(sourceCfg.Path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		showIdxByPath := make(map[string]int)

		mediaFiles, err := findMediaFiles(sourceCfg.Path)
		if err != nil {
			return nil, err
		}
		for _, mediaPath := range mediaFiles {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			showPath := resolveSeriesPath(sourceCfg.Path, mediaPath)
			showIdx, ok := showIdxByPath[showPath]
			if !ok {
				show := catalog.Show{
					ID:       sourceCfg.ID + "|" + showPath,
					SourceID: sourceCfg.ID,
					Name:     filepath.Base(showPath),
					Path:     showPath,
				}
				ret.Shows = append(ret.Shows, show)
				showIdx = len(ret.Shows) - 1
				showIdxByPath[showPath] = showIdx
			}

			baseName := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
			mediaDir := filepath.Dir(mediaPath)
			external, duals, err := findExternalSubtitles(mediaDir, baseName)
			if err != nil {
				return nil, err
			}

			var embedded []catalog.EmbeddedSubtitle
			if prober != nil {
				embedded, err = prober(ctx, mediaPath)
				if err != nil {
					// media without probeable streams still gets a profile
					log.Warn("Failed to probe embedded subtitles of %s: %v", mediaPath, err)
					embedded = nil
				}
			}

			profile := catalog.EpisodeSubtitleProfile{
				EpisodeID: mediaPath,
				ShowID:    ret.Shows[showIdx].ID,
				Name:      cleanEpisodeName(baseName),
				Season:    resolveSeasonName(showPath, mediaPath),
				MediaPath: mediaPath,
				External:  external,
				Embedded:  embedded,
				Duals:     duals,
			}
			ret.Profiles = append(ret.Profiles, profile)
			ret.Shows[showIdx].EpisodeCount++
		}
	}

	s.mu.Lock()
	if s.configVersion == version {
		s.cache = &scanCache{
			version: version,
			scanned: time.Now(),
			data:    cloneSnapshot(ret),
		}
	}
	s.mu.Unlock()

	return ret, nil
}

// resolveSeriesPath walks from the media file's directory upward toward
// sourcePath, looking for a tvshow.nfo file. If found, that directory is the
// series root. Otherwise falls back to the first subdirectory under sourcePath.
func resolveSeriesPath(sourcePath, mediaPath string) string {
	dir := filepath.Dir(mediaPath)
	for dir != sourcePath && strings.HasPrefix(dir, sourcePath) {
		nfo := filepath.Join(dir, "tvshow.nfo")
		if _, err := os.Stat(nfo); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fallback: first subdirectory under sourcePath.
	// If media is directly in source dir, use source dir itself.
	rel, err := filepath.Rel(sourcePath, filepath.Dir(mediaPath))
	if err != nil || rel == "." {
		return sourcePath
	}
	first := strings.SplitN(rel, string(filepath.Separator), 2)[0]
	return filepath.Join(sourcePath, first)
}

// resolveSeasonName returns the season directory name (e.g. "Season 1")
// if the media file is nested inside a subdirectory of seriesPath.
// Returns "" if media is directly inside seriesPath.
func resolveSeasonName(seriesPath, mediaPath string) string {
	mediaDir := filepath.Dir(mediaPath)
	if mediaDir == seriesPath {
		return ""
	}
	rel, err := filepath.Rel(seriesPath, mediaDir)
	if err != nil || rel == "." {
		return ""
	}
	first := strings.SplitN(rel, string(filepath.Separator), 2)[0]
	return first
}

var sonarrPattern = regexp.MustCompile(`(?i)S\d+E(\d+)`)
var qualitySuffixPattern = regexp.MustCompile(`(?i)\s*[-. ](WEBRip|WEBDL|WEB-DL|BluRay|BDRip|HDRip|DVDRip|HDTV|AMZN|NF|DSNP|HULU|ATVP|PMTP|IT|DDP?\d|AAC|x264|x265|HEVC|H\.?264|H\.?265|10bit|\d{3,4}p).*$`)

// cleanEpisodeName parses Sonarr-style filenames and produces a short display name.
// e.g. "Frieren - S01E15 - Something Important WEBRip-1080p" -> "E15 Something Important"
func cleanEpisodeName(basename string) string {
	m := sonarrPattern.FindStringSubmatchIndex(basename)
	if m == nil {
		return basename
	}
	epNum := basename[m[2]:m[3]]
	// Everything after the S##E## pattern marker
	after := strings.TrimSpace(basename[m[1]:])
	after = strings.TrimLeft(after, "-. ")
	after = strings.TrimSpace(after)
	// Strip quality suffixes
	after = qualitySuffixPattern.ReplaceAllString(after, "")
	after = strings.TrimSpace(after)
	if after != "" {
		return "E" + epNum + " " + after
	}
	return "E" + epNum
}

var subtitleExts = []string{
	".srt", ".ass", ".ssa", ".vtt", ".sub",
}

var mediaExts = []string{
	".mkv", ".mp4", ".m4v", ".mov", ".avi", ".wmv", ".flv", ".webm",
	".ogv", ".3gp", ".ts", ".m2ts", ".mts", ".vob", ".mpg", ".mpeg",
}

func findMediaFiles(root string) ([]string, error) {
	ret := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if slices.Contains(mediaExts, ext) {
			ret = append(ret, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// findExternalSubtitles lists the sidecar subtitle files of one media file,
// splitting plain language tracks from existing dual outputs.
func findExternalSubtitles(dir string, mediaBase string) ([]catalog.ExternalSubtitle, []catalog.DualOutput, error) {
	external := make([]catalog.ExternalSubtitle, 0)
	duals := make([]catalog.DualOutput, 0)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(subtitleExts, ext) {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if !subtitleMatchesMediaBase(stem, mediaBase) {
			continue
		}

		fullPath := filepath.Join(dir, name)

		if primary, secondary, format, ok := dualsub.ParseDualName(name); ok {
			duals = append(duals, catalog.DualOutput{
				Path:      fullPath,
				Primary:   primary,
				Secondary: secondary,
				Format:    string(format),
			})
			continue
		}

		lang, forced, sdh := parseSubtitleTokens(stem, mediaBase)
		external = append(external, catalog.ExternalSubtitle{
			Path:     fullPath,
			Language: lang,
			Forced:   forced,
			SDH:      sdh,
		})
	}

	return external, duals, nil
}

// parseSubtitleTokens extracts the language code and qualifier flags from the
// dotted filename suffix after the media base name. An unrecognized or
// missing language code falls to the "unknown" bucket.
func parseSubtitleTokens(stem, mediaBase string) (lang string, forced, sdh bool) {
	lang = subtitle.LanguageUnknown

	remain := strings.TrimPrefix(stem, mediaBase)
	remain = strings.TrimLeft(remain, "._- ")
	if remain == "" {
		return lang, false, false
	}

	parts := strings.FieldsFunc(remain, func(r rune) bool {
		return r == '.' || r == '_' || r == ' '
	})
	for _, part := range parts {
		token := strings.ToLower(part)
		switch {
		case token == "forced":
			forced = true
		case token == "sdh" || token == "cc" || token == "hi":
			sdh = true
		default:
			if normalized := subtitle.NormalizeCode(token); normalized != "" {
				lang = normalized
			}
		}
	}
	return lang, forced, sdh
}

func subtitleMatchesMediaBase(stem, mediaBase string) bool {
	if stem == mediaBase {
		return true
	}
	if !strings.HasPrefix(stem, mediaBase) || len(stem) <= len(mediaBase) {
		return false
	}
	switch stem[len(mediaBase)] {
	case '.', '_', '-', ' ':
		return true
	default:
		return false
	}
}
