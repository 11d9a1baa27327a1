package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
	"github.com/TomMannion/plex-dualsub-manager/pkg/file"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

// Ffmpeg shells out to ffprobe/ffmpeg and implements catalog.MediaResolver.
type Ffmpeg struct {
	ffmpegCmd  string
	ffprobeCmd string
}

func NewFfmpeg() *Ffmpeg {
	return &Ffmpeg{
		ffmpegCmd:  "ffmpeg",
		ffprobeCmd: "ffprobe",
	}
}

type probeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Tags      struct {
		Language string `json:"language"`
		Title    string `json:"title"`
	} `json:"tags"`
	Disposition struct {
		Default int `json:"default"`
	} `json:"disposition"`
}

// ProbeSubtitleStreams lists the embedded subtitle streams of a media file.
func (ff *Ffmpeg) ProbeSubtitleStreams(ctx context.Context, mediaPath string) ([]catalog.EmbeddedSubtitle, error) {
	cmdPath, err := exec.LookPath(ff.ffprobeCmd)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, cmdPath, ff.probeStreamArgs(mediaPath)...)

	output, err := cmd.Output()
	if err != nil {
		log.Error("Failed to run ffprobe on %s: %v", mediaPath, err)
		return nil, err
	}

	var probeResult struct {
		Streams []probeStream `json:"streams"`
	}
	if err := json.Unmarshal(output, &probeResult); err != nil {
		log.Error("Failed to parse ffprobe output: %v", err)
		return nil, err
	}

	streams := make([]catalog.EmbeddedSubtitle, 0)
	for _, stream := range probeResult.Streams {
		if stream.CodecType != "subtitle" {
			continue
		}
		lang := subtitle.NormalizeCode(stream.Tags.Language)
		if lang == "" {
			lang = subtitle.LanguageUnknown
		}
		streams = append(streams, catalog.EmbeddedSubtitle{
			StreamIndex: stream.Index,
			Language:    lang,
			Codec:       stream.CodecName,
			Title:       stream.Tags.Title,
			Default:     stream.Disposition.Default == 1,
		})
	}

	return streams, nil
}

// ExtractStream converts one embedded subtitle stream to an SRT file under toDir.
func (ff *Ffmpeg) ExtractStream(ctx context.Context, mediaPath string, streamIndex int, toDir string) (string, error) {
	cmdPath, err := exec.LookPath(ff.ffmpegCmd)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("dualsub_%d_%s", streamIndex, file.ReplaceExt(filepath.Base(mediaPath), ".srt"))
	output := filepath.Join(toDir, name)

	cmd := exec.CommandContext(ctx, cmdPath, ff.extractStreamArgs(mediaPath, streamIndex, output)...)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("extract stream %d from %s: %w", streamIndex, mediaPath, err)
	}
	return output, nil
}

// Duration reports the container duration of a media file.
func (ff *Ffmpeg) Duration(ctx context.Context, mediaPath string) (catalog.VideoRef, error) {
	ref := catalog.VideoRef{Path: mediaPath}

	cmdPath, err := exec.LookPath(ff.ffprobeCmd)
	if err != nil {
		return ref, err
	}
	cmd := exec.CommandContext(ctx, cmdPath, ff.probeFormatArgs(mediaPath)...)

	output, err := cmd.Output()
	if err != nil {
		return ref, fmt.Errorf("probe duration of %s: %w", mediaPath, err)
	}

	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probeResult); err != nil {
		return ref, fmt.Errorf("parse ffprobe format output: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(probeResult.Format.Duration), 64)
	if err != nil {
		return ref, fmt.Errorf("parse duration %q: %w", probeResult.Format.Duration, err)
	}
	ref.Duration = time.Duration(seconds * float64(time.Second))
	return ref, nil
}

func (ff *Ffmpeg) probeStreamArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "s",
		path,
	}
}

func (ff *Ffmpeg) probeFormatArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
}

func (ff *Ffmpeg) extractStreamArgs(mediaPath string, streamIndex int, targetPath string) []string {
	return []string{
		"-y",
		"-i", mediaPath,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-c:s", "srt", // convert to srt
		"-f", "srt",
		targetPath,
	}
}
