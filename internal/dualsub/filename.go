package dualsub

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/TomMannion/plex-dualsub-manager/internal/subtitle"
	"github.com/TomMannion/plex-dualsub-manager/pkg/file"
)

// OutputName derives the deterministic dual-subtitle path for a media file:
// <base>.<primary>.<secondary>.dual.<ext>, placed next to the media file.
func OutputName(mediaPath, primary, secondary string, format Format) string {
	dir := filepath.Dir(mediaPath)
	base := file.StripExt(mediaPath)
	name := base + "." + primary + "." + secondary + ".dual" + format.Ext()
	return filepath.Join(dir, name)
}

// IsDualFile reports whether a subtitle filename follows the dual convention.
func IsDualFile(path string) bool {
	_, _, _, ok := ParseDualName(path)
	return ok
}

// ParseDualName extracts the language pair and format from a dual-subtitle
// filename. Returns ok=false for paths not following the convention.
func ParseDualName(path string) (primary, secondary string, format Format, ok bool) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))

	format, err := ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil {
		return "", "", "", false
	}

	stem := strings.TrimSuffix(base, ext)
	parts := strings.Split(stem, ".")
	// need at least base.lang1.lang2.dual
	if len(parts) < 4 || parts[len(parts)-1] != "dual" {
		return "", "", "", false
	}

	primary = subtitle.NormalizeCode(parts[len(parts)-3])
	secondary = subtitle.NormalizeCode(parts[len(parts)-2])
	if primary == "" || secondary == "" {
		return "", "", "", false
	}
	return primary, secondary, format, true
}

// WriteFile renders the document and writes it to path.
func (d *Document) WriteFile(path string) error {
	content, err := d.Render()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
