package library

import "github.com/TomMannion/plex-dualsub-manager/internal/catalog"

type SourceConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// snapshot is one full scan result.
type snapshot struct {
	Shows    []catalog.Show
	Profiles []catalog.EpisodeSubtitleProfile
}

func cloneSnapshot(src *snapshot) *snapshot {
	if src == nil {
		return nil
	}

	dst := &snapshot{
		Shows:    make([]catalog.Show, len(src.Shows)),
		Profiles: make([]catalog.EpisodeSubtitleProfile, len(src.Profiles)),
	}
	copy(dst.Shows, src.Shows)
	copy(dst.Profiles, src.Profiles)

	for i := range dst.Profiles {
		dst.Profiles[i].External = append([]catalog.ExternalSubtitle(nil), src.Profiles[i].External...)
		dst.Profiles[i].Embedded = append([]catalog.EmbeddedSubtitle(nil), src.Profiles[i].Embedded...)
		dst.Profiles[i].Duals = append([]catalog.DualOutput(nil), src.Profiles[i].Duals...)
	}
	return dst
}
