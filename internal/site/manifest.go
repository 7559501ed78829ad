package site

import (
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
)

// buildManifest records the documents read and the files produced.
func (s *Site) buildManifest(report *Report) *manifest.BuildManifest {
	m := &manifest.BuildManifest{
		ID:        report.BuildID,
		Timestamp: report.Start.UTC(),
		Status:    string(report.Outcome),
		Duration:  report.Duration().Milliseconds(),
	}

	cfg := *s.Config
	cfg.BaseDir = ""
	hash, err := manifest.HashJSON(cfg)
	if err != nil {
		slog.Warn("Cannot hash configuration for manifest", logfields.Error(err))
	}
	m.Inputs.ConfigHash = hash
	m.Inputs.Theme = s.Config.ThemeDir

	for _, d := range s.Documents {
		m.Inputs.Documents = append(m.Inputs.Documents, manifest.DocumentInput{
			Path:        d.Path,
			Section:     d.Section,
			Fingerprint: d.Fingerprint,
			Output:      d.OutputPath,
		})
	}
	for _, name := range sortedKeys(s.SectionIndexes) {
		d := s.SectionIndexes[name]
		m.Inputs.Documents = append(m.Inputs.Documents, manifest.DocumentInput{
			Path:        d.Path,
			Section:     d.Section,
			Fingerprint: d.Fingerprint,
		})
	}

	for _, rel := range s.outputs.paths() {
		f, _ := s.outputs.get(rel)
		if f.src != "" {
			m.Outputs.Copied = append(m.Outputs.Copied, rel)
			continue
		}
		m.Outputs.AddArtifact(rel, f.data)
	}
	m.Outputs.Seal()
	return m
}
