package commands

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output   string `short:"o" help:"Output directory (overrides output.directory)"`
	Drafts   bool   `help:"Include draft and future-dated documents (preview build)"`
	Future   bool   `help:"Include future-dated documents"`
	Lenient  bool   `help:"Render every page and report all failures instead of stopping at the first"`
	Manifest string `help:"Write the build manifest as JSON to this file"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if err := b.apply(cfg); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	runner := NewRunner(cfg)
	defer func() { _ = runner.Close() }()

	report, err := runner.Build(ctx)
	printReport(g, report, err)
	if err != nil {
		return err
	}
	if b.Manifest != "" {
		return writeManifest(b.Manifest, report)
	}
	return nil
}

// apply layers the command line flags over the configuration.
func (b *BuildCmd) apply(cfg *config.Config) error {
	if b.Output != "" {
		abs, err := filepath.Abs(b.Output)
		if err != nil {
			return ferrors.ValidationError("invalid output directory").WithCause(err).Build()
		}
		cfg.Output.Directory = abs
	}
	cfg.Build.Drafts = cfg.Build.Drafts || b.Drafts
	cfg.Build.Future = cfg.Build.Future || b.Future
	if b.Lenient {
		cfg.Build.Mode = config.BuildModeLenient
	}
	return nil
}

func writeManifest(path string, report *site.Report) error {
	data, err := report.Manifest.ToJSON()
	if err != nil {
		return ferrors.InternalError("cannot encode manifest").WithCause(err).Build()
	}
	// #nosec G306 -- the manifest is not secret
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write manifest").
			WithContext("path", path).
			Build()
	}
	return nil
}
