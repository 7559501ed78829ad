package commands

import "git.home.luguber.info/inful/sitebuilder/internal/site"

// CheckCmd implements the 'check' command: a full build that stops before
// Writing, so the published output is never touched.
type CheckCmd struct {
	Drafts  bool `help:"Include draft and future-dated documents"`
	Lenient bool `help:"Report every render failure"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	b := BuildCmd{Drafts: c.Drafts, Lenient: c.Lenient}
	if err := b.apply(cfg); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	report, err := site.Build(ctx, cfg, site.WithDryRun())
	printReport(g, report, err)
	return err
}
