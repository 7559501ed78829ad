package commands

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Drafts  bool   `help:"Include draft documents"`
	Section string `short:"s" help:"Only list documents in this section"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	docs, err := content.Load(ctx, cfg.ContentPath(), content.Options{
		BaseURL: cfg.BaseURL,
		Kinds:   cfg.Taxonomies,
		Workers: cfg.Build.Workers,
	})
	if err != nil {
		return err
	}
	slices.SortStableFunc(docs, content.Compare)
	return writeDocumentTable(g, docs, l.Drafts, l.Section, time.Now())
}

func writeDocumentTable(g *Global, docs []*content.Document, drafts bool, section string, now time.Time) error {
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tSECTION\tDATE\tFLAGS\tURL")
	for _, d := range docs {
		if d.SectionIndex {
			continue
		}
		if d.Draft() && !drafts {
			continue
		}
		if section != "" && d.Section != section {
			continue
		}
		date := "-"
		if !d.Date().IsZero() {
			date = d.Date().Format("2006-01-02")
		}
		var flags []string
		if d.Draft() {
			flags = append(flags, "draft")
		}
		if d.Future(now) {
			flags = append(flags, "future")
		}
		if len(flags) == 0 {
			flags = append(flags, "-")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			d.Path, orDash(d.Section), date, strings.Join(flags, ","), d.RelPermalink)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
