package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], &commands.Global{Out: os.Stdout, Err: os.Stderr}))
}

func run(args []string, g *commands.Global) int {
	var cli commands.CLI
	parser, err := kong.New(&cli,
		kong.Name("sitebuilder"),
		kong.Description("Build a static site from Markdown content and HTML layouts."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
		kong.Writers(g.Out, g.Err),
	)
	if err != nil {
		return ferrors.NewCLIErrorAdapter(false, nil).WithOutput(g.Err).Report(err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}
	if err := kctx.Run(&cli); err != nil {
		return ferrors.NewCLIErrorAdapter(cli.Verbose, nil).WithOutput(g.Err).Report(err)
	}
	return 0
}
