package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/templates"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force     bool `help:"Overwrite existing configuration file"`
	NoContent bool `name:"no-content" help:"Only write the configuration file"`
	Layouts   bool `help:"Copy the built-in layouts into the theme directory for editing"`
}

const (
	sampleIndex = `---
title: Welcome
---
This site is built with sitebuilder.
`
	samplePost = `---
title: Hello World
date: 2024-01-01
tags: [welcome]
---
The first post. Edit or delete it, then run ` + "`sitebuilder build`" + `.
`
)

func (i *InitCmd) Run(g *Global, root *CLI) error {
	_, _ = fmt.Fprintf(g.Out, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "initialization failed").Build()
	}
	if i.NoContent {
		return nil
	}

	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	files := map[string]string{
		filepath.Join(cfg.ContentPath(), "_index.md"):                     sampleIndex,
		filepath.Join(cfg.ContentPath(), "posts", "hello-world.md"):       samplePost,
		filepath.Join(cfg.StaticPath(), ".gitkeep"):                       "",
		filepath.Join(cfg.ThemePath(), "layouts", "partials", ".gitkeep"): "",
	}
	for p, body := range files {
		if err := writeIfAbsent(p, []byte(body)); err != nil {
			return err
		}
	}
	if i.Layouts {
		if err := ejectLayouts(filepath.Join(cfg.ThemePath(), "layouts")); err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintln(g.Out, "initialized successfully")
	return nil
}

func writeIfAbsent(p string, data []byte) error {
	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot inspect "+p).Build()
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create directory").
			WithContext("path", filepath.Dir(p)).
			Build()
	}
	// #nosec G306 -- site sources are not secret
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write file").
			WithContext("path", p).
			Build()
	}
	return nil
}

// ejectLayouts copies the built-in layouts into dir, keeping existing files.
func ejectLayouts(dir string) error {
	builtin := templates.Builtin()
	return fs.WalkDir(builtin, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(builtin, p)
		if err != nil {
			return err
		}
		return writeIfAbsent(filepath.Join(dir, filepath.FromSlash(path.Clean(p))), data)
	})
}
