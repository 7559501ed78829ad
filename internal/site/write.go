package site

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/workspace"
)

// write stages every output file and swaps the staging directory into
// place. Nothing under the output directory changes until the swap.
func (s *Site) write(ctx context.Context) error {
	if err := s.collectCopies(); err != nil {
		return err
	}

	output := s.Config.OutputPath()
	stage, err := workspace.Begin(output, s.BuildID)
	if err != nil {
		return &WriteError{Path: output, Cause: err}
	}
	committed := false
	defer func() {
		if !committed {
			stage.Abort()
		}
	}()

	written := 0
	for _, rel := range s.outputs.paths() {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, _ := s.outputs.get(rel)
		var err error
		if f.src != "" {
			err = stage.CopyFile(rel, f.src)
		} else {
			err = stage.WriteFile(rel, f.data)
		}
		if err != nil {
			return &WriteError{Path: rel, Cause: err}
		}
		written++
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stage.Commit(); err != nil {
		return &WriteError{Path: output, Cause: err}
	}
	committed = true
	s.counts.FilesWritten = written

	slog.Info("Published site", logfields.Output(stage.Output()), logfields.Count(written))
	return nil
}

// collectCopies registers page bundle resources, loose content files and
// the static directory. Generated pages win over copied files.
func (s *Site) collectCopies() error {
	contentRoot := s.Config.ContentPath()
	for _, d := range s.Documents {
		dir := path.Dir(d.Path) + "/"
		for _, res := range d.Resources {
			rel := path.Join(d.OutputDir(), strings.TrimPrefix(res, dir))
			if s.outputs.copy(rel, filepath.Join(contentRoot, filepath.FromSlash(res))) {
				s.counts.FilesCopied++
			}
		}
	}
	for _, f := range s.Files {
		if s.outputs.copy(f, filepath.Join(contentRoot, filepath.FromSlash(f))) {
			s.counts.FilesCopied++
		}
	}
	return s.collectStatic(s.Config.StaticPath())
}

func (s *Site) collectStatic(root string) error {
	if root == "" {
		return nil
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &WriteError{Path: p, Cause: err}
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return &WriteError{Path: p, Cause: err}
		}
		if s.outputs.copy(filepath.ToSlash(rel), p) {
			s.counts.FilesCopied++
		}
		return nil
	})
}
