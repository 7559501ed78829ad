// Package gitinfo derives last-modified dates for content files from the
// history of the git repository that contains them.
package gitinfo

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Repo answers last-modified queries for files in one worktree. The history
// is walked once, on first use.
type Repo struct {
	repo *git.Repository
	root string

	once    sync.Once
	times   map[string]time.Time
	walkErr error
}

// Open finds the repository containing dir.
func Open(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "failed to open git repository").
			WithContext("path", abs).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "repository has no worktree").
			WithContext("path", abs).
			Build()
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	return &Repo{repo: repo, root: root}, nil
}

// LastModified returns the commit time of the newest commit touching absPath.
func (r *Repo) LastModified(absPath string) (time.Time, bool) {
	r.once.Do(r.walk)
	if r.walkErr != nil {
		return time.Time{}, false
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}
	rel, err := filepath.Rel(r.root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return time.Time{}, false
	}
	t, ok := r.times[filepath.ToSlash(rel)]
	return t, ok
}

// Err reports a failure to read history, if any.
func (r *Repo) Err() error {
	r.once.Do(r.walk)
	return r.walkErr
}

func (r *Repo) walk() {
	r.times = make(map[string]time.Time)
	head, err := r.repo.Head()
	if err != nil {
		r.walkErr = ferrors.WrapError(err, ferrors.CategoryGit, "failed to resolve HEAD").Build()
		return
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		r.walkErr = ferrors.WrapError(err, ferrors.CategoryGit, "failed to read history").Build()
		return
	}
	defer iter.Close()

	commits := 0
	err = iter.ForEach(func(c *object.Commit) error {
		commits++
		return r.record(c)
	})
	if err != nil {
		r.walkErr = ferrors.WrapError(err, ferrors.CategoryGit, "failed to walk history").Build()
		return
	}
	slog.Debug("Indexed git history", logfields.Path(r.root), logfields.Count(commits), slog.Int("files", len(r.times)))
}

// record stores the commit time for every file the commit changed that has
// not been seen in a newer commit.
func (r *Repo) record(c *object.Commit) error {
	when := c.Committer.When.UTC()
	tree, err := c.Tree()
	if err != nil {
		return fmt.Errorf("tree for %s: %w", c.Hash, err)
	}

	if c.NumParents() == 0 {
		return tree.Files().ForEach(func(f *object.File) error {
			r.remember(f.Name, when)
			return nil
		})
	}

	parent, err := c.Parent(0)
	if err != nil {
		return fmt.Errorf("parent of %s: %w", c.Hash, err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return fmt.Errorf("tree for %s: %w", parent.Hash, err)
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return fmt.Errorf("diff %s: %w", c.Hash, err)
	}
	for _, ch := range changes {
		if ch.To.Name != "" {
			r.remember(ch.To.Name, when)
		}
	}
	return nil
}

func (r *Repo) remember(name string, when time.Time) {
	if _, seen := r.times[name]; !seen {
		r.times[name] = when
	}
}
