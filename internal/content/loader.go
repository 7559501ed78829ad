package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// LastModSource supplies modification dates for files whose front matter
// has no lastmod.
type LastModSource interface {
	LastModified(absPath string) (time.Time, bool)
}

// Options controls loading.
type Options struct {
	BaseURL string
	// Kinds are the taxonomy kinds to extract terms for.
	Kinds []string
	// Workers bounds parallel parsing. Zero means GOMAXPROCS.
	Workers int
	LastMod LastModSource
}

// Tree is the loaded content tree.
type Tree struct {
	// Documents are sorted by source path.
	Documents []*Document
	// Files are non-Markdown files that do not belong to a page bundle,
	// relative to the content root.
	Files []string
}

// Load parses every Markdown file under root.
func Load(ctx context.Context, root string, opts Options) ([]*Document, error) {
	tree, err := LoadTree(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	return tree.Documents, nil
}

// LoadTree parses every Markdown file under root and collects the remaining
// files. A missing root yields an empty tree.
func LoadTree(ctx context.Context, root string, opts Options) (*Tree, error) {
	docPaths, otherPaths, err := scan(root)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Every file is parsed even after a failure so the reported error is
	// the one with the lowest path, whatever order workers finish in.
	docs := make([]*Document, len(docPaths))
	errs := make([]error, len(docPaths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range docPaths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i], errs[i] = loadFile(root, rel, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if err := assignOutputs(docs, opts); err != nil {
		return nil, err
	}
	files := attachResources(docs, otherPaths)

	slog.Debug("Loaded content tree", logfields.Path(root), logfields.Count(len(docs)))
	return &Tree{Documents: docs, Files: files}, nil
}

// scan returns sorted Markdown and other file paths relative to root.
func scan(root string) (docs, others []string, err error) {
	if _, statErr := os.Stat(root); errors.Is(statErr, fs.ErrNotExist) {
		return nil, nil, nil
	}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if IsMarkdown(rel) {
			docs = append(docs, rel)
		} else {
			others = append(others, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk content directory").
			WithContext("path", root).
			Build()
	}
	slices.Sort(docs)
	slices.Sort(others)
	return docs, others, nil
}

// IsMarkdown reports whether p has a Markdown extension.
func IsMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

func loadFile(root, rel string, opts Options) (*Document, error) {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	// #nosec G304 -- abs comes from walking the configured content directory
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read content file").
			WithContext("path", rel).
			Build()
	}

	block, body, err := frontmatter.Split(data)
	if err != nil {
		return nil, toParseError(rel, err)
	}
	matter, err := frontmatter.Decode(block)
	if err != nil {
		return nil, toParseError(rel, err)
	}
	fm, taxonomies, err := decodeSchema(matter, opts.Kinds)
	if err != nil {
		return nil, toParseError(rel, err)
	}

	if fm.Lastmod.IsZero() && opts.LastMod != nil {
		if t, ok := opts.LastMod.LastModified(abs); ok {
			fm.Lastmod = t.UTC()
		}
	}

	fingerprint, err := Fingerprint(matter.Map(), body)
	if err != nil {
		return nil, toParseError(rel, err)
	}

	return &Document{
		Path:         rel,
		SourcePath:   abs,
		Section:      sectionOf(rel),
		SectionIndex: isSectionIndex(rel),
		FrontMatter:  fm,
		Body:         body,
		BodyLine:     block.BodyLine,
		Fingerprint:  fingerprint,
		Taxonomies:   taxonomies,
	}, nil
}

func toParseError(rel string, err error) *ParseError {
	pe := &ParseError{Path: rel, Cause: err}
	var se *frontmatter.SyntaxError
	var fe *fieldError
	switch {
	case errors.As(err, &se):
		pe.Line = se.Line
		pe.Cause = se.Err
	case errors.As(err, &fe):
		pe.Line = fe.line
		pe.Cause = fe.err
	}
	return pe
}

// isSectionIndex matches _index.md at the content root or directly inside a section.
func isSectionIndex(rel string) bool {
	if path.Base(rel) != SectionIndexName {
		return false
	}
	return !strings.Contains(path.Dir(rel), "/")
}

func sectionOf(rel string) string {
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return ""
}

// assignOutputs derives slugs, output paths and permalinks and rejects
// documents that would overwrite each other or a generated listing.
func assignOutputs(docs []*Document, opts Options) error {
	owners := make(map[string]string)
	reserve := func(out, owner string) {
		if _, ok := owners[out]; !ok {
			owners[out] = owner
		}
	}
	reserve("index.html", "home listing")
	for _, d := range docs {
		if d.Section != "" {
			reserve(d.Section+"/index.html", "section listing "+d.Section)
		}
	}
	for _, kind := range opts.Kinds {
		reserve(kind+"/index.html", "taxonomy listing "+kind)
	}

	for _, d := range docs {
		if err := derivePaths(d, opts.BaseURL); err != nil {
			return err
		}
		if d.SectionIndex {
			continue
		}
		if owner, taken := owners[d.OutputPath]; taken && owner != d.Path {
			return &ParseError{
				Path:  d.Path,
				Cause: fmt.Errorf("output path %s collides with %s", d.OutputPath, owner),
			}
		}
		owners[d.OutputPath] = d.Path
	}
	return nil
}

func derivePaths(d *Document, baseURL string) error {
	if d.SectionIndex {
		d.Slug = d.Section
		if d.Section == "" {
			d.OutputPath, d.RelPermalink = "index.html", "/"
		} else {
			d.OutputPath, d.RelPermalink = d.Section+"/index.html", "/"+d.Section+"/"
		}
		d.Permalink = JoinURL(baseURL, d.RelPermalink)
		return nil
	}

	name := strings.TrimSuffix(path.Base(d.Path), path.Ext(d.Path))
	if name == "index" && path.Dir(d.Path) != "." {
		name = path.Base(path.Dir(d.Path))
	}
	d.Slug = Slugify(name)
	if d.FrontMatter.Slug != "" {
		d.Slug = Slugify(d.FrontMatter.Slug)
	}
	if d.Slug == "" {
		return &ParseError{Path: d.Path, Cause: errors.New("cannot derive a slug from the file name; set slug in front matter")}
	}

	switch {
	case d.FrontMatter.URL != "":
		u := path.Clean("/" + strings.TrimSpace(d.FrontMatter.URL))
		switch {
		case u == "/":
			d.OutputPath, d.RelPermalink = "index.html", "/"
		case strings.HasSuffix(u, ".html"):
			d.OutputPath, d.RelPermalink = u[1:], u
		default:
			d.OutputPath, d.RelPermalink = u[1:]+"/index.html", u+"/"
		}
	case d.Section == "":
		d.OutputPath, d.RelPermalink = d.Slug+"/index.html", "/"+d.Slug+"/"
	default:
		d.OutputPath = d.Section + "/" + d.Slug + "/index.html"
		d.RelPermalink = "/" + d.Section + "/" + d.Slug + "/"
	}
	d.Permalink = JoinURL(baseURL, d.RelPermalink)
	return nil
}

// attachResources hands files that sit in a page bundle directory to the
// bundle's document and returns the rest.
func attachResources(docs []*Document, files []string) []string {
	bundles := make(map[string]*Document)
	for _, d := range docs {
		if path.Base(d.Path) == "index.md" && path.Dir(d.Path) != "." {
			bundles[path.Dir(d.Path)] = d
		}
	}
	var loose []string
	for _, f := range files {
		if d, ok := bundles[path.Dir(f)]; ok {
			d.Resources = append(d.Resources, f)
			continue
		}
		loose = append(loose, f)
	}
	return loose
}
