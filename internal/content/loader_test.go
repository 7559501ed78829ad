package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const testBaseURL = "https://blog.example.org/"

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func defaultOptions() Options {
	return Options{BaseURL: testBaseURL, Kinds: []string{"tags", "categories"}, Workers: 4}
}

func TestLoad_ParsesDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/hello-world.md", "---\ntitle: Hello\ndate: 2021-06-01\ntags: [Go, web]\nmood: calm\n---\n# Hi\n")
	writeFile(t, root, "about.md", "+++\ntitle = \"About\"\n+++\nAbout me.\n")
	writeFile(t, root, "posts/plain.md", "No front matter here.\n")

	docs, err := Load(t.Context(), root, defaultOptions())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// Sorted by source path.
	assert.Equal(t, "about.md", docs[0].Path)
	assert.Equal(t, "posts/hello-world.md", docs[1].Path)
	assert.Equal(t, "posts/plain.md", docs[2].Path)

	about := docs[0]
	assert.Equal(t, "", about.Section)
	assert.Equal(t, "about/index.html", about.OutputPath)
	assert.Equal(t, "https://blog.example.org/about/", about.Permalink)

	hello := docs[1]
	assert.Equal(t, "posts", hello.Section)
	assert.Equal(t, "Hello", hello.Title())
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), hello.Date())
	assert.Equal(t, []string{"Go", "web"}, hello.Taxonomies["tags"])
	assert.Equal(t, "calm", hello.FrontMatter.Params["mood"])
	assert.Equal(t, "posts/hello-world/index.html", hello.OutputPath)
	assert.Equal(t, "/posts/hello-world/", hello.RelPermalink)
	assert.Equal(t, "# Hi\n", string(hello.Body))
	assert.Equal(t, 7, hello.BodyLine)
	assert.NotEmpty(t, hello.Fingerprint)

	plain := docs[2]
	assert.Equal(t, "Plain", plain.Title())
	assert.Empty(t, plain.Taxonomies)
	assert.Equal(t, 1, plain.BodyLine)
}

func TestLoad_MissingRootIsEmpty(t *testing.T) {
	docs, err := Load(t.Context(), filepath.Join(t.TempDir(), "missing"), defaultOptions())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoad_UnterminatedFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/ok.md", "---\ntitle: ok\n---\n")
	writeFile(t, root, "posts/broken.md", "---\ntitle: broken\n\nbody without closing delimiter\n")

	_, err := Load(t.Context(), root, defaultOptions())
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "posts/broken.md", pe.Path)
	assert.Equal(t, 1, pe.Line)
	assert.Contains(t, err.Error(), "posts/broken.md")
	assert.Equal(t, ferrors.CategoryParse, ferrors.GetCategory(err))
}

func TestLoad_ReportsLowestPathParseError(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c", "a", "e", "b", "d"} {
		writeFile(t, root, "posts/"+name+".md", "---\ntitle: "+name+"\n")
	}
	writeFile(t, root, "posts/0-ok.md", "---\ntitle: ok\n---\n")

	opts := defaultOptions()
	opts.Workers = 8
	for range 10 {
		_, err := Load(t.Context(), root, opts)
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "posts/a.md", pe.Path)
	}
}

func TestLoad_ParseErrorLines(t *testing.T) {
	tests := []struct {
		name string
		body string
		line int
	}{
		{"invalid date", "---\ntitle: x\ndate: 01/06/2021\n---\n", 3},
		{"duplicate key", "---\ntitle: a\ntags: [x]\ntitle: b\n---\n", 4},
		{"wrong type", "---\ndraft: maybe\n---\n", 2},
		{"toml invalid date", "+++\ntitle = \"x\"\nlastmod = \"yesterday\"\n+++\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, "post.md", tt.body)
			_, err := Load(t.Context(), root, defaultOptions())
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, "post.md", pe.Path)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestLoad_OutputCollision(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/a.md", "---\nslug: same\n---\n")
	writeFile(t, root, "posts/b.md", "---\nslug: same\n---\n")

	_, err := Load(t.Context(), root, defaultOptions())
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "posts/b.md", pe.Path)
	assert.Contains(t, pe.Error(), "posts/a.md")
}

func TestLoad_PageCollidesWithSectionListing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/a.md", "x")
	writeFile(t, root, "posts.md", "x")

	_, err := Load(t.Context(), root, defaultOptions())
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "posts.md", pe.Path)
	assert.Contains(t, pe.Error(), "section listing posts")
}

func TestLoad_URLOverrideAndSectionIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/contact.md", "---\nurl: /contact-me\n---\n")
	writeFile(t, root, "pages/legacy.md", "---\nurl: /old/page.html\n---\n")
	writeFile(t, root, "posts/_index.md", "---\ntitle: All Posts\n---\nIntro\n")
	writeFile(t, root, "_index.md", "Welcome\n")

	docs, err := Load(t.Context(), root, defaultOptions())
	require.NoError(t, err)
	byPath := make(map[string]*Document)
	for _, d := range docs {
		byPath[d.Path] = d
	}

	assert.Equal(t, "contact-me/index.html", byPath["pages/contact.md"].OutputPath)
	assert.Equal(t, "/contact-me/", byPath["pages/contact.md"].RelPermalink)
	assert.Equal(t, "old/page.html", byPath["pages/legacy.md"].OutputPath)

	idx := byPath["posts/_index.md"]
	assert.True(t, idx.SectionIndex)
	assert.Equal(t, "posts/index.html", idx.OutputPath)
	assert.Equal(t, "All Posts", idx.Title())

	home := byPath["_index.md"]
	assert.True(t, home.SectionIndex)
	assert.Equal(t, "index.html", home.OutputPath)
	assert.Equal(t, "https://blog.example.org/", home.Permalink)
}

func TestLoad_PageBundleResources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "posts/trip/index.md", "---\ntitle: Trip\n---\n![](cover.jpg)\n")
	writeFile(t, root, "posts/trip/cover.jpg", "jpeg")
	writeFile(t, root, "posts/files/notes.txt", "text")
	writeFile(t, root, ".hidden/secret.md", "nope")

	tree, err := LoadTree(t.Context(), root, defaultOptions())
	require.NoError(t, err)
	require.Len(t, tree.Documents, 1)
	trip := tree.Documents[0]
	assert.Equal(t, "trip", trip.Slug)
	assert.Equal(t, "posts/trip/index.html", trip.OutputPath)
	assert.Equal(t, []string{"posts/trip/cover.jpg"}, trip.Resources)
	assert.Equal(t, []string{"posts/files/notes.txt"}, tree.Files)
}

type fixedLastMod time.Time

func (f fixedLastMod) LastModified(string) (time.Time, bool) { return time.Time(f), true }

func TestLoad_LastModSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "---\ndate: 2021-01-01\n---\n")
	writeFile(t, root, "b.md", "---\ndate: 2021-01-01\nlastmod: 2021-02-02\n---\n")

	opts := defaultOptions()
	opts.LastMod = fixedLastMod(time.Date(2022, 3, 3, 0, 0, 0, 0, time.UTC))
	docs, err := Load(t.Context(), root, opts)
	require.NoError(t, err)
	assert.Equal(t, 2022, docs[0].Lastmod().Year())
	assert.Equal(t, time.February, docs[1].Lastmod().Month())
}

func TestLoad_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "x")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Load(ctx, root, defaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_CustomTaxonomyKind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "---\nseries: Deep Dive\ntags: [go, Go, ' ']\n---\n")

	opts := defaultOptions()
	opts.Kinds = append(opts.Kinds, "series")
	docs, err := Load(t.Context(), root, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deep Dive"}, docs[0].Taxonomies["series"])
	assert.Equal(t, []string{"go"}, docs[0].Taxonomies["tags"])
}

func TestFingerprint_IgnoresVolatileFields(t *testing.T) {
	a, err := Fingerprint(map[string]any{"title": "x", "lastmod": "2021-01-01"}, []byte("body"))
	require.NoError(t, err)
	b, err := Fingerprint(map[string]any{"title": "x", "lastmod": "2022-01-01"}, []byte("body"))
	require.NoError(t, err)
	c, err := Fingerprint(map[string]any{"title": "y"}, []byte("body"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
