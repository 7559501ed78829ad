package taxonomy

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

func doc(path, section, date string, tags ...string) *content.Document {
	d := &content.Document{Path: path, Section: section}
	if date != "" {
		t, err := content.ParseDate(date)
		if err != nil {
			panic(err)
		}
		d.FrontMatter.Date = t
	}
	if len(tags) > 0 {
		d.Taxonomies = map[string][]string{"tags": tags}
	}
	return d
}

func defaultOptions() Options {
	return Options{Kinds: []string{"tags", "categories"}, PageSize: 10}
}

func paths(docs []*content.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		n, size int
		want    [][2]int
	}{
		{0, 10, [][2]int{{0, 0}}},
		{1, 10, [][2]int{{0, 1}}},
		{10, 10, [][2]int{{0, 10}}},
		{11, 10, [][2]int{{0, 10}, {10, 11}}},
		{7, 3, [][2]int{{0, 3}, {3, 6}, {6, 7}}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.size), func(t *testing.T) {
			pages, err := Paginate(tt.n, tt.size)
			require.NoError(t, err)
			require.Len(t, pages, len(tt.want))
			for i, p := range pages {
				assert.Equal(t, i+1, p.Number)
				assert.Equal(t, tt.want[i][0], p.Start)
				assert.Equal(t, tt.want[i][1], p.End)
			}
		})
	}

	_, err := Paginate(3, 0)
	require.Error(t, err)
}

func TestBuild_TwoDatedDocumentsScenario(t *testing.T) {
	older := doc("posts/older.md", "posts", "2021-01-01", "x")
	newer := doc("posts/newer.md", "posts", "2021-06-01", "x")

	set, err := Build([]*content.Document{older, newer}, defaultOptions())
	require.NoError(t, err)

	ix, ok := set.Term("tags", "x")
	require.True(t, ok)
	require.Len(t, ix.Pages, 1)
	assert.Equal(t, []string{"posts/newer.md", "posts/older.md"}, paths(ix.Items(ix.Pages[0])))
	assert.Equal(t, "/tags/x/", ix.RelPermalink)
	assert.Equal(t, "tags/x/index.html", ix.Pages[0].OutputPath())
}

func TestBuild_TagCountsAndOrderAcrossPages(t *testing.T) {
	var docs []*content.Document
	for i := range 25 {
		date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%7)
		d := doc(fmt.Sprintf("posts/p%02d.md", i), "posts", date.Format("2006-01-02"), "go")
		docs = append(docs, d)
	}
	docs = append(docs, doc("posts/untagged.md", "posts", "2020-02-01"))

	opts := defaultOptions()
	opts.PageSize = 4
	set, err := Build(docs, opts)
	require.NoError(t, err)

	ix, ok := set.Term("tags", "go")
	require.True(t, ok)
	assert.Len(t, ix.Pages, 7)

	var seen []*content.Document
	for _, p := range ix.Pages {
		seen = append(seen, ix.Items(p)...)
	}
	require.Len(t, seen, 25)
	for i := 1; i < len(seen); i++ {
		prev, cur := seen[i-1], seen[i]
		assert.False(t, cur.Date().After(prev.Date()), "dates must not increase")
		if cur.Date().Equal(prev.Date()) {
			assert.Less(t, prev.Path, cur.Path)
		}
	}
	assert.Equal(t, "/tags/go/page/2/", ix.Pages[1].RelPermalink)
	assert.Equal(t, "tags/go/page/2/index.html", ix.Pages[1].OutputPath())
}

func TestBuild_UntaggedDocumentHasNoTermEntries(t *testing.T) {
	untagged := doc("a.md", "", "2021-01-01")
	tagged := doc("b.md", "", "2021-01-02", "y")

	set, err := Build([]*content.Document{untagged, tagged}, defaultOptions())
	require.NoError(t, err)
	for _, kind := range set.Kinds() {
		for _, ix := range set.Terms[kind] {
			assert.NotContains(t, ix.Documents, untagged)
		}
	}
	assert.Empty(t, untagged.Terms)
	require.Len(t, tagged.Terms, 1)
	assert.Equal(t, content.TermRef{Kind: "tags", Term: "y", Name: "y", RelPermalink: "/tags/y/"}, tagged.Terms[0])
}

func TestBuild_DeclaredTermWithoutDocuments(t *testing.T) {
	opts := defaultOptions()
	opts.Declared = map[string][]string{"tags": {"Rust"}}

	set, err := Build(nil, opts)
	require.NoError(t, err)

	ix, ok := set.Term("tags", "rust")
	require.True(t, ok)
	assert.Equal(t, "Rust", ix.Name)
	assert.Equal(t, 0, ix.Len())
	require.Len(t, ix.Pages, 1)
	assert.Empty(t, ix.Items(ix.Pages[0]))
}

func TestBuild_EmptySite(t *testing.T) {
	set, err := Build(nil, defaultOptions())
	require.NoError(t, err)
	require.NotNil(t, set.Home)
	assert.Len(t, set.Home.Pages, 1)
	assert.Empty(t, set.Sections)
	assert.Empty(t, set.Archives)
	assert.Empty(t, set.Terms["tags"])
	assert.Equal(t, []*Index{set.Home}, set.All())
}

func TestBuild_SectionsHomeAndArchives(t *testing.T) {
	docs := []*content.Document{
		doc("posts/a.md", "posts", "2020-05-01"),
		doc("posts/b.md", "posts", "2021-03-01"),
		doc("notes/c.md", "notes", "2021-01-01"),
		doc("about.md", "", ""),
		{Path: "posts/_index.md", Section: "posts", SectionIndex: true},
	}
	set, err := Build(docs, defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"notes", "posts"}, set.SectionNames())
	assert.Equal(t, []string{"posts/b.md", "posts/a.md"}, paths(set.Sections["posts"].Documents))
	assert.Equal(t, "Posts", set.Sections["posts"].Name)

	assert.Equal(t, []string{"posts/b.md", "notes/c.md", "posts/a.md", "about.md"}, paths(set.Home.Documents))

	require.Len(t, set.Archives, 2)
	assert.Equal(t, "2021", set.Archives[0].Key)
	assert.Equal(t, "/archives/2021/", set.Archives[0].RelPermalink)
	assert.Equal(t, []string{"posts/b.md", "notes/c.md"}, paths(set.Archives[0].Documents))
	assert.Equal(t, "2020", set.Archives[1].Key)
}

func TestBuild_TermDisplayNameAndSlug(t *testing.T) {
	a := doc("a.md", "", "2021-01-01", "Go Lang")
	b := doc("b.md", "", "2021-02-01", "go-lang")

	set, err := Build([]*content.Document{b, a}, defaultOptions())
	require.NoError(t, err)
	ix, ok := set.Term("tags", "go-lang")
	require.True(t, ok)
	assert.Equal(t, "Go Lang", ix.Name)
	assert.Equal(t, 2, ix.Len())
}

func TestBuild_RebuildDoesNotDuplicateBacklinks(t *testing.T) {
	d := doc("a.md", "", "2021-01-01", "x")
	_, err := Build([]*content.Document{d}, defaultOptions())
	require.NoError(t, err)
	_, err = Build([]*content.Document{d}, defaultOptions())
	require.NoError(t, err)
	assert.Len(t, d.Terms, 1)
}

func TestBuild_RejectsNonPositivePageSize(t *testing.T) {
	_, err := Build(nil, Options{PageSize: 0})
	require.Error(t, err)
}
