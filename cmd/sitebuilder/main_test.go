package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
)

type cliEnv struct {
	dir    string
	config string
	out    *bytes.Buffer
	err    *bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{
		dir:    dir,
		config: filepath.Join(dir, "sitebuilder.yaml"),
		out:    &bytes.Buffer{},
		err:    &bytes.Buffer{},
	}
}

func (e *cliEnv) run(args ...string) int {
	e.out.Reset()
	e.err.Reset()
	return run(append([]string{"-c", e.config}, args...), &commands.Global{Out: e.out, Err: e.err})
}

func (e *cliEnv) appendConfig(t *testing.T, yaml string) {
	t.Helper()
	f, err := os.OpenFile(e.config, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(yaml)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func (e *cliEnv) write(t *testing.T, rel, body string) {
	t.Helper()
	p := filepath.Join(e.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func TestCLI_InitBuildListHistory(t *testing.T) {
	env := newCLIEnv(t)

	require.Equal(t, 0, env.run("init", "--layouts"), env.err.String())
	assert.Contains(t, env.out.String(), "initialized successfully")
	assert.FileExists(t, env.config)
	assert.FileExists(t, filepath.Join(env.dir, "content", "posts", "hello-world.md"))
	assert.FileExists(t, filepath.Join(env.dir, "theme", "layouts", "_default", "single.html"))

	env.appendConfig(t, "history:\n  database: state/history.db\nmetrics:\n  textfile: metrics.prom\n")

	manifestPath := filepath.Join(env.dir, "manifest.json")
	require.Equal(t, 0, env.run("build", "--manifest", manifestPath), env.err.String())
	assert.Contains(t, env.out.String(), "1 documents, wrote")
	assert.FileExists(t, filepath.Join(env.dir, "public", "posts", "hello-world", "index.html"))
	assert.FileExists(t, filepath.Join(env.dir, "public", "tags", "welcome", "index.html"))

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	m, err := manifest.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "success", m.Status)
	assert.Contains(t, m.Outputs.ArtifactHashes, "index.html")

	metrics, err := os.ReadFile(filepath.Join(env.dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `sitebuilder_build_outcomes_total{outcome="success"} 1`)

	require.Equal(t, 0, env.run("list"), env.err.String())
	assert.Contains(t, env.out.String(), "posts/hello-world.md")
	assert.Contains(t, env.out.String(), "/posts/hello-world/")

	require.Equal(t, 0, env.run("history"), env.err.String())
	assert.Contains(t, env.out.String(), "completed")
}

func TestCLI_InitRefusesToOverwrite(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, 0, env.run("init", "--no-content"))
	assert.NotEqual(t, 0, env.run("init"))
	assert.Contains(t, env.err.String(), "Error:")
	assert.Equal(t, 0, env.run("init", "--force", "--no-content"))
}

func TestCLI_CheckDoesNotWrite(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, 0, env.run("init"))

	require.Equal(t, 0, env.run("check"), env.err.String())
	assert.Contains(t, env.out.String(), "pages rendered")
	assert.NoDirExists(t, filepath.Join(env.dir, "public"))
}

func TestCLI_ExitCodes(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, 0, env.run("init"))

	env.write(t, "content/posts/broken.md", "---\ntitle: broken\n")
	assert.Equal(t, 3, env.run("build"))
	assert.Contains(t, env.err.String(), "posts/broken.md")
	require.NoError(t, os.Remove(filepath.Join(env.dir, "content", "posts", "broken.md")))

	env.write(t, "content/posts/a.md", "---\ntitle: A\n---\n{{< youtube id=1 >}}\n")
	env.write(t, "content/posts/b.md", "---\ntitle: B\n---\n{{< vimeo id=2 >}}\n")
	assert.Equal(t, 6, env.run("build", "--lenient"))
	assert.Contains(t, env.out.String(), "failed: posts/a.md")
	assert.Contains(t, env.out.String(), "failed: posts/b.md")
	assert.NoDirExists(t, filepath.Join(env.dir, "public"))

	assert.Equal(t, 2, env.run("no-such-command"))
}

func TestCLI_MissingLayoutSuggestsInit(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, 0, env.run("init"))
	env.appendConfig(t, "theme:\n  disable_builtin_layouts: true\n")

	assert.Equal(t, 4, env.run("check"))
	assert.Contains(t, env.out.String(), "init --layouts")

	require.Equal(t, 0, env.run("init", "--force", "--layouts"))
	env.appendConfig(t, "theme:\n  disable_builtin_layouts: true\n")
	assert.Equal(t, 0, env.run("check"), env.err.String())
}

func TestCLI_RejectsOutputOverContent(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, 0, env.run("init"))

	assert.Equal(t, 7, env.run("build", "-o", filepath.Join(env.dir, "content")))
	assert.FileExists(t, filepath.Join(env.dir, "content", "posts", "hello-world.md"))
}

func TestCLI_MissingConfig(t *testing.T) {
	env := newCLIEnv(t)
	assert.Equal(t, 7, env.run("build"))
	assert.Equal(t, 7, env.run("history"))
}

func TestCLI_HistoryRequiresDatabase(t *testing.T) {
	env := newCLIEnv(t)
	require.Equal(t, 0, env.run("init", "--no-content"))
	assert.Equal(t, 7, env.run("history"))
}
