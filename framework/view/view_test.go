package view_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/galanthus/framework/broker"
	"github.com/km-arc/galanthus/framework/di"
	gohttp "github.com/km-arc/galanthus/framework/http"
	"github.com/km-arc/galanthus/framework/view"
	"github.com/km-arc/galanthus/framework/view/helpers"
)

// writeTemplates creates files relative to a temp dir and returns it.
func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

// ── Renderer ─────────────────────────────────────────────────────────────────

func TestRenderer_SearchPathsInOrder(t *testing.T) {
	first := writeTemplates(t, map[string]string{"index.html": "first {{.n}}"})
	second := writeTemplates(t, map[string]string{
		"index.html":       "second",
		"cities/list.html": "list",
	})

	r := view.NewRenderer([]string{first, second}).SetParam("n", 1)

	out, err := r.Render("index")
	require.NoError(t, err)
	assert.Equal(t, "first 1", out)

	out, err = r.Render("cities/list")
	require.NoError(t, err)
	assert.Equal(t, "list", out)

	_, err = r.Render("missing")
	assert.ErrorIs(t, err, view.ErrScriptNotFound)
}

func TestRenderer_EscapesParams(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"x.html": "<p>{{.v}}</p>"})
	out, err := view.NewRenderer([]string{dir}).SetParam("v", "<script>").Render("x")
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;script&gt;</p>", out)
}

func TestRenderer_CloneIsolatesParams(t *testing.T) {
	r := view.NewRenderer([]string{"a"}).SetParam("k", 1)
	c := r.Clone().SetParam("k", 2)

	assert.Equal(t, 1, r.Params()["k"])
	assert.Equal(t, 2, c.Params()["k"])
	assert.Equal(t, r.Paths(), c.Paths())

	c.ClearParams()
	assert.Empty(t, c.Params())
	assert.Len(t, r.Params(), 1)
}

func TestRenderer_Helpers(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"page.html":    `{{ partial "row" . }}|{{ escape "<i>" }}`,
		"row.html":     `row {{.name}}`,
		"unknown.html": `{{ nope }}`,
	})

	c := di.New()
	helpers.Register(c)
	r := view.NewRenderer([]string{dir})
	r.SetHelpers(broker.New(c, []string{helpers.Namespace}))
	r.SetParam("name", "Varna")

	out, err := r.Render("page")
	require.NoError(t, err)
	assert.Equal(t, "row Varna|&lt;i&gt;", out)

	_, err = r.Render("unknown")
	assert.Error(t, err)
}

// ── Decorators ───────────────────────────────────────────────────────────────

func newResponse(t *testing.T, dir string, specs ...any) *gohttp.Response {
	t.Helper()
	r := view.NewRenderer([]string{dir})
	resolve := func() (*view.Renderer, error) { return r, nil }

	reg := gohttp.NewDecoratorRegistry()
	reg.Register(view.RendererDecoratorName, view.RendererFactory(resolve))
	reg.Register(view.LayoutDecoratorName, view.LayoutFactory(resolve))

	res, err := gohttp.NewResponse(reg, specs, map[string]string{view.LayoutInstruction: "layout"})
	require.NoError(t, err)
	return res
}

func TestDecorators_RendererAndLayout(t *testing.T) {
	dir := writeTemplates(t, map[string]string{
		"layout.html":       `<title>{{.title}}</title><main>{{.content}}</main>`,
		"cities/index.html": `<p>{{.city}}</p>`,
	})
	res := newResponse(t, dir,
		map[string]any{"httpHeaders": map[string]any{"headers": []any{"Content-Type: text/html"}}},
		"renderer",
		map[string]any{"layout": map[string]any{"params": map[string]any{"title": "Galanthus"}}},
	)
	res.SetScript("cities/index").SetParam("city", "Plovdiv")

	rr := httptest.NewRecorder()
	require.NoError(t, res.Output(rr))
	assert.Equal(t, "<title>Galanthus</title><main><p>Plovdiv</p></main>", rr.Body.String())
	assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))
}

func TestDecorators_ResponseParamsOverrideLayoutParams(t *testing.T) {
	dir := writeTemplates(t, map[string]string{"other.html": `{{.title}}:{{.content}}`})
	res := newResponse(t, dir, map[string]any{"layout": map[string]any{"params": map[string]any{"title": "default"}}})
	res.SetInstruction(view.LayoutInstruction, "other").SetParam("title", "mine")

	out, err := res.Render()
	require.NoError(t, err)
	assert.Equal(t, "mine:", out)
}

func TestDecorators_NoScriptPassesThrough(t *testing.T) {
	res := newResponse(t, t.TempDir(), "renderer")
	out, err := res.Render()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecorators_MissingScriptFails(t *testing.T) {
	res := newResponse(t, t.TempDir(), "renderer")
	res.SetScript("nope")
	_, err := res.Render()
	assert.ErrorIs(t, err, view.ErrScriptNotFound)
}
