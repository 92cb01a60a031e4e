package templates

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/fragments/notice.html": {Data: []byte(
			`{{define "notice"}}<li class="{{.Level}}">{{.Message}}</li>{{end}}`)},
	}
}

func TestRender(t *testing.T) {
	r, err := New(testFS(), "templates/fragments/*.html")
	require.NoError(t, err)

	out, err := r.Render("notice", map[string]string{"Level": "error", "Message": "<b>down</b>"})
	require.NoError(t, err)
	assert.Equal(t, `<li class="error">&lt;b&gt;down&lt;/b&gt;</li>`, out)
}

func TestRenderToBuffer(t *testing.T) {
	r, err := New(testFS(), "templates/fragments/*.html")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderToBuffer(&buf, "notice", map[string]string{"Level": "warn", "Message": "a"}))
	require.NoError(t, r.RenderToBuffer(&buf, "notice", map[string]string{"Level": "warn", "Message": "b"}))
	assert.Equal(t, `<li class="warn">a</li><li class="warn">b</li>`, buf.String())
}

func TestRenderErrors(t *testing.T) {
	_, err := New(testFS())
	assert.Error(t, err)

	_, err = New(testFS(), "missing/*.html")
	assert.ErrorContains(t, err, "parse templates")

	r, err := New(testFS(), "templates/fragments/*.html")
	require.NoError(t, err)
	_, err = r.Render("nope", nil)
	assert.ErrorContains(t, err, "render nope")
}

func TestReload(t *testing.T) {
	fsys := testFS()
	r, err := New(fsys, "templates/fragments/*.html")
	require.NoError(t, err)

	fsys["templates/fragments/notice.html"] = &fstest.MapFile{Data: []byte(`{{define "notice"}}!{{.Message}}{{end}}`)}
	require.NoError(t, r.Reload())
	out, err := r.Render("notice", map[string]string{"Message": "x"})
	require.NoError(t, err)
	assert.Equal(t, "!x", out)
}
