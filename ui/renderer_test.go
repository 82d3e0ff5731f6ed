package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticPath(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	css := r.StaticPath("css/dashboard.css")
	assert.Regexp(t, `^/static/css/dashboard\.css\?v=[0-9a-f]{8}$`, css)
	assert.Equal(t, css, r.StaticPath("/css/dashboard.css"))
	assert.NotEqual(t, css, r.StaticPath("js/dashboard.js"))
	assert.Equal(t, "/static/img/missing.png", r.StaticPath("img/missing.png"))
}

func TestRenderMarkdown(t *testing.T) {
	out := string(renderMarkdown("**bold**\n\n- one\n- two\n"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<li>one</li>")

	assert.True(t, strings.HasPrefix(troubleshooting(), "💡"))
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, r.Render(&buf, "missing.html", nil))
	assert.Zero(t, buf.Len())
}

func TestRenderErrorFragment(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "upload_error.html", &ErrorView{
		Title:  "File validation failed",
		Errors: []string{"CSV file is empty", `<script>alert("x")</script>`},
	}))
	out := buf.String()
	assert.Contains(t, out, "• CSV file is empty")
	assert.NotContains(t, out, "<script>", "error text is escaped")
	assert.NotContains(t, out, `class="tips"`)
}
