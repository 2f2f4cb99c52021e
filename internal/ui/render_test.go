package ui

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Card(t *testing.T) {
	r := NewHTMLRenderer()

	t.Run("defaults", func(t *testing.T) {
		out, err := r.Render(TypeCard, nil)
		require.NoError(t, err)
		assert.Contains(t, out, "Card Title")
		assert.Contains(t, out, "Card content goes here")
		assert.Contains(t, out, "linear-gradient(135deg, #667eea 0%, #764ba2 100%)")
	})

	t.Run("escapes values", func(t *testing.T) {
		out, err := r.Render(TypeCard, map[string]any{
			"title":   "<script>alert(1)</script>",
			"content": `Tom & "Jerry"`,
		})
		require.NoError(t, err)
		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
		assert.Contains(t, out, "Tom &amp; &#34;Jerry&#34;")
	})
}

func TestRender_Table(t *testing.T) {
	r := NewHTMLRenderer()

	t.Run("default rows", func(t *testing.T) {
		out, err := r.Render(TypeTable, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, 3, strings.Count(out, "<tr "))
		assert.Contains(t, out, "API Integration")
		assert.Equal(t, 1, strings.Count(out, "background: #667eea"))
	})

	t.Run("decoded json rows", func(t *testing.T) {
		out, err := r.Render(TypeTable, map[string]any{
			"rows": []any{
				[]any{"Name", "Score"},
				[]any{"Ana", float64(42)},
				"not a row",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out, "<tr "))
		assert.Contains(t, out, ">42</td>")
		assert.NotContains(t, out, "Project Setup")
	})
}

func TestRender_Timeline(t *testing.T) {
	r := NewHTMLRenderer()

	out, err := r.Render(TypeTimeline, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "#10b981")
	assert.Contains(t, out, "#f59e0b")
	assert.Contains(t, out, "#6b7280")
	// connectors between milestones only
	assert.Equal(t, 2, strings.Count(out, "background: #e5e7eb"))
	assert.NotContains(t, out, "false")

	out, err = r.Render(TypeTimeline, map[string]any{
		"milestones": []any{
			map[string]any{"title": "Kickoff", "status": "Complete"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Kickoff")
	assert.Equal(t, 0, strings.Count(out, "background: #e5e7eb"))
}

func TestRender_QRCode(t *testing.T) {
	r := NewHTMLRenderer()

	out, err := r.Render(TypeQRCode, map[string]any{"url": "https://example.com"})
	require.NoError(t, err)

	const prefix = `src="data:image/png;base64,`
	start := strings.Index(out, prefix)
	require.GreaterOrEqual(t, start, 0)
	encoded := out[start+len(prefix):]
	encoded = encoded[:strings.Index(encoded, `"`)]

	png, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	_, err = r.Render(TypeQRCode, map[string]any{})
	assert.Error(t, err)
}

func TestRender_Default(t *testing.T) {
	r := NewHTMLRenderer()

	out, err := r.Render("chart", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "UI Element")

	out, err = r.Render("chart", map[string]any{"content": "a < b"})
	require.NoError(t, err)
	assert.Contains(t, out, "a &lt; b")
}
