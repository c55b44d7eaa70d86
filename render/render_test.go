package render

import (
	"testing"

	"github.com/foomo/ophelia-mcp/service/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownPlainText(t *testing.T) {
	md, err := Markdown("  Just a line of text.  ")
	require.NoError(t, err)
	assert.Equal(t, vo.Markdown("Just a line of text."), md)
}

func TestMarkdownFromHTML(t *testing.T) {
	md, err := Markdown(`<p>Hello <strong>world</strong></p><p>See <a href="https://example.com/x">the archive</a></p>`)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Hello **world**")
	assert.Contains(t, string(md), "[the archive](https://example.com/x)")
}

func TestMarkdownSanitizes(t *testing.T) {
	md, err := Markdown(`<p>Safe</p><script>alert("x")</script><p onclick="steal()">text</p>`)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Safe")
	assert.Contains(t, string(md), "text")
	assert.NotContains(t, string(md), "alert")
	assert.NotContains(t, string(md), "steal")
}

func TestPlainText(t *testing.T) {
	tests := map[string]string{
		"":                                       "",
		"  plain   text \n here ":                "plain text here",
		"<p>One</p><p>Two</p>":                   "One Two",
		"<h1>Title</h1>body <em>text</em>":       "Title body text",
		"<p>a</p><script>var x = 1;</script>":    "a",
		"<ul><li>first</li><li>second</li></ul>": "first second",
	}
	for in, want := range tests {
		assert.Equal(t, want, PlainText(in), "input %q", in)
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "no limit at all", Excerpt("no   limit at all", 0))
	assert.Equal(t, "The quick brown…", Excerpt("The quick brown fox jumps", 18))
	assert.Equal(t, "Женщины…", Excerpt("Женщины искусства", 10))
	assert.Equal(t, "abcdefgh…", Excerpt("abcdefghijkl", 8))
}

func TestIsVideo(t *testing.T) {
	for _, path := range []string{"/uploads/a.mp4", "./clip.MP4", "https://cdn/x.mp4?v=2", " b.mp4 "} {
		assert.True(t, IsVideo(path), path)
	}
	for _, path := range []string{"", "/uploads/a.jpg", "mp4", "/a.mp4.png"} {
		assert.False(t, IsVideo(path), path)
	}
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "/uploads/cover.jpg", FirstImage(`<p>x</p><figure><img alt="" src=" /uploads/cover.jpg "></figure><img src="/b.jpg">`))
	assert.Empty(t, FirstImage("no markup"))
	assert.Empty(t, FirstImage("<p>no image</p>"))
}
