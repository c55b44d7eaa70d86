package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/foomo/ophelia-mcp/service/vo"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var policy = bluemonday.UGCPolicy()

// Markdown converts CMS rich text to Markdown. Content without markup is
// returned as is, trimmed.
func Markdown(content string) (vo.Markdown, error) {
	content = strings.TrimSpace(content)
	if !isMarkup(content) {
		return vo.Markdown(content), nil
	}

	doc, err := html.Parse(strings.NewReader(policy.Sanitize(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	markdownBytes, err := htmltomarkdown.ConvertNode(doc)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return vo.Markdown(strings.TrimSpace(string(markdownBytes))), nil
}

// PlainText strips all markup and collapses whitespace.
func PlainText(content string) string {
	content = strings.TrimSpace(content)
	if !isMarkup(content) {
		return collapseSpace(content)
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return collapseSpace(content)
	}
	return collapseSpace(textContent(doc))
}

// Excerpt shortens text to at most n runes, cutting at a word boundary when
// possible.
func Excerpt(text string, n int) string {
	text = collapseSpace(text)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// IsVideo reports whether a media path points to a video file.
func IsVideo(path string) bool {
	path = strings.ToLower(strings.TrimSpace(path))
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(path, ".mp4")
}

func isMarkup(content string) bool {
	return strings.Contains(content, "<")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
