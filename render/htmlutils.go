package render

import (
	"strings"

	"golang.org/x/net/html"
)

// block level elements are separated by a space in plain text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "tr": true, "td": true, "th": true,
}

// textContent concatenates the text nodes below n, skipping scripts and styles.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if blockElements[n.Data] {
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteByte(' ')
		}
	}

	walk(n)
	return sb.String()
}

// FirstImage returns the src of the first img element in content, if any.
func FirstImage(content string) string {
	if !isMarkup(content) {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	img := findNodeByTag(doc, "img")
	if img == nil {
		return ""
	}
	for _, attr := range img.Attr {
		if attr.Key == "src" {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

func findNodeByTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findNodeByTag(c, tag); result != nil {
			return result
		}
	}
	return nil
}
