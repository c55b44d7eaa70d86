package service

import "strings"

// ResolveMediaURL turns a backend media path into a URL the site can fetch.
// Absolute http(s) URLs pass through, everything else becomes root-relative.
// Applying it to its own output is a no-op.
func ResolveMediaURL(path string) string {
	trimmed := strings.TrimSpace(path)
	switch {
	case trimmed == "":
		return ""
	case strings.HasPrefix(trimmed, "http://"), strings.HasPrefix(trimmed, "https://"):
		return trimmed
	case strings.HasPrefix(trimmed, "./"):
		return trimmed[1:]
	case strings.HasPrefix(trimmed, "/"):
		return trimmed
	}
	return "/" + trimmed
}
