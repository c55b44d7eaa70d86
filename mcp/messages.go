package mcp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/foomo/ophelia-mcp/service"
)

// Content kinds served by the tools and the content stream.
const (
	KindSettings = "settings"
	KindPosts    = "posts"
	KindProjects = "projects"
	KindEvents   = "events"
	KindNews     = "news"
	KindWomen    = "women"
)

const (
	msgRegistered         = "You are registered."
	msgNoCapacity         = "No places left."
	msgRegistrationFailed = "Registration failed."
)

var loadErrorMessages = map[string]string{
	KindSettings: "Failed to load the home page.",
	KindPosts:    "Failed to load posts.",
	KindProjects: "Failed to load projects.",
	KindEvents:   "Failed to load events.",
	KindNews:     "Failed to load channel news.",
	KindWomen:    "Failed to load the women archive.",
}

// LoadErrorMessage is the user facing text for a failed load of kind.
func LoadErrorMessage(kind string) string {
	if msg, ok := loadErrorMessages[kind]; ok {
		return msg
	}
	return "Failed to load content."
}

// RegistrationErrorMessage maps a registration failure to user facing text.
// A full event always reads as the capacity text; for other statuses the
// backend supplied message is shown when present.
func RegistrationErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrNoCredential), errors.Is(err, service.ErrEventIDRequired):
		return err.Error()
	}
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusConflict {
			return msgNoCapacity
		}
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
	}
	return msgRegistrationFailed
}
