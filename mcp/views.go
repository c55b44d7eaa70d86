package mcp

import (
	"github.com/foomo/ophelia-mcp/service/vo"
)

const defaultWomanPhoto = "/assets/photo1.jpeg"

type SiteSettingsView struct {
	vo.SiteSettings
	BackgroundURL string      `json:"backgroundURL"` // resolved
	AvatarURL     string      `json:"avatarURL"`     // resolved
	AboutMarkdown vo.Markdown `json:"aboutMarkdown"`
}

type PostView struct {
	vo.Post
	MediaURL string      `json:"mediaURL"`
	IsVideo  bool        `json:"isVideo"`
	Markdown vo.Markdown `json:"markdown"`
	Excerpt  string      `json:"excerpt"`
	Liked    bool        `json:"liked"`
}

type ProjectView struct {
	vo.Project
	MediaURL string      `json:"mediaURL"` // resolved
	IsVideo  bool        `json:"isVideo"`
	Markdown vo.Markdown `json:"markdown"`
	Liked    bool        `json:"liked"`
}

type EventView struct {
	vo.Event
	MediaURL          string `json:"mediaURL"`
	IsVideo           bool   `json:"isVideo"`
	ParticipantsLabel string `json:"participantsLabel"`
	IsFull            bool   `json:"isFull"`
	Liked             bool   `json:"liked"`
}

type NewsView struct {
	vo.NewsPost
	ImageURL string `json:"imageURL"` // resolved
	Excerpt  string `json:"excerpt"`
	Liked    bool   `json:"liked"`
}

type WomanView struct {
	vo.Woman
	Photo string `json:"photo"`
	Liked bool   `json:"liked"`
}

type WomenPageView struct {
	Items      []WomanView `json:"items"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int         `json:"total"`
	TotalPages int         `json:"totalPages"`
	HasPrev    bool        `json:"hasPrev"`
	HasNext    bool        `json:"hasNext"`
}

type RegistrationView struct {
	vo.Registration
	Message string `json:"message"`
}

type LikeView struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Liked bool   `json:"liked"`
}
