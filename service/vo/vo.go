package vo

import (
	"fmt"
	"slices"
)

type Markdown string

// SiteSettings is the singleton home/about/contact configuration of the site.
type SiteSettings struct {
	ID              string `json:"id"`
	BackgroundURL   string `json:"backgroundURL"`
	AvatarURL       string `json:"avatarURL"`
	HomeDescription string `json:"homeDescription"`
	AboutText       string `json:"aboutText"`
	ContactEmail    string `json:"contactEmail"`
	ContactPhone    string `json:"contactPhone"`
	ContactLocation string `json:"contactLocation"`
}

type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	MediaPath string `json:"mediaPath"`
	CreatedAt string `json:"createdAt"`
	IsHidden  bool   `json:"isHidden"`
}

// NewsPost is a post mirrored from the public channel.
type NewsPost struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"imageURL"`
	PostURL  string `json:"postURL"`
}

type Event struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	Date                string  `json:"date"`
	Time                string  `json:"time"`
	Location            string  `json:"location"`
	MediaPath           string  `json:"mediaPath"`
	MaxParticipants     int     `json:"maxParticipants"`     // 0 means unlimited
	CurrentParticipants []int64 `json:"currentParticipants"` // one marker per participant
}

// Enrolled returns the number of registered participants.
func (e Event) Enrolled() int {
	return len(e.CurrentParticipants)
}

// IsFull reports whether a limited event has no free places left.
func (e Event) IsFull() bool {
	return e.MaxParticipants > 0 && e.Enrolled() >= e.MaxParticipants
}

// ParticipantsLabel renders "current / max", or just the count for unlimited events.
func (e Event) ParticipantsLabel() string {
	if e.MaxParticipants <= 0 {
		return fmt.Sprintf("%d participant(s)", e.Enrolled())
	}
	return fmt.Sprintf("%d / %d", e.Enrolled(), e.MaxParticipants)
}

// WithParticipant returns a copy with one more participant marker appended.
// The marker is -1 because the caller does not know the participant's id.
func (e Event) WithParticipant() Event {
	e.CurrentParticipants = append(slices.Clone(e.CurrentParticipants), -1)
	return e
}

type Project struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	DetailedContent  string `json:"detailedContent"`
	MediaURL         string `json:"mediaURL"`
}

// Woman is a biographical record of the archive.
type Woman struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Biography string   `json:"biography"`
	PhotoURL  string   `json:"photoURL"`
	Century   string   `json:"century"`
	Spheres   []string `json:"spheres"`
}

type WomenPage struct {
	Items  []Woman `json:"items"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Total  int     `json:"total"`
}

// Page returns the one-based page number described by Limit and Offset.
func (p WomenPage) Page() int {
	if p.Limit <= 0 {
		return 1
	}
	return p.Offset/p.Limit + 1
}

func (p WomenPage) TotalPages() int {
	if p.Total <= 0 || p.Limit <= 0 {
		return 1
	}
	return max(1, (p.Total+p.Limit-1)/p.Limit)
}

func (p WomenPage) HasPrev() bool {
	return p.Page() > 1
}

func (p WomenPage) HasNext() bool {
	return p.Page() < p.TotalPages()
}

// Registration acknowledges an event registration.
type Registration struct {
	OK      bool   `json:"ok"`
	EventID string `json:"eventID"`
}
