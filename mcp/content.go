package mcp

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/foomo/ophelia-mcp/preferences"
	"github.com/foomo/ophelia-mcp/render"
	"github.com/foomo/ophelia-mcp/service"
	"github.com/foomo/ophelia-mcp/service/vo"
	"go.uber.org/zap"
)

const excerptLength = 280

// content builds the caller facing views on top of the content client.
type content struct {
	l     *zap.Logger
	svc   service.Service
	prefs *preferences.Store
}

// ContentQuery selects what content.load returns.
type ContentQuery struct {
	Kind          string
	ForceReload   bool
	IncludeHidden bool
	Page          int
	Limit         int
}

func (c *content) load(ctx context.Context, q ContentQuery) (any, error) {
	switch q.Kind {
	case KindSettings:
		return c.siteSettings(ctx, q.ForceReload), nil
	case KindPosts:
		return c.posts(ctx, q.IncludeHidden)
	case KindProjects:
		return c.projects(ctx)
	case KindEvents:
		return c.events(ctx)
	case KindNews:
		return c.news(ctx)
	case KindWomen:
		return c.women(ctx, q.Page, q.Limit)
	}
	return nil, fmt.Errorf("unknown content kind %q", q.Kind)
}

func (c *content) siteSettings(ctx context.Context, forceReload bool) SiteSettingsView {
	settings := c.svc.GetSiteSettings(ctx, forceReload)
	return SiteSettingsView{
		SiteSettings:  settings,
		BackgroundURL: service.ResolveMediaURL(settings.BackgroundURL),
		AvatarURL:     service.ResolveMediaURL(settings.AvatarURL),
		AboutMarkdown: c.markdown(settings.AboutText),
	}
}

func (c *content) posts(ctx context.Context, includeHidden bool) ([]PostView, error) {
	posts, err := c.svc.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	liked := c.liked(ctx, KindPosts)
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		if post.IsHidden && !includeHidden {
			continue
		}
		views = append(views, PostView{
			Post:     post,
			MediaURL: service.ResolveMediaURL(post.MediaPath),
			IsVideo:  render.IsVideo(post.MediaPath),
			Markdown: c.markdown(post.Content),
			Excerpt:  render.Excerpt(render.PlainText(post.Content), excerptLength),
			Liked:    liked[post.ID],
		})
	}
	return likedFirst(views, func(v PostView) bool { return v.Liked }), nil
}

func (c *content) projects(ctx context.Context) ([]ProjectView, error) {
	projects, err := c.svc.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	liked := c.liked(ctx, KindProjects)
	views := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		mediaURL := project.MediaURL
		if mediaURL == "" {
			mediaURL = render.FirstImage(project.DetailedContent)
		}
		views = append(views, ProjectView{
			Project:  project,
			MediaURL: service.ResolveMediaURL(mediaURL),
			IsVideo:  render.IsVideo(mediaURL),
			Markdown: c.markdown(project.DetailedContent),
			Liked:    liked[project.ID],
		})
	}
	return likedFirst(views, func(v ProjectView) bool { return v.Liked }), nil
}

func (c *content) events(ctx context.Context) ([]EventView, error) {
	events, err := c.svc.GetEvents(ctx)
	if err != nil {
		return nil, err
	}
	liked := c.liked(ctx, KindEvents)
	views := make([]EventView, 0, len(events))
	for _, event := range events {
		views = append(views, eventView(event, liked[event.ID]))
	}
	return likedFirst(views, func(v EventView) bool { return v.Liked }), nil
}

func eventView(event vo.Event, liked bool) EventView {
	return EventView{
		Event:             event,
		MediaURL:          service.ResolveMediaURL(event.MediaPath),
		IsVideo:           render.IsVideo(event.MediaPath),
		ParticipantsLabel: event.ParticipantsLabel(),
		IsFull:            event.IsFull(),
		Liked:             liked,
	}
}

func (c *content) news(ctx context.Context) ([]NewsView, error) {
	news, err := c.svc.GetNews(ctx)
	if err != nil {
		return nil, err
	}
	liked := c.liked(ctx, KindNews)
	views := make([]NewsView, 0, len(news))
	for _, post := range news {
		views = append(views, NewsView{
			NewsPost: post,
			ImageURL: service.ResolveMediaURL(post.ImageURL),
			Excerpt:  render.Excerpt(render.PlainText(post.Text), excerptLength),
			Liked:    liked[post.ID],
		})
	}
	return likedFirst(views, func(v NewsView) bool { return v.Liked }), nil
}

func (c *content) women(ctx context.Context, page, limit int) (*WomenPageView, error) {
	womenPage, err := c.svc.GetWomen(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	liked := c.liked(ctx, KindWomen)
	view := &WomenPageView{
		Items:      make([]WomanView, 0, len(womenPage.Items)),
		Page:       womenPage.Page(),
		Limit:      womenPage.Limit,
		Total:      womenPage.Total,
		TotalPages: womenPage.TotalPages(),
		HasPrev:    womenPage.HasPrev(),
		HasNext:    womenPage.HasNext(),
	}
	for _, woman := range womenPage.Items {
		photo := defaultWomanPhoto
		if woman.PhotoURL != "" {
			photo = service.ResolveMediaURL(woman.PhotoURL)
		}
		view.Items = append(view.Items, WomanView{
			Woman: woman,
			Photo: photo,
			Liked: liked[strconv.Itoa(woman.ID)],
		})
	}
	likedFirst(view.Items, func(v WomanView) bool { return v.Liked })
	return view, nil
}

func (c *content) register(ctx context.Context, eventID string) (*RegistrationView, error) {
	registration, err := c.svc.RegisterForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &RegistrationView{Registration: *registration, Message: msgRegistered}, nil
}

// likedFirst moves liked items to the front and keeps the order otherwise.
func likedFirst[T any](items []T, liked func(T) bool) []T {
	slices.SortStableFunc(items, func(a, b T) int {
		switch la, lb := liked(a), liked(b); {
		case la && !lb:
			return -1
		case !la && lb:
			return 1
		}
		return 0
	})
	return items
}

// liked returns the liked ids of kind; preference failures only cost the flags.
func (c *content) liked(ctx context.Context, kind string) map[string]bool {
	set := map[string]bool{}
	if c.prefs == nil {
		return set
	}
	ids, err := c.prefs.Liked(ctx, kind)
	if err != nil {
		c.l.Warn("failed to read liked items", zap.String("kind", kind), zap.Error(err))
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (c *content) markdown(text string) vo.Markdown {
	md, err := render.Markdown(text)
	if err != nil {
		c.l.Debug("failed to render markdown", zap.Error(err))
		return vo.Markdown(text)
	}
	return md
}
