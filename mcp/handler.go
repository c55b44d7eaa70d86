package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foomo/ophelia-mcp/preferences"
	"github.com/foomo/ophelia-mcp/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const Version = "0.0.1"

type SiteSettingsRequest struct {
	ForceReload bool `json:"forceReload"` // bypass the cached settings
}

type PostsRequest struct {
	IncludeHidden bool `json:"includeHidden"`
}

type ListRequest struct{}

type WomenRequest struct {
	Page  float64 `json:"page"`  // one-based
	Limit float64 `json:"limit"` // page size, defaults to 12
}

type RegisterRequest struct {
	EventID string `json:"eventId"`
}

type ResolveMediaRequest struct {
	Path string `json:"path"`
}

type ToggleLikeRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type ListLikesRequest struct {
	Kind string `json:"kind"`
}

var likeKinds = []string{KindPosts, KindProjects, KindEvents, KindNews, KindWomen}

// NewServer creates a new MCP server exposing the site content tools.
// The like tools are only registered when prefs is set.
func NewServer(l *zap.Logger, svc service.Service, prefs *preferences.Store) *server.MCPServer {
	if l == nil {
		l = zap.NewNop()
	}
	c := &content{l: l.With(zap.String("component", "mcp")), svc: svc, prefs: prefs}

	s := server.NewMCPServer(
		"Ophelia Content MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("getSiteSettings",
		mcp.WithDescription("Get the home, about and contact settings of the site"),
		mcp.WithBoolean("forceReload",
			mcp.Description("Reload the settings instead of using the cached copy"),
		),
	), mcp.NewTypedToolHandler(getSiteSettingsHandler(c)))

	s.AddTool(mcp.NewTool("getPosts",
		mcp.WithDescription("List blog posts with rendered markdown and resolved media"),
		mcp.WithBoolean("includeHidden",
			mcp.Description("Include posts marked as hidden"),
		),
	), mcp.NewTypedToolHandler(getPostsHandler(c)))

	s.AddTool(mcp.NewTool("getProjects",
		mcp.WithDescription("List projects"),
	), mcp.NewTypedToolHandler(getListHandler(c, KindProjects)))

	s.AddTool(mcp.NewTool("getEvents",
		mcp.WithDescription("List events with participant counts"),
	), mcp.NewTypedToolHandler(getListHandler(c, KindEvents)))

	s.AddTool(mcp.NewTool("getNews",
		mcp.WithDescription("List posts mirrored from the public channel"),
	), mcp.NewTypedToolHandler(getListHandler(c, KindNews)))

	s.AddTool(mcp.NewTool("getWomen",
		mcp.WithDescription("Get one page of the women archive"),
		mcp.WithNumber("page",
			mcp.Description("One-based page number"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Page size, defaults to %d", service.DefaultWomenLimit)),
		),
	), mcp.NewTypedToolHandler(getWomenHandler(c)))

	s.AddTool(mcp.NewTool("registerForEvent",
		mcp.WithDescription("Register the current user for an event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The id of the event"),
		),
	), mcp.NewTypedToolHandler(registerForEventHandler(c)))

	s.AddTool(mcp.NewTool("resolveMediaUrl",
		mcp.WithDescription("Turn a CMS media path into a usable URL"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("The media path as stored in the CMS"),
		),
	), mcp.NewTypedToolHandler(resolveMediaURLHandler()))

	if prefs != nil {
		s.AddTool(mcp.NewTool("toggleLike",
			mcp.WithDescription("Like or unlike an item"),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum(likeKinds...),
				mcp.Description("The content kind of the item"),
			),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The id of the item"),
			),
		), mcp.NewTypedToolHandler(toggleLikeHandler(prefs)))

		s.AddTool(mcp.NewTool("listLikes",
			mcp.WithDescription("List the liked item ids of a content kind"),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum(likeKinds...),
				mcp.Description("The content kind"),
			),
		), mcp.NewTypedToolHandler(listLikesHandler(prefs)))
	}

	return s
}

func getSiteSettingsHandler(c *content) func(ctx context.Context, request mcp.CallToolRequest, args SiteSettingsRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SiteSettingsRequest) (*mcp.CallToolResult, error) {
		return jsonResult(c.siteSettings(ctx, args.ForceReload))
	}
}

func getPostsHandler(c *content) func(ctx context.Context, request mcp.CallToolRequest, args PostsRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args PostsRequest) (*mcp.CallToolResult, error) {
		posts, err := c.posts(ctx, args.IncludeHidden)
		if err != nil {
			c.l.Warn("failed to load posts", zap.Error(err))
			return mcp.NewToolResultError(LoadErrorMessage(KindPosts)), nil
		}
		return jsonResult(posts)
	}
}

// getListHandler serves the argument-less list tools.
func getListHandler(c *content, kind string) func(ctx context.Context, request mcp.CallToolRequest, args ListRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ListRequest) (*mcp.CallToolResult, error) {
		items, err := c.load(ctx, ContentQuery{Kind: kind})
		if err != nil {
			c.l.Warn("failed to load content", zap.String("kind", kind), zap.Error(err))
			return mcp.NewToolResultError(LoadErrorMessage(kind)), nil
		}
		return jsonResult(items)
	}
}

func getWomenHandler(c *content) func(ctx context.Context, request mcp.CallToolRequest, args WomenRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args WomenRequest) (*mcp.CallToolResult, error) {
		page, err := c.women(ctx, int(args.Page), int(args.Limit))
		if err != nil {
			c.l.Warn("failed to load women", zap.Error(err))
			return mcp.NewToolResultError(LoadErrorMessage(KindWomen)), nil
		}
		return jsonResult(page)
	}
}

func registerForEventHandler(c *content) func(ctx context.Context, request mcp.CallToolRequest, args RegisterRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args RegisterRequest) (*mcp.CallToolResult, error) {
		fields := []zap.Field{zap.String("eventID", args.EventID)}
		if req, ok := HTTPRequestFromContext(ctx); ok {
			fields = append(fields, zap.String("remoteAddr", req.RemoteAddr))
		}
		registration, err := c.register(ctx, args.EventID)
		if err != nil {
			c.l.Info("registration failed", append(fields, zap.Error(err))...)
			return mcp.NewToolResultError(RegistrationErrorMessage(err)), nil
		}
		c.l.Debug("registration succeeded", fields...)
		return jsonResult(registration)
	}
}

func resolveMediaURLHandler() func(ctx context.Context, request mcp.CallToolRequest, args ResolveMediaRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ResolveMediaRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(service.ResolveMediaURL(args.Path)), nil
	}
}

func toggleLikeHandler(prefs *preferences.Store) func(ctx context.Context, request mcp.CallToolRequest, args ToggleLikeRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ToggleLikeRequest) (*mcp.CallToolResult, error) {
		liked, err := prefs.Toggle(ctx, args.Kind, args.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to toggle like: %v", err)), nil
		}
		return jsonResult(LikeView{Kind: strings.TrimSpace(args.Kind), ID: strings.TrimSpace(args.ID), Liked: liked})
	}
}

func listLikesHandler(prefs *preferences.Store) func(ctx context.Context, request mcp.CallToolRequest, args ListLikesRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ListLikesRequest) (*mcp.CallToolResult, error) {
		ids, err := prefs.Liked(ctx, strings.TrimSpace(args.Kind))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list likes: %v", err)), nil
		}
		if ids == nil {
			ids = []string{}
		}
		return jsonResult(ids)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseBytes)), nil
}
