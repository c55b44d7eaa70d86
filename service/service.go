package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/foomo/ophelia-mcp/service/vo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultWomenLimit = 12
	userAgent         = "ophelia-mcp/0.0.1"
	maxResponseBytes  = 1 << 20
)

const (
	pathSettings      = "/cms/settings"
	pathProjects      = "/cms/projects"
	pathPosts         = "/cms/posts"
	pathEvents        = "/cms/events"
	pathNews          = "/cms/news"
	pathEventRegister = "/cms/events/register"
	pathWomen         = "/api/women"
)

type Service interface {
	// GetSiteSettings never fails: on any error it returns the all-empty record.
	GetSiteSettings(ctx context.Context, forceReload bool) vo.SiteSettings
	GetProjects(ctx context.Context) ([]vo.Project, error)
	GetPosts(ctx context.Context) ([]vo.Post, error)
	GetEvents(ctx context.Context) ([]vo.Event, error)
	GetNews(ctx context.Context) ([]vo.NewsPost, error)
	GetWomen(ctx context.Context, page, limit int) (*vo.WomenPage, error)
	RegisterForEvent(ctx context.Context, eventID string) (*vo.Registration, error)
}

// Settings configures the content client.
type Settings struct {
	// BaseURL is the API origin, e.g. http://localhost:8080.
	BaseURL    string
	Credential Credential
}

type service struct {
	l          *zap.Logger
	httpClient *http.Client
	settings   Settings

	settingsGroup  singleflight.Group
	settingsMu     sync.Mutex
	settingsGen    uint64
	settingsLoaded bool
	siteSettings   vo.SiteSettings
}

func NewService(
	l *zap.Logger,
	settings Settings,
	httpClient *http.Client,
) Service {
	if l == nil {
		l = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	settings.BaseURL = strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")
	return &service{
		l:          l.With(zap.String("component", "cms")),
		httpClient: httpClient,
		settings:   settings,
	}
}

func (s *service) GetSiteSettings(ctx context.Context, forceReload bool) vo.SiteSettings {
	s.settingsMu.Lock()
	if forceReload {
		s.settingsGen++
		s.settingsLoaded = false
	}
	if s.settingsLoaded {
		settings := s.siteSettings
		s.settingsMu.Unlock()
		return settings
	}
	gen := s.settingsGen
	s.settingsMu.Unlock()

	// callers joining an in-flight request share its result; the request is
	// detached from the first caller's cancellation
	ctx = context.WithoutCancel(ctx)
	v, _, _ := s.settingsGroup.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		settings := s.loadSiteSettings(ctx)
		s.settingsMu.Lock()
		if s.settingsGen == gen {
			s.siteSettings = settings
			s.settingsLoaded = true
		}
		s.settingsMu.Unlock()
		return settings, nil
	})
	return v.(vo.SiteSettings)
}

func (s *service) loadSiteSettings(ctx context.Context) vo.SiteSettings {
	var raw any
	if err := s.get(ctx, pathSettings, nil, &raw); err != nil {
		s.l.Warn("failed to load site settings, using defaults", zap.Error(err))
		return normalizeSiteSettings(record{})
	}
	return normalizeSiteSettings(asRecord(raw))
}

func (s *service) GetProjects(ctx context.Context) ([]vo.Project, error) {
	return getList(ctx, s, pathProjects, normalizeProject)
}

func (s *service) GetPosts(ctx context.Context) ([]vo.Post, error) {
	return getList(ctx, s, pathPosts, normalizePost)
}

func (s *service) GetEvents(ctx context.Context) ([]vo.Event, error) {
	return getList(ctx, s, pathEvents, normalizeEvent)
}

func (s *service) GetNews(ctx context.Context) ([]vo.NewsPost, error) {
	return getList(ctx, s, pathNews, normalizeNewsPost)
}

func (s *service) GetWomen(ctx context.Context, page, limit int) (*vo.WomenPage, error) {
	if limit <= 0 {
		limit = DefaultWomenLimit
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit
	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var raw any
	if err := s.get(ctx, pathWomen, query, &raw); err != nil {
		return nil, err
	}
	womenPage := normalizeWomenPage(asRecord(raw), limit, offset)
	return &womenPage, nil
}

func (s *service) RegisterForEvent(ctx context.Context, eventID string) (*vo.Registration, error) {
	credential := s.settings.Credential
	if !credential.Valid() {
		return nil, ErrNoCredential
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, ErrEventIDRequired
	}

	body := map[string]any{"event_id": eventID}
	credential.extendBody(body)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registration: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, pathEventRegister, nil, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	credential.setHeader(req.Header)

	var raw any
	if err := s.do(req, pathEventRegister, &raw); err != nil {
		return nil, err
	}
	registration := normalizeRegistration(asRecord(raw), eventID)
	s.l.Info("registered for event", zap.String("eventID", eventID), zap.Stringer("credential", credential))
	return &registration, nil
}

// getList loads a JSON array from path; a body that is not an array yields an
// empty list.
func getList[T any](ctx context.Context, s *service, path string, normalize func(record) T) ([]T, error) {
	var raw any
	if err := s.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	entries, _ := raw.([]any)
	items := make([]T, 0, len(entries))
	for _, entry := range entries {
		items = append(items, normalize(asRecord(entry)))
	}
	return items, nil
}

func (s *service) get(ctx context.Context, path string, query url.Values, target any) error {
	req, err := s.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if s.settings.Credential.Kind == CredentialBearer && strings.HasPrefix(path, "/cms/") {
		s.settings.Credential.setHeader(req.Header)
	}
	return s.do(req, path, target)
}

func (s *service) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := s.settings.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

func (s *service) do(req *http.Request, path string, target any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body of %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: req.Method, Path: path, StatusCode: resp.StatusCode}
		var raw any
		if decode(body, &raw) == nil {
			apiErr.Message = strings.TrimSpace(pickString(asRecord(raw), keysError))
		}
		s.l.Debug("cms request failed",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if err := decode(body, target); err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", path, err)
	}
	return nil
}

func decode(body []byte, target any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(target)
}
