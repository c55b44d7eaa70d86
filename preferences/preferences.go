package preferences

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/foomo/ophelia-mcp/storage"
	"go.uber.org/zap"
)

const (
	fieldLikedItems = "likedItems"
	fieldLastVisit  = "lastVisit"
)

var ErrInvalidItem = errors.New("kind and id are required")

// Store keeps liked item ids per content kind inside the preferences blob.
// Top-level fields it does not know about are written back untouched.
type Store struct {
	l   *zap.Logger
	kv  storage.KeyValue
	mu  sync.Mutex
	now func() time.Time
}

func New(l *zap.Logger, kv storage.KeyValue) *Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &Store{
		l:   l.With(zap.String("component", "preferences")),
		kv:  kv,
		now: time.Now,
	}
}

// Liked returns the liked ids of kind in insertion order.
func (s *Store) Liked(ctx context.Context, kind string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	values := s.kindIDs(likedKinds(s.l, blob), kind)
	ids := make([]string, 0, len(values))
	for _, value := range values {
		if id, ok := idString(value); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) IsLiked(ctx context.Context, kind, id string) (bool, error) {
	ids, err := s.Liked(ctx, kind)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, strings.TrimSpace(id)), nil
}

// Toggle flips the liked state of id and returns the new state.
func (s *Store) Toggle(ctx context.Context, kind, id string) (bool, error) {
	kind, id = strings.TrimSpace(kind), strings.TrimSpace(id)
	if kind == "" || id == "" {
		return false, ErrInvalidItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	kinds := likedKinds(s.l, blob)
	values := s.kindIDs(kinds, kind)

	matches := func(v any) bool {
		other, ok := idString(v)
		return ok && other == id
	}
	liked := !slices.ContainsFunc(values, matches)
	if liked {
		values = append(values, newID(id))
	} else {
		values = slices.DeleteFunc(values, matches)
	}
	if values == nil {
		values = []any{}
	}

	// only the toggled kind is re-encoded; other kinds keep their stored form
	if kinds[kind], err = json.Marshal(values); err != nil {
		return false, fmt.Errorf("failed to marshal liked %s: %w", kind, err)
	}
	if blob[fieldLikedItems], err = json.Marshal(kinds); err != nil {
		return false, fmt.Errorf("failed to marshal liked items: %w", err)
	}
	if blob[fieldLastVisit], err = json.Marshal(s.now().UTC().Format(time.RFC3339)); err != nil {
		return false, fmt.Errorf("failed to marshal last visit: %w", err)
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		return false, fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyPreferences, string(raw)); err != nil {
		return false, err
	}
	return liked, nil
}

// load returns the stored blob; a missing or corrupt blob reads as empty.
func (s *Store) load(ctx context.Context) (map[string]json.RawMessage, error) {
	blob := map[string]json.RawMessage{}
	raw, ok, err := s.kv.Get(ctx, storage.KeyPreferences)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return blob, nil
	}
	if err := json.Unmarshal([]byte(raw), &blob); err != nil || blob == nil {
		s.l.Warn("ignoring corrupt preferences", zap.Error(err))
		return map[string]json.RawMessage{}, nil
	}
	return blob, nil
}

// likedKinds splits the likedItems field into the raw id list of each kind.
func likedKinds(l *zap.Logger, blob map[string]json.RawMessage) map[string]json.RawMessage {
	kinds := map[string]json.RawMessage{}
	raw, ok := blob[fieldLikedItems]
	if !ok {
		return kinds
	}
	if err := json.Unmarshal(raw, &kinds); err != nil || kinds == nil {
		l.Warn("ignoring corrupt liked items", zap.Error(err))
		return map[string]json.RawMessage{}
	}
	return kinds
}

// kindIDs decodes the id list of kind as stored; numbers stay json.Number.
func (s *Store) kindIDs(kinds map[string]json.RawMessage, kind string) []any {
	raw, ok := kinds[kind]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		s.l.Warn("ignoring corrupt liked ids", zap.String("kind", kind), zap.Error(err))
		return nil
	}
	return values
}

// idString accepts string and numeric ids.
func idString(v any) (string, bool) {
	var id string
	switch value := v.(type) {
	case json.Number:
		id = value.String()
	case string:
		id = value
	default:
		return "", false
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

// newID stores integer ids as JSON numbers, like the site itself does.
func newID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && strconv.FormatInt(n, 10) == id {
		return json.Number(id)
	}
	return id
}
