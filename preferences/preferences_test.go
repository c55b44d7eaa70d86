package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/foomo/ophelia-mcp/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) (*Store, *storage.Store) {
	t.Helper()
	kv, err := storage.Open(fmt.Sprintf("file:preferences_%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	store := New(zaptest.NewLogger(t), kv)
	store.now = func() time.Time { return time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC) }
	return store, kv
}

func TestToggle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	liked, err := store.Toggle(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = store.Toggle(ctx, "posts", "p2")
	require.NoError(t, err)
	assert.True(t, liked)

	ids, err := store.Liked(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)

	liked, err = store.Toggle(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.False(t, liked)

	ok, err := store.IsLiked(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.IsLiked(ctx, "posts", " p2 ")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err = store.Liked(ctx, "events")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestToggleInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Toggle(context.Background(), "posts", " ")
	require.ErrorIs(t, err, ErrInvalidItem)
	_, err = store.Toggle(context.Background(), "", "p1")
	require.ErrorIs(t, err, ErrInvalidItem)
}

func TestTogglePreservesUnknownFields(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyPreferences, `{"theme":"dark","likedItems":{"skills":[3,"4"]}}`))

	ids, err := store.Liked(ctx, "skills")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4"}, ids)

	_, err = store.Toggle(ctx, "posts", "p1")
	require.NoError(t, err)

	raw, ok, err := kv.Get(ctx, storage.KeyPreferences)
	require.NoError(t, err)
	require.True(t, ok)

	var blob map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &blob))
	assert.Equal(t, "dark", blob["theme"])
	assert.Equal(t, "2026-03-08T12:00:00Z", blob["lastVisit"])
	assert.Equal(t, map[string]any{
		"skills": []any{float64(3), "4"},
		"posts":  []any{"p1"},
	}, blob["likedItems"])
}

func TestCorruptBlobReadsAsEmpty(t *testing.T) {
	for _, raw := range []string{"not json", "[1,2]", "null", `{"likedItems":"nope"}`} {
		store, kv := newTestStore(t)
		ctx := context.Background()
		require.NoError(t, kv.Set(ctx, storage.KeyPreferences, raw))

		ids, err := store.Liked(ctx, "posts")
		require.NoError(t, err, raw)
		assert.Empty(t, ids, raw)

		liked, err := store.Toggle(ctx, "posts", "p1")
		require.NoError(t, err, raw)
		assert.True(t, liked, raw)
	}
}

func TestToggleKeepsOtherKindsAsStored(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyPreferences, `{"likedItems":{"skills":[1,2],"news":["n1",null,{"x":1}]}}`))

	liked, err := store.Toggle(ctx, "events", "e1")
	require.NoError(t, err)
	assert.True(t, liked)

	assert.JSONEq(t, `{"skills":[1,2],"news":["n1",null,{"x":1}],"events":["e1"]}`, storedLikedItems(t, kv))
}

func TestToggleWritesIntegerIDsAsNumbers(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyPreferences, `{"likedItems":{"skills":[1,2]}}`))

	ok, err := store.IsLiked(ctx, "skills", "2")
	require.NoError(t, err)
	assert.True(t, ok)

	liked, err := store.Toggle(ctx, "skills", "3")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.JSONEq(t, `{"skills":[1,2,3]}`, storedLikedItems(t, kv))

	liked, err = store.Toggle(ctx, "skills", "1")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.JSONEq(t, `{"skills":[2,3]}`, storedLikedItems(t, kv))

	for _, id := range []string{"007", "-0", "p1", "99999999999999999999"} {
		_, err = store.Toggle(ctx, "women", id)
		require.NoError(t, err, id)
	}
	assert.JSONEq(t, `{"skills":[2,3],"women":["007","-0","p1","99999999999999999999"]}`, storedLikedItems(t, kv))
}

func TestToggleLastRemovalLeavesEmptyList(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	_, err := store.Toggle(ctx, "posts", "p1")
	require.NoError(t, err)
	_, err = store.Toggle(ctx, "posts", "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"posts":[]}`, storedLikedItems(t, kv))
}

func storedLikedItems(t *testing.T, kv *storage.Store) string {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), storage.KeyPreferences)
	require.NoError(t, err)
	require.True(t, ok)

	var blob map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &blob))
	return string(blob["likedItems"])
}
