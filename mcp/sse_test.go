package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foomo/ophelia-mcp/service"
	"github.com/foomo/ophelia-mcp/service/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sseFrame struct {
	ID    string
	Event string
	Data  SSEEvent
}

func readFrame(t *testing.T, reader *bufio.Reader) sseFrame {
	t.Helper()
	var frame sseFrame
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return frame
		case strings.HasPrefix(line, "id: "):
			frame.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			frame.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame.Data))
		}
	}
}

func readFrames(t *testing.T, body string) []sseFrame {
	t.Helper()
	reader := bufio.NewReader(strings.NewReader(body))
	var frames []sseFrame
	for {
		if _, err := reader.Peek(1); err != nil {
			return frames
		}
		frames = append(frames, readFrame(t, reader))
	}
}

func frameNames(frames []sseFrame) []string {
	names := make([]string, 0, len(frames))
	for _, frame := range frames {
		names = append(names, frame.Event)
	}
	return names
}

func TestHandleSSEBroadcast(t *testing.T) {
	s := NewMCPSSEServer(zaptest.NewLogger(t), &fakeService{}, nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleSSE))
	t.Cleanup(srv.Close)
	t.Cleanup(s.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	connected := readFrame(t, reader)
	assert.Equal(t, "connected", connected.Event)
	assert.NotEmpty(t, connected.ID)
	assert.Len(t, s.GetConnectedClients(), 1)

	s.Broadcast("registration", map[string]string{"eventID": "e1"})
	frame := readFrame(t, reader)
	assert.Equal(t, "registration", frame.Event)
	assert.Equal(t, map[string]any{"eventID": "e1"}, frame.Data.Data)
}

func TestHandleSSEKeepalive(t *testing.T) {
	s := NewMCPSSEServer(zaptest.NewLogger(t), &fakeService{}, nil, &SSEServerConfig{
		KeepaliveInterval: 10 * time.Millisecond,
		BufferSize:        1,
		ClientTimeout:     time.Second,
	})
	srv := httptest.NewServer(http.HandlerFunc(s.HandleSSE))
	t.Cleanup(srv.Close)
	t.Cleanup(s.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readFrame(t, reader).Event)
	assert.Equal(t, "keepalive", readFrame(t, reader).Event)
}

func TestHandleContentSSE(t *testing.T) {
	svc := &fakeService{events: []vo.Event{{ID: "e1", MaxParticipants: 1, CurrentParticipants: []int64{3}}}}
	s := NewMCPSSEServer(zaptest.NewLogger(t), svc, nil, nil)
	t.Cleanup(s.Close)

	rec := httptest.NewRecorder()
	s.HandleContentSSE(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/content?kind=events", nil))

	frames := readFrames(t, rec.Body.String())
	require.Equal(t, []string{"content_start", "content_result", "content_complete"}, frameNames(frames))
	events, ok := frames[1].Data.Data.([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, true, events[0].(map[string]any)["isFull"])
}

func TestHandleContentSSEError(t *testing.T) {
	s := NewMCPSSEServer(zaptest.NewLogger(t), &fakeService{err: errors.New("boom")}, nil, nil)
	t.Cleanup(s.Close)

	rec := httptest.NewRecorder()
	s.HandleContentSSE(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/content?kind=women&page=2", nil))

	frames := readFrames(t, rec.Body.String())
	require.Equal(t, []string{"content_start", "content_error"}, frameNames(frames))
	assert.Equal(t, map[string]any{"error": LoadErrorMessage(KindWomen)}, frames[1].Data.Data)
}

func TestHandleContentSSEUnknownKind(t *testing.T) {
	s := NewMCPSSEServer(zaptest.NewLogger(t), &fakeService{}, nil, nil)
	t.Cleanup(s.Close)

	rec := httptest.NewRecorder()
	s.HandleContentSSE(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/content?kind=secrets", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegisterSSE(t *testing.T) {
	svc := &fakeService{}
	s := NewMCPSSEServer(zaptest.NewLogger(t), svc, nil, nil)
	t.Cleanup(s.Close)

	rec := httptest.NewRecorder()
	s.HandleRegisterSSE(rec, httptest.NewRequest(http.MethodPost, "/mcp/sse/register", strings.NewReader(`{"event_id":"e1"}`)))

	frames := readFrames(t, rec.Body.String())
	require.Equal(t, []string{"register_start", "register_result", "register_complete"}, frameNames(frames))
	assert.Equal(t, []string{"e1"}, svc.registered)
	result, ok := frames[1].Data.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, msgRegistered, result["message"])
}

func TestHandleRegisterSSEFailure(t *testing.T) {
	s := NewMCPSSEServer(zaptest.NewLogger(t), &fakeService{registerErr: service.ErrNoCredential}, nil, nil)
	t.Cleanup(s.Close)

	rec := httptest.NewRecorder()
	s.HandleRegisterSSE(rec, httptest.NewRequest(http.MethodPost, "/mcp/sse/register", strings.NewReader(`{"event_id":"e1"}`)))

	frames := readFrames(t, rec.Body.String())
	require.Equal(t, []string{"register_start", "register_error"}, frameNames(frames))
	assert.Equal(t, map[string]any{"error": service.ErrNoCredential.Error()}, frames[1].Data.Data)
}

func TestHandleRegisterSSEValidation(t *testing.T) {
	s := NewMCPSSEServer(zaptest.NewLogger(t), &fakeService{}, nil, nil)
	t.Cleanup(s.Close)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing event id", http.MethodPost, `{"event_id":" "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.HandleRegisterSSE(rec, httptest.NewRequest(tt.method, "/mcp/sse/register", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMcpHTTPSSEServerStats(t *testing.T) {
	svc := &fakeService{}
	h := NewMcpHTTPSSEServer(zaptest.NewLogger(t), NewServer(nil, svc, nil), svc, nil, "/mcp", nil)
	t.Cleanup(h.Close)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, float64(0), stats["connectedClients"])
	assert.Equal(t, Version, stats["serverVersion"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp/sse/clients", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connectedClients":0`)
}
