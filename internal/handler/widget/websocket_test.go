package widget

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haiintel/dashboard/internal/analysis/match"
	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/middleware"
	"github.com/haiintel/dashboard/internal/model/chat"
	"github.com/haiintel/dashboard/internal/model/response"
	"github.com/haiintel/dashboard/internal/service/widget"
	"github.com/haiintel/dashboard/internal/storage"
)

const device = "0b6c3c4e-8d0a-4a57-9f55-2f1f0e6b7a01"

func newServer(t *testing.T, scopes storage.Registry) *httptest.Server {
	t.Helper()
	h := New(Config{
		Scopes:   scopes,
		Matcher:  match.New(response.MustDefault()),
		Interval: time.Millisecond,
		Log:      logging.Nop(),
	})
	r := chi.NewRouter()
	r.Use(middleware.Device(false))
	h.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	header := http.Header{}
	header.Set("Cookie", middleware.DeviceCookieName+"="+device)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) outboundFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f outboundFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func write(t *testing.T, conn *websocket.Conn, f inboundFrame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(f))
}

// readUntilState reads frames until a state frame with want arrives.
func readUntilState(t *testing.T, conn *websocket.Conn, want widget.State) []outboundFrame {
	t.Helper()
	var frames []outboundFrame
	for {
		f := read(t, conn)
		frames = append(frames, f)
		if f.Type == "state" && f.State == want {
			return frames
		}
	}
}

func TestWidgetConversation(t *testing.T) {
	scopes := storage.NewMemoryRegistry(0)
	srv := newServer(t, scopes)
	conn := dial(t, srv)

	snap := read(t, conn)
	assert.Equal(t, "snapshot", snap.Type)
	assert.Equal(t, widget.StateClosed, snap.State)
	require.NotNil(t, snap.Messages)
	assert.Empty(t, *snap.Messages)

	write(t, conn, inboundFrame{Type: "send", Text: "hello"})
	f := read(t, conn)
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, widget.ErrClosed.Error(), f.Error)

	write(t, conn, inboundFrame{Type: "open"})
	f = read(t, conn)
	assert.Equal(t, "state", f.Type)
	assert.Equal(t, widget.StateIdle, f.State)

	write(t, conn, inboundFrame{Type: "send", Text: "What is HaiIntel?"})
	frames := readUntilState(t, conn, widget.StateIdle)

	require.GreaterOrEqual(t, len(frames), 4)
	assert.Equal(t, "append", frames[0].Type)
	assert.Equal(t, chat.RoleUser, frames[0].Message.Role)
	assert.Equal(t, "append", frames[1].Type)
	assert.Equal(t, chat.RoleAI, frames[1].Message.Role)
	assert.Equal(t, "", frames[1].Message.Text)

	var last *chat.Message
	for _, f := range frames {
		if f.Type == "update" {
			assert.True(t, strings.HasPrefix(f.Message.FullText, f.Message.Text))
			last = f.Message
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, last.FullText, last.Text)
	assert.Equal(t, []string{"What services do you offer?", "Tell me about design philosophy"}, last.Suggestions)

	// a fresh connection for the same device restores the transcript
	_ = conn.Close()
	again := dial(t, srv)
	snap = read(t, again)
	require.NotNil(t, snap.Messages)
	require.Len(t, *snap.Messages, 2)
	assert.Equal(t, *last, (*snap.Messages)[1])
}

func TestWidgetRejectsBadFrames(t *testing.T) {
	srv := newServer(t, storage.NewMemoryRegistry(0))
	conn := dial(t, srv)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)))
	f := read(t, conn)
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, "invalid frame", f.Error)

	write(t, conn, inboundFrame{Type: "dance"})
	f = read(t, conn)
	assert.Equal(t, "error", f.Type)
	assert.Contains(t, f.Error, "dance")
}

func TestWidgetClear(t *testing.T) {
	scopes := storage.NewMemoryRegistry(0)
	srv := newServer(t, scopes)
	conn := dial(t, srv)
	read(t, conn)

	write(t, conn, inboundFrame{Type: "toggle"})
	readUntilState(t, conn, widget.StateIdle)
	write(t, conn, inboundFrame{Type: "suggestion", Text: "ai design"})
	readUntilState(t, conn, widget.StateIdle)

	write(t, conn, inboundFrame{Type: "clear"})
	f := read(t, conn)
	assert.Equal(t, "clear", f.Type)

	_, ok, err := scopes.Scope(device).GetItem(chat.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckOrigin(t *testing.T) {
	h := New(Config{AllowedOrigins: []string{"https://haiintel.com"}})

	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/api/chat/ws", nil)
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "http://localhost:8080")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://haiintel.com")
	assert.True(t, h.checkOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, h.checkOrigin(req))
}
