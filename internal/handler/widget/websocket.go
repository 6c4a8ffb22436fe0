package widget

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/middleware"
	"github.com/haiintel/dashboard/internal/model/chat"
	chatservice "github.com/haiintel/dashboard/internal/service/chat"
	"github.com/haiintel/dashboard/internal/service/widget"
	"github.com/haiintel/dashboard/internal/storage"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Config wires the WebSocket handler.
type Config struct {
	Scopes         storage.Registry
	Mounts         *widget.Mounts
	Matcher        widget.Matcher
	Interval       time.Duration
	AllowedOrigins []string
	Log            *logging.Logger
}

// Handler mounts one server-side chat widget per WebSocket connection.
type Handler struct {
	cfg      Config
	log      *logging.Logger
	upgrader websocket.Upgrader
}

// New 创建聊天组件的WebSocket处理器
func New(cfg Config) *Handler {
	log := cfg.Log
	if log == nil {
		log = logging.Nop()
	}
	if cfg.Mounts == nil {
		cfg.Mounts = widget.NewMounts()
	}
	h := &Handler{cfg: cfg, log: log.Sub("widget-ws")}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return h
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outboundFrame struct {
	Type     string        `json:"type"`
	State    widget.State  `json:"state,omitempty"`
	Message  *chat.Message `json:"message,omitempty"`
	Messages *chat.Session `json:"messages,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func frameFor(ev widget.Event) outboundFrame {
	f := outboundFrame{Type: string(ev.Type)}
	switch ev.Type {
	case widget.EventSnapshot:
		msgs := ev.Messages
		if msgs == nil {
			msgs = chat.Session{}
		}
		f.State = ev.State
		f.Messages = &msgs
	case widget.EventState:
		f.State = ev.State
	case widget.EventAppend, widget.EventUpdate:
		msg := ev.Message
		f.Message = &msg
	}
	return f
}

// connection pairs a socket with its widget loop. Only writePump writes to the socket.
type connection struct {
	conn   *websocket.Conn
	send   chan outboundFrame
	closed chan struct{}
	log    *logging.Logger
}

// push queues a frame, dropping it once the connection is gone.
func (c *connection) push(f outboundFrame) {
	select {
	case c.send <- f:
	case <-c.closed:
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	device := middleware.DeviceID(r.Context())
	if device == "" {
		http.Error(w, "device id is required", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}

	log := h.log.With("device", device)
	c := &connection{
		conn:   ws,
		send:   make(chan outboundFrame, sendBuffer),
		closed: make(chan struct{}),
		log:    log,
	}

	loop := widget.NewLoop(widget.Options{
		Store:    chatservice.NewSessionStore(h.cfg.Scopes.Scope(device), log),
		Matcher:  h.cfg.Matcher,
		Interval: h.cfg.Interval,
		Listener: func(ev widget.Event) { c.push(frameFor(ev)) },
		Log:      log,
	})
	unregister := h.cfg.Mounts.Add(device, loop)

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	log.Debug().Msg("widget connected")
	c.readPump(loop)

	// unmount first so no listener call races with closing the queue
	cancel()
	<-loop.Done()
	unregister()
	close(c.closed)
	<-writerDone
	_ = ws.Close()
	log.Debug().Msg("widget disconnected")
}

func (c *connection) readPump(loop *widget.Loop) {
	c.conn.SetReadLimit(64 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.push(outboundFrame{Type: "error", Error: "invalid frame"})
			continue
		}

		action, ok := c.action(frame)
		if !ok {
			c.push(outboundFrame{Type: "error", Error: "unsupported frame type: " + frame.Type})
			continue
		}
		if err := loop.Post(action); err != nil {
			return
		}
	}
}

func (c *connection) action(frame inboundFrame) (func(*widget.Widget), bool) {
	switch frame.Type {
	case "open":
		return (*widget.Widget).Open, true
	case "close":
		return (*widget.Widget).Close, true
	case "toggle":
		return (*widget.Widget).Toggle, true
	case "clear":
		return (*widget.Widget).Clear, true
	case "send":
		return func(w *widget.Widget) { c.reportSend(w.Send(frame.Text)) }, true
	case "suggestion":
		return func(w *widget.Widget) { c.reportSend(w.Suggest(frame.Text)) }, true
	}
	return nil, false
}

func (c *connection) reportSend(err error) {
	if err == nil {
		return
	}
	msg := "send failed"
	if errors.Is(err, widget.ErrClosed) {
		msg = err.Error()
	}
	c.push(outboundFrame{Type: "error", Error: msg})
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case f := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(f); err != nil {
				c.log.Warn().Err(err).Msg("write failed")
				// unblocks readPump so the handler tears the connection down
				_ = c.conn.Close()
				c.drain()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.conn.Close()
				c.drain()
				return
			}
		}
	}
}

// drain discards frames until the connection is torn down so push never blocks.
func (c *connection) drain() {
	for {
		select {
		case <-c.send:
		case <-c.closed:
			return
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
