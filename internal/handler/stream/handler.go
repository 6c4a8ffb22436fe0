package stream

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/chat"
	streamservice "github.com/haiintel/dashboard/internal/service/stream"
	"github.com/haiintel/dashboard/pkg/utils"
)

// Matcher picks the canned response for a message.
type Matcher interface {
	Match(input string) chat.Response
}

// Handler streams a canned reply as Server-Sent Events without touching any session.
type Handler struct {
	matcher  Matcher
	interval time.Duration
	now      func() time.Time
	log      *logging.Logger
}

// New creates a new stream handler
func New(matcher Matcher, interval time.Duration, log *logging.Logger) *Handler {
	if interval <= 0 {
		interval = streamservice.DefaultInterval
	}
	return &Handler{matcher: matcher, interval: interval, now: time.Now, log: log.Sub("stream")}
}

// RegisterRoutes 注册流式接口
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/stream", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event       string    `json:"event"`
	ID          string    `json:"id,omitempty"`
	Content     string    `json:"content,omitempty"`
	Suggestions *[]string `json:"suggestions,omitempty"`
	Finished    bool      `json:"finished,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	resp := h.matcher.Match(message)
	id := strconv.FormatInt(h.now().UnixMilli(), 10) + "-ai"
	if err := h.HandleStreamRequest(r.Context(), w, flusher, id, resp); err != nil {
		h.log.Debug().Err(err).Str("id", id).Msg("stream ended early")
	}
}

// HandleStreamRequest reveals resp one character per tick until it finishes or ctx is done.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, id string, resp chat.Response) error {
	if err := utils.SendSSEChunk(w, flusher, StreamResponse{Event: "start", ID: id}); err != nil {
		return err
	}

	s := streamservice.New(id, resp)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		step, ok := s.Advance()
		if !ok {
			return nil
		}
		if step.Delta != "" {
			if err := utils.SendSSEChunk(w, flusher, StreamResponse{Event: "delta", ID: id, Content: step.Delta}); err != nil {
				return err
			}
		}
		if step.Done {
			return h.finish(w, flusher, id, step)
		}
	}
}

func (h *Handler) finish(w http.ResponseWriter, flusher http.Flusher, id string, step streamservice.Step) error {
	suggestions := step.Suggestions
	chunks := []StreamResponse{
		{Event: "message", ID: id, Content: step.Text},
		{Event: "suggestions", ID: id, Suggestions: &suggestions},
		{Event: "end", ID: id, Finished: true},
	}
	for _, c := range chunks {
		if err := utils.SendSSEChunk(w, flusher, c); err != nil {
			return err
		}
	}
	h.log.Debug().Str("id", id).Int("chars", len([]rune(step.Text))).Msg("stream completed")
	return nil
}
