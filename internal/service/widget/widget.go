package widget

import (
	"errors"
	"strings"
	"time"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/chat"
	"github.com/haiintel/dashboard/internal/service/stream"
)

// ErrClosed is returned when text is sent while the panel is closed.
var ErrClosed = errors.New("chat panel is closed")

// State is the top-level widget state.
type State string

const (
	StateClosed    State = "closed"
	StateIdle      State = "open-idle"
	StateStreaming State = "open-streaming"
)

// EventType names a change the widget reports to its listener.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventState    EventType = "state"
	EventAppend   EventType = "append"
	EventUpdate   EventType = "update"
	EventClear    EventType = "clear"
)

// Event describes one observable change. Message and Messages are copies.
type Event struct {
	Type     EventType
	State    State
	Message  chat.Message
	Messages chat.Session
}

// Listener receives events on the widget's goroutine.
type Listener func(Event)

// SessionStore persists the session. Implementations must not fail loudly.
type SessionStore interface {
	Save(chat.Session)
	Load() (chat.Session, bool)
	Clear()
}

// Matcher picks the canned response for user text.
type Matcher interface {
	Match(input string) chat.Response
}

// Options wires a widget.
type Options struct {
	Store     SessionStore
	Matcher   Matcher
	Interval  time.Duration
	Scheduler stream.Scheduler
	Now       func() time.Time
	Listener  Listener
	Log       *logging.Logger
}

// Widget is the chat panel state machine. It owns the session exclusively and is not safe
// for concurrent use; Loop serialises access to it.
type Widget struct {
	open     bool
	session  chat.Session
	store    SessionStore
	matcher  Matcher
	sim      *stream.Simulator
	ids      *idSource
	listener Listener
	log      *logging.Logger
}

// New builds a widget. post receives the ids of due stream ticks from timer goroutines; the
// owner must route them back to Tick on the widget's goroutine.
func New(opts Options, post func(id string)) *Widget {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	listener := opts.Listener
	if listener == nil {
		listener = func(Event) {}
	}
	return &Widget{
		session:  chat.Session{},
		store:    opts.Store,
		matcher:  opts.Matcher,
		sim:      stream.NewSimulator(opts.Interval, opts.Scheduler, post),
		ids:      &idSource{now: now},
		listener: listener,
		log:      log.Sub("widget"),
	}
}

// Mount restores the persisted session, if any, and reports a snapshot.
func (w *Widget) Mount() {
	if restored, ok := w.store.Load(); ok {
		w.session = restored
		w.ids.observe(restored)
		w.log.Debug().Int("messages", len(restored)).Msg("session restored")
	}
	w.emit(Event{Type: EventSnapshot, State: w.State(), Messages: w.session.Clone()})
}

// Unmount cancels every pending stream timer. The widget must not be used afterwards.
func (w *Widget) Unmount() {
	w.sim.StopAll()
}

// State derives the current top-level state.
func (w *Widget) State() State {
	switch {
	case !w.open:
		return StateClosed
	case w.sim.Active() > 0:
		return StateStreaming
	default:
		return StateIdle
	}
}

// Messages returns a copy of the session.
func (w *Widget) Messages() chat.Session {
	return w.session.Clone()
}

// Open shows the panel.
func (w *Widget) Open() {
	prev := w.State()
	w.open = true
	w.stateChanged(prev)
}

// Close hides the panel. Streams keep running.
func (w *Widget) Close() {
	prev := w.State()
	w.open = false
	w.stateChanged(prev)
}

// Toggle flips the panel.
func (w *Widget) Toggle() {
	if w.open {
		w.Close()
		return
	}
	w.Open()
}

// Send appends the user's message and starts streaming the matched reply. Blank text is
// ignored without error.
func (w *Widget) Send(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if !w.open {
		return ErrClosed
	}
	prev := w.State()

	userMsg := chat.Message{ID: w.ids.next("u"), Role: chat.RoleUser, Text: trimmed}
	w.append(userMsg)

	resp := w.matcher.Match(trimmed)
	aiMsg := chat.Message{ID: w.ids.next("ai"), Role: chat.RoleAI, Text: "", FullText: resp.Reply}
	w.append(aiMsg)
	w.sim.Start(aiMsg.ID, resp)

	w.log.Debug().Str("id", aiMsg.ID).Str("prompt", resp.Prompt).Msg("streaming reply")
	w.stateChanged(prev)
	return nil
}

// Suggest sends a suggestion chip as if it had been typed.
func (w *Widget) Suggest(text string) error {
	return w.Send(text)
}

// Tick applies one due reveal step for the ai message id.
func (w *Widget) Tick(id string) {
	prev := w.State()
	step, ok := w.sim.Tick(id)
	if !ok {
		return
	}

	idx := w.session.Index(id)
	if idx < 0 {
		return
	}
	msg := &w.session[idx]
	msg.Text = step.Text
	if step.Done {
		msg.Suggestions = step.Suggestions
	}
	w.store.Save(w.session)
	w.emit(Event{Type: EventUpdate, Message: msg.Clone()})

	if step.Done {
		w.log.Debug().Str("id", id).Msg("reply finished")
	}
	w.stateChanged(prev)
}

// Clear wipes the session in memory and in the store. The panel stays as it is.
func (w *Widget) Clear() {
	prev := w.State()
	w.sim.StopAll()
	w.session = chat.Session{}
	w.store.Clear()
	w.emit(Event{Type: EventClear})
	w.stateChanged(prev)
}

func (w *Widget) append(m chat.Message) {
	w.session = append(w.session, m)
	w.store.Save(w.session)
	w.emit(Event{Type: EventAppend, Message: m.Clone()})
}

func (w *Widget) stateChanged(prev State) {
	if cur := w.State(); cur != prev {
		w.emit(Event{Type: EventState, State: cur})
	}
}

func (w *Widget) emit(ev Event) {
	w.listener(ev)
}
