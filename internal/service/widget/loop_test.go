package widget

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haiintel/dashboard/internal/analysis/match"
	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/chat"
	"github.com/haiintel/dashboard/internal/model/response"
	chatservice "github.com/haiintel/dashboard/internal/service/chat"
	"github.com/haiintel/dashboard/internal/storage"
)

func startLoop(t *testing.T, mem storage.Storage, listener Listener) (*Loop, context.CancelFunc) {
	t.Helper()
	loop := NewLoop(Options{
		Store:    chatservice.NewSessionStore(mem, logging.Nop()),
		Matcher:  match.New(response.MustDefault()),
		Interval: time.Millisecond,
		Listener: listener,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop, cancel
}

func snapshot(t *testing.T, loop *Loop) (chat.Session, State) {
	t.Helper()
	var msgs chat.Session
	var state State
	require.NoError(t, loop.Call(context.Background(), func(w *Widget) {
		msgs = w.Messages()
		state = w.State()
	}))
	return msgs, state
}

func TestLoopStreamsToCompletion(t *testing.T) {
	mem := storage.NewMemoryStorage(0)
	loop, _ := startLoop(t, mem, nil)

	require.NoError(t, loop.Post(func(w *Widget) { w.Open() }))
	require.NoError(t, loop.Post(func(w *Widget) { _ = w.Send("What is HaiIntel?") }))
	require.NoError(t, loop.Post(func(w *Widget) { _ = w.Send("ai design") }))

	require.Eventually(t, func() bool {
		_, state := snapshot(t, loop)
		return state == StateIdle
	}, 5*time.Second, 5*time.Millisecond)

	msgs, _ := snapshot(t, loop)
	require.Len(t, msgs, 4)
	for _, m := range msgs {
		if m.Role == chat.RoleAI {
			assert.Equal(t, m.FullText, m.Text)
			assert.NotNil(t, m.Suggestions)
		}
	}
	assert.Equal(t, haiIntelReply, msgs[1].Text)

	stored, ok := chatservice.NewSessionStore(mem, logging.Nop()).Load()
	require.True(t, ok)
	assert.Equal(t, msgs, stored)
}

func TestLoopListenerSeesOrderedTicks(t *testing.T) {
	var mu sync.Mutex
	lengths := map[string][]int{}
	listener := func(ev Event) {
		if ev.Type != EventUpdate {
			return
		}
		mu.Lock()
		lengths[ev.Message.ID] = append(lengths[ev.Message.ID], len([]rune(ev.Message.Text)))
		mu.Unlock()
	}
	loop, _ := startLoop(t, storage.NewMemoryStorage(0), listener)

	require.NoError(t, loop.Post(func(w *Widget) {
		w.Open()
		_ = w.Send("ai design")
	}))

	require.Eventually(t, func() bool {
		_, state := snapshot(t, loop)
		return state == StateIdle
	}, 5*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lengths, 1)
	for _, seq := range lengths {
		for i, n := range seq {
			assert.Equal(t, i+1, n)
		}
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	loop, cancel := startLoop(t, storage.NewMemoryStorage(0), nil)
	require.NoError(t, loop.Post(func(w *Widget) {
		w.Open()
		_ = w.Send("What is HaiIntel?")
	}))

	cancel()
	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	assert.ErrorIs(t, loop.Post(func(*Widget) {}), ErrStopped)
	assert.ErrorIs(t, loop.Call(context.Background(), func(*Widget) {}), ErrStopped)
}
