package stream

import (
	"time"

	"github.com/haiintel/dashboard/internal/model/chat"
)

// DefaultInterval is the delay between two reveal ticks.
const DefaultInterval = 10 * time.Millisecond

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d on some other goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

type active struct {
	stream *Stream
	timer  Timer
}

// Simulator drives every in-flight stream of one widget.
//
// Start, Tick, Active and StopAll must be called from the owner's goroutine. Timers never
// touch the simulator directly: when one fires it hands the message id to post, and the
// owner is expected to call Tick with it. The next tick is scheduled only after the current
// one has been applied, so ticks of one message never overlap.
type Simulator struct {
	interval time.Duration
	sched    Scheduler
	post     func(id string)
	streams  map[string]*active
}

// NewSimulator returns a simulator. post must be safe to call from any goroutine.
func NewSimulator(interval time.Duration, sched Scheduler, post func(id string)) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if sched == nil {
		sched = RealScheduler
	}
	return &Simulator{
		interval: interval,
		sched:    sched,
		post:     post,
		streams:  make(map[string]*active),
	}
}

// Start begins revealing resp into the ai message id.
func (s *Simulator) Start(id string, resp chat.Response) {
	if old, ok := s.streams[id]; ok && old.timer != nil {
		old.timer.Stop()
	}
	a := &active{stream: New(id, resp)}
	s.streams[id] = a
	s.schedule(id, a)
}

// Tick applies one reveal step for id. It reports false when id has no live stream.
func (s *Simulator) Tick(id string) (Step, bool) {
	a, ok := s.streams[id]
	if !ok {
		return Step{}, false
	}
	a.timer = nil

	step, ok := a.stream.Advance()
	if !ok || step.Done {
		delete(s.streams, id)
		return step, ok
	}

	s.schedule(id, a)
	return step, true
}

// Active reports the number of streams still revealing.
func (s *Simulator) Active() int {
	return len(s.streams)
}

// StopAll cancels every pending timer and forgets all streams.
func (s *Simulator) StopAll() {
	for id, a := range s.streams {
		if a.timer != nil {
			a.timer.Stop()
		}
		delete(s.streams, id)
	}
}

func (s *Simulator) schedule(id string, a *active) {
	a.timer = s.sched.AfterFunc(s.interval, func() {
		s.post(id)
	})
}
