package widget

import (
	"context"
	"errors"
)

// ErrStopped is returned when posting to a loop that is no longer running.
var ErrStopped = errors.New("widget loop stopped")

// Loop owns a Widget and runs every action against it on a single goroutine: user actions,
// stream ticks and queries are all serialised through one channel.
type Loop struct {
	widget  *Widget
	actions chan func(*Widget)
	done    chan struct{}
}

// NewLoop builds the widget and its loop. Call Run to mount it.
func NewLoop(opts Options) *Loop {
	l := &Loop{
		actions: make(chan func(*Widget), 64),
		done:    make(chan struct{}),
	}
	l.widget = New(opts, l.postTick)
	return l
}

// Run mounts the widget and processes actions until ctx is done, then unmounts it.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	l.widget.Mount()
	defer l.widget.Unmount()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.actions:
			fn(l.widget)
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func(*Widget)) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.actions <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func(*Widget)) error {
	finished := make(chan struct{})
	if err := l.Post(func(w *Widget) {
		defer close(finished)
		fn(w)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) postTick(id string) {
	_ = l.Post(func(w *Widget) { w.Tick(id) })
}
