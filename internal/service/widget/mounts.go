package widget

import (
	"context"
	"sync"
)

// Mounts tracks the loops currently mounted per device so that writers outside a widget
// can go through it instead of touching the device's storage directly.
type Mounts struct {
	mu    sync.Mutex
	loops map[string]map[*Loop]struct{}
}

// NewMounts returns an empty registry.
func NewMounts() *Mounts {
	return &Mounts{loops: make(map[string]map[*Loop]struct{})}
}

// Add registers l under device and returns the func that removes it. Register before Run so
// a clear issued while the widget is mounting is queued behind Mount.
func (m *Mounts) Add(device string, l *Loop) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.loops[device]
	if !ok {
		set = make(map[*Loop]struct{})
		m.loops[device] = set
	}
	set[l] = struct{}{}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.loops[device], l)
		if len(m.loops[device]) == 0 {
			delete(m.loops, device)
		}
	}
}

// Count reports how many loops are mounted for device.
func (m *Mounts) Count(device string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loops[device])
}

// Clear runs Widget.Clear on every loop mounted for device and waits for each. It reports
// whether at least one widget performed the clear; false means the caller owns the storage.
func (m *Mounts) Clear(ctx context.Context, device string) (bool, error) {
	m.mu.Lock()
	loops := make([]*Loop, 0, len(m.loops[device]))
	for l := range m.loops[device] {
		loops = append(loops, l)
	}
	m.mu.Unlock()

	cleared := false
	for _, l := range loops {
		err := l.Call(ctx, (*Widget).Clear)
		switch {
		case err == nil:
			cleared = true
		case ctx.Err() != nil:
			return cleared, ctx.Err()
		}
	}
	return cleared, nil
}
