package widget

import (
	"strconv"
	"strings"
	"time"

	"github.com/haiintel/dashboard/internal/model/chat"
)

// idSource produces "<unix-millis>-<tag>" ids. Stamps never repeat within one widget, even
// when two messages are created in the same millisecond.
type idSource struct {
	now  func() time.Time
	last int64
}

func (s *idSource) next(tag string) string {
	stamp := s.now().UnixMilli()
	if stamp <= s.last {
		stamp = s.last + 1
	}
	s.last = stamp
	return strconv.FormatInt(stamp, 10) + "-" + tag
}

// observe moves the stamp past ids of a restored session.
func (s *idSource) observe(session chat.Session) {
	for _, m := range session {
		head, _, ok := strings.Cut(m.ID, "-")
		if !ok {
			continue
		}
		if stamp, err := strconv.ParseInt(head, 10, 64); err == nil && stamp > s.last {
			s.last = stamp
		}
	}
}
