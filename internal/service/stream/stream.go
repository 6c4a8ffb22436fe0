package stream

import (
	"github.com/haiintel/dashboard/internal/model/chat"
)

// Step is the outcome of one reveal tick.
type Step struct {
	ID    string
	Text  string // revealed prefix after the tick
	Delta string // the character revealed by this tick
	Done  bool
	// Suggestions is only set on the terminal step and is never nil there.
	Suggestions []string
}

// Stream reveals one canned reply a character at a time.
type Stream struct {
	id          string
	reply       []rune
	suggestions []string
	revealed    int
	finished    bool
}

// New prepares a stream for the ai message id.
func New(id string, resp chat.Response) *Stream {
	suggestions := []string{}
	if len(resp.Suggestions) > 0 {
		suggestions = append(suggestions, resp.Suggestions...)
	}
	return &Stream{id: id, reply: []rune(resp.Reply), suggestions: suggestions}
}

// ID returns the message id the stream writes to.
func (s *Stream) ID() string { return s.id }

// FullText returns the complete reply.
func (s *Stream) FullText() string { return string(s.reply) }

// Text returns the currently revealed prefix.
func (s *Stream) Text() string { return string(s.reply[:s.revealed]) }

// Finished reports whether the terminal step was produced.
func (s *Stream) Finished() bool { return s.finished }

// Advance reveals one more character. It returns false once the stream has finished,
// so redundant ticks have no effect.
func (s *Stream) Advance() (Step, bool) {
	if s.finished {
		return Step{}, false
	}

	var delta string
	if s.revealed < len(s.reply) {
		delta = string(s.reply[s.revealed])
		s.revealed++
	}

	step := Step{ID: s.id, Text: s.Text(), Delta: delta}
	if s.revealed >= len(s.reply) {
		s.finished = true
		step.Done = true
		step.Suggestions = append([]string{}, s.suggestions...)
	}
	return step, true
}
