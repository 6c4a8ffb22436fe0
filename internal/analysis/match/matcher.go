package match

import (
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"

	"github.com/haiintel/dashboard/internal/model/chat"
)

// Table is the read side of the canned response table.
type Table interface {
	Len() int
	At(i int) chat.Response
}

// Matcher selects a canned response for free-form user input.
type Matcher struct {
	table Table
	pick  func(n int) int
}

// Option customises a Matcher.
type Option func(*Matcher)

// WithPicker replaces the uniform random picker used for the fallback branch.
func WithPicker(pick func(n int) int) Option {
	return func(m *Matcher) {
		m.pick = pick
	}
}

// New returns a Matcher over table. The table must not be empty.
func New(table Table, opts ...Option) *Matcher {
	m := &Matcher{table: table, pick: rand.IntN}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the first response whose prompt appears inside input, compared without
// regard to case. When nothing matches a response is picked uniformly at random.
func (m *Matcher) Match(input string) chat.Response {
	if idx, ok := m.find(input); ok {
		return m.table.At(idx)
	}
	return m.table.At(m.pick(m.table.Len()))
}

// Matched reports whether input hits a prompt without falling back.
func (m *Matcher) Matched(input string) bool {
	_, ok := m.find(input)
	return ok
}

func (m *Matcher) find(input string) (int, bool) {
	normalized := fold(strings.TrimSpace(input))
	if normalized == "" {
		return 0, false
	}
	for i := 0; i < m.table.Len(); i++ {
		prompt := fold(m.table.At(i).Prompt)
		if prompt == "" {
			continue
		}
		if strings.Contains(normalized, prompt) {
			return i, true
		}
	}
	return 0, false
}

// fold builds a fresh Caser each call; a Caser keeps state and is not safe to share.
func fold(s string) string {
	return cases.Fold().String(s)
}
