package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/haiintel/dashboard/internal/model/chat"
	"github.com/haiintel/dashboard/internal/service/widget"
)

// terminal renders widget events as a scrolling transcript. It is only touched from the
// widget loop goroutine.
type terminal struct {
	out io.Writer

	user   func(a ...any) string
	ai     func(a ...any) string
	dim    func(a ...any) string
	errorf func(format string, a ...any) string

	// inline is the ai message currently being revealed on the last line.
	inline  string
	printed int
	// suggestions of the most recently finished reply, for /1, /2, ...
	suggestions []string
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{
		out:    out,
		user:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		ai:     color.New(color.FgCyan, color.Bold).SprintFunc(),
		dim:    color.New(color.Faint).SprintFunc(),
		errorf: color.New(color.FgRed).SprintfFunc(),
	}
}

// handle is the widget listener.
func (t *terminal) handle(ev widget.Event) {
	switch ev.Type {
	case widget.EventSnapshot:
		if len(ev.Messages) > 0 {
			fmt.Fprintln(t.out, t.dim("restored conversation:"))
		}
		for _, m := range ev.Messages {
			t.printMessage(m)
		}
	case widget.EventAppend:
		t.endInline()
		if ev.Message.Role == chat.RoleUser {
			fmt.Fprintf(t.out, "%s %s\n", t.user("You:"), ev.Message.Text)
			return
		}
		fmt.Fprintf(t.out, "%s ", t.ai("HaiIntel:"))
		t.inline = ev.Message.ID
		t.printed = 0
	case widget.EventUpdate:
		t.update(ev.Message)
	case widget.EventClear:
		t.endInline()
		t.suggestions = nil
		fmt.Fprintln(t.out, t.dim("(conversation cleared)"))
	}
}

func (t *terminal) update(m chat.Message) {
	if m.ID == t.inline {
		runes := []rune(m.Text)
		if len(runes) > t.printed {
			fmt.Fprint(t.out, string(runes[t.printed:]))
			t.printed = len(runes)
		}
		if m.Complete() {
			fmt.Fprintln(t.out)
			t.inline = ""
			t.printSuggestions(m.Suggestions)
		}
		return
	}
	// a reply that lost the last line to a newer message is shown once it completes
	if m.Complete() {
		t.endInline()
		t.printMessage(m)
	}
}

func (t *terminal) printMessage(m chat.Message) {
	if m.Role == chat.RoleUser {
		fmt.Fprintf(t.out, "%s %s\n", t.user("You:"), m.Text)
		return
	}
	fmt.Fprintf(t.out, "%s %s\n", t.ai("HaiIntel:"), m.Text)
	if m.Complete() {
		t.printSuggestions(m.Suggestions)
	}
}

func (t *terminal) printSuggestions(s []string) {
	if len(s) == 0 {
		return
	}
	t.suggestions = append([]string(nil), s...)
	for i, text := range s {
		fmt.Fprintf(t.out, "  %s %s\n", t.dim(fmt.Sprintf("/%d", i+1)), text)
	}
}

func (t *terminal) endInline() {
	if t.inline != "" {
		fmt.Fprintln(t.out)
		t.inline = ""
	}
}

// suggestion returns the n-th (1-based) chip of the last finished reply.
func (t *terminal) suggestion(n int) (string, bool) {
	if n < 1 || n > len(t.suggestions) {
		return "", false
	}
	return t.suggestions[n-1], true
}

func (t *terminal) notice(format string, a ...any) {
	t.endInline()
	fmt.Fprintln(t.out, t.errorf(format, a...))
}

func (t *terminal) help() {
	t.endInline()
	fmt.Fprintln(t.out, t.dim(strings.Join([]string{
		"Type a message and press Enter.",
		"  /1, /2, ...  send a suggestion",
		"  /clear       clear the conversation",
		"  /quit        exit (Ctrl+D waits for replies to finish)",
	}, "\n")))
}
