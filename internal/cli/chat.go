package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/haiintel/dashboard/internal/analysis/match"
	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/response"
	chatservice "github.com/haiintel/dashboard/internal/service/chat"
	"github.com/haiintel/dashboard/internal/service/stream"
	"github.com/haiintel/dashboard/internal/service/widget"
	"github.com/haiintel/dashboard/internal/storage"
)

// scopeID is the storage scope of the terminal client inside its database.
const scopeID = "cli"

type options struct {
	dbPath    string
	interval  time.Duration
	responses string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "haiintel-chat",
		Short: "HaiIntel assistant in the terminal",
		Long:  "Chat with the HaiIntel assistant. The conversation is kept in a local SQLite database and restored on the next start.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "local storage database (default ~/.haiintel/local.db)")
	cmd.Flags().DurationVar(&opts.interval, "interval", stream.DefaultInterval, "delay between revealed characters")
	cmd.Flags().StringVar(&opts.responses, "responses", "", "YAML or TOML response table (default built-in)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error, fatal, silent)")

	return cmd
}

// Execute runs the root command.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
	}
	return err
}

func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".haiintel", "local.db"), nil
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	log := logging.New(nil, opts.logLevel)

	table := response.MustDefault()
	if opts.responses != "" {
		var err error
		if table, err = response.LoadFile(opts.responses); err != nil {
			return err
		}
	}
	if opts.interval <= 0 {
		return fmt.Errorf("invalid --interval %s: must be positive", opts.interval)
	}

	path := opts.dbPath
	if path == "" {
		var err error
		if path, err = defaultDBPath(); err != nil {
			return err
		}
	}
	db, err := storage.OpenSQLite(path, log)
	if err != nil {
		return err
	}
	defer db.Close()

	term := newTerminal(out)
	loop := widget.NewLoop(widget.Options{
		Store:    chatservice.NewSessionStore(db.Scope(scopeID), log),
		Matcher:  match.New(table),
		Interval: opts.interval,
		Listener: term.handle,
		Log:      log,
	})

	loopCtx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-loop.Done()
	}()
	go loop.Run(loopCtx)

	if err := loop.Call(ctx, func(w *widget.Widget) {
		w.Open()
		term.help()
	}); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-loopCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return waitIdle(ctx, loop)
			}
			quit, err := dispatch(loop, term, line)
			if err != nil {
				return err
			}
			if quit {
				// let already queued actions run before the loop is stopped
				return loop.Call(ctx, func(*widget.Widget) {})
			}
		}
	}
}

// dispatch turns one input line into a widget action.
func dispatch(loop *widget.Loop, term *terminal, line string) (bool, error) {
	cmd := strings.TrimSpace(line)
	switch {
	case cmd == "/quit" || cmd == "/exit":
		return true, nil
	case cmd == "/clear":
		return false, loop.Post((*widget.Widget).Clear)
	case cmd == "/help":
		return false, loop.Post(func(*widget.Widget) { term.help() })
	case strings.HasPrefix(cmd, "/"):
		n, err := strconv.Atoi(strings.TrimPrefix(cmd, "/"))
		if err != nil {
			return false, loop.Post(func(*widget.Widget) { term.notice("unknown command %s, try /help", cmd) })
		}
		return false, loop.Post(func(w *widget.Widget) {
			text, ok := term.suggestion(n)
			if !ok {
				term.notice("no suggestion /%d", n)
				return
			}
			report(term, w.Suggest(text))
		})
	default:
		return false, loop.Post(func(w *widget.Widget) { report(term, w.Send(line)) })
	}
}

func report(term *terminal, err error) {
	if err != nil {
		term.notice("%v", err)
	}
}

// waitIdle lets running replies finish before exiting on end of input.
func waitIdle(ctx context.Context, loop *widget.Loop) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		var state widget.State
		if err := loop.Call(ctx, func(w *widget.Widget) { state = w.State() }); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if state != widget.StateStreaming {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
