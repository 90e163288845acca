package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/internal/presentation/tui"
	"github.com/aretw0/botflow/pkg/dispatch"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/intake"
	"golang.org/x/term"
)

// DefaultConversationID is used by the local chat when none is given.
const DefaultConversationID = "local"

// ChatOptions configures a local chat session.
type ChatOptions struct {
	FlowID         string
	ConversationID string
	In             io.Reader
	Out            io.Writer
	// Interactive prints the banner and a prompt before each line.
	Interactive bool
	// Plain disables colors and markdown rendering.
	Plain bool
	// Fast skips the pauses requested by delay nodes.
	Fast   bool
	Logger *slog.Logger
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Chat runs a read-eval-print loop against one flow: every line is an event
// of the conversation, processed and delivered like a real message.
// Lines starting with ":" drive the simulator itself:
//
//	:click DATA   press the button whose callback data is DATA
//	:state        show the pending node and variables
//	:reset        forget the conversation
//	:quit         leave (also q, quit, exit)
func Chat(ctx context.Context, engine *botflow.Engine, opts ChatOptions) error {
	if opts.ConversationID == "" {
		opts.ConversationID = DefaultConversationID
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if _, err := engine.Flow(ctx, opts.FlowID); err != nil {
		return err
	}

	r := tui.NewRenderer(opts.Plain)
	dispatchOpts := []dispatch.Option{dispatch.WithLogger(opts.Logger), dispatch.WithFlowID(opts.FlowID)}
	if opts.Fast {
		dispatchOpts = append(dispatchOpts, dispatch.WithSleep(func(context.Context, time.Duration) error { return nil }))
	}
	proc := intake.NewProcessor(engine,
		dispatch.New(NewConsole(opts.Out, r), dispatchOpts...),
		intake.WithLogger(opts.Logger),
	)

	if opts.Interactive {
		tui.PrintBanner(opts.Out, botflow.Version)
		fmt.Fprintln(opts.Out, r.System("Chatting with flow '%s' as '%s'. Type :quit to leave.", opts.FlowID, opts.ConversationID))
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(opts.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	clicks := 0
	for {
		if opts.Interactive {
			fmt.Fprint(opts.Out, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}

		var ev domain.Event
		switch cmd, arg, _ := strings.Cut(line, " "); cmd {
		case "q", "quit", "exit", ":q", ":quit":
			return nil
		case ":state":
			state, err := engine.State(ctx, opts.FlowID, opts.ConversationID)
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.Out, r.System("%s", describeState(state)))
			continue
		case ":reset":
			if err := engine.Reset(ctx, opts.FlowID, opts.ConversationID); err != nil {
				return err
			}
			fmt.Fprintln(opts.Out, r.System("Conversation reset."))
			continue
		case ":click":
			clicks++
			ev = domain.CallbackEvent(opts.ConversationID, "local-"+strconv.Itoa(clicks), strings.TrimSpace(arg))
		default:
			ev = domain.TextEvent(opts.ConversationID, line)
		}

		if _, report, err := proc.Process(ctx, opts.FlowID, ev); err != nil {
			fmt.Fprintln(opts.Out, r.System("error: %v", err))
		} else if report.Failed() > 0 {
			fmt.Fprintln(opts.Out, r.System("%d action(s) failed", report.Failed()))
		}
	}
}

func describeState(s *domain.State) string {
	var b strings.Builder
	if s.Pending() {
		fmt.Fprintf(&b, "waiting at '%s'", s.PendingNodeID)
	} else {
		b.WriteString("idle")
	}
	names := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, " %s=%q", k, s.Variables[k])
	}
	return b.String()
}
