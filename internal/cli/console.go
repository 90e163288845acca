package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/botflow/internal/presentation/tui"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/ports"
)

var _ ports.Transport = (*Console)(nil)

// Console is a Transport printing bot output to a terminal.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *tui.Renderer
}

// NewConsole writes to out through r.
func NewConsole(out io.Writer, r *tui.Renderer) *Console {
	return &Console{out: out, renderer: r}
}

func (c *Console) SendText(_ context.Context, _ string, text string, buttons []domain.Button) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.renderer.Text(text))
	if kb := c.renderer.Buttons(buttons); kb != "" {
		fmt.Fprintln(c.out, kb)
	}
	return nil
}

func (c *Console) SendImage(_ context.Context, _ string, imageURL, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "🖼  %s\n", imageURL)
	if caption != "" {
		fmt.Fprintln(c.out, c.renderer.Text(caption))
	}
	return nil
}

func (c *Console) SendTyping(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.renderer.System("typing..."))
	return nil
}

func (c *Console) AnswerCallback(context.Context, string) error {
	return nil
}
