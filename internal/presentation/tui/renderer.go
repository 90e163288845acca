package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Renderer formats bot output for a terminal.
type Renderer struct {
	md      *glamour.TermRenderer
	profile termenv.Profile
}

// NewRenderer returns a renderer. Markdown goes through glamour when plain
// is false; otherwise text is printed as is.
func NewRenderer(plain bool) *Renderer {
	r := &Renderer{profile: termenv.Ascii}
	if plain {
		return r
	}
	r.profile = termenv.ColorProfile()
	// Automatically detect light/dark background
	if md, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
		r.md = md
	}
	return r
}

// Text renders a message body as markdown. Plain renderers keep it verbatim.
func (r *Renderer) Text(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Buttons renders choices on one line. Callback buttons show the data to type
// after ":click"; link buttons show their URL.
func (r *Renderer) Buttons(buttons []domain.Button) string {
	if len(buttons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(buttons))
	for _, b := range buttons {
		var s string
		switch {
		case b.IsLink():
			s = fmt.Sprintf("[%s](%s)", b.Label, b.URL)
		case b.Type == domain.ButtonReply:
			s = fmt.Sprintf("[%s]", b.Label)
		default:
			s = fmt.Sprintf("[%s :%s]", b.Label, b.Data())
		}
		parts = append(parts, r.profile.String(s).Foreground(r.profile.Color("#818cf8")).String())
	}
	return strings.Join(parts, " ")
}

// System renders a line produced by the simulator itself.
func (r *Renderer) System(format string, args ...any) string {
	return r.profile.String(">>> " + fmt.Sprintf(format, args...)).Faint().String()
}
