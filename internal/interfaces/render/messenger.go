package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Messenger prints styled status lines. Errors go to errOut.
type Messenger struct {
	out    io.Writer
	errOut io.Writer
	styles styles
	errSty styles
}

func NewMessenger(out, errOut io.Writer) *Messenger {
	return &Messenger{
		out:    out,
		errOut: errOut,
		styles: newStyles(lipgloss.NewRenderer(out)),
		errSty: newStyles(lipgloss.NewRenderer(errOut)),
	}
}

func (m *Messenger) Info(msg string) {
	fmt.Fprintln(m.out, m.styles.info.Render("ℹ️  "+msg))
}

func (m *Messenger) Success(msg string) {
	fmt.Fprintln(m.out, m.styles.success.Render("✅ "+msg))
}

func (m *Messenger) Error(msg string) {
	fmt.Fprintln(m.errOut, m.errSty.failure.Render("❌ "+msg))
}

// Banner prints the application name and tagline in a panel.
func (m *Messenger) Banner(name, tagline string) {
	fmt.Fprintln(m.out, m.styles.panel.Render(m.styles.title.Render(name)+"\n"+tagline))
}
