// Package notify shows operator-visible messages.
package notify

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Terminal shows messages on the controlling terminal and waits for the
// user to dismiss them. Without a terminal it only logs.
type Terminal struct {
	mu          sync.Mutex
	in          io.Reader
	out         io.Writer
	interactive bool
	log         *zap.Logger
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithIO replaces stdin and stderr and forces interactive mode.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(t *Terminal) {
		t.in = in
		t.out = out
		t.interactive = true
	}
}

// Headless disables the terminal even when one is attached.
func Headless() Option {
	return func(t *Terminal) { t.interactive = false }
}

// NewTerminal creates a notifier. It is interactive when both stdin and
// stderr are terminals.
func NewTerminal(log *zap.Logger, opts ...Option) *Terminal {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Terminal{
		in:          os.Stdin,
		out:         os.Stderr,
		interactive: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd())),
		log:         log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ShowBlockingMessage logs the message and, on a terminal, shows it until
// the user presses enter.
func (t *Terminal) ShowBlockingMessage(title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.Warn(message, zap.String("title", title))
	if !t.interactive {
		return
	}

	box := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		"",
		message,
	))
	io.WriteString(t.out, box+"\n"+helpStyle.Render("press enter to continue")+"\n")

	if _, err := bufio.NewReader(t.in).ReadString('\n'); err != nil && err != io.EOF {
		t.log.Debug("read dismissal", zap.Error(err))
	}
}
