package window

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	player "github.com/wippyai/wasm-player"
	"github.com/wippyai/wasm-player/errors"
	"github.com/wippyai/wasm-player/input"
	"github.com/wippyai/wasm-player/lifecycle"
	"github.com/wippyai/wasm-player/signal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Pump runs the bubbletea event loop on the primary thread and feeds the
// thread context's slots.
type Pump struct {
	win      *Window
	in       io.Reader
	out      io.Writer
	tick     time.Duration
	alt      bool
	bindPath string
	watch    bool
	initial  *input.Bindings
	loader   func(path string) (*input.Bindings, error)

	stop signal.Latch
	done chan struct{}

	mu      sync.Mutex
	program *tea.Program
	watcher *BindingWatcher
}

// Option configures a Pump.
type Option func(*Pump)

// WithInput sets the key input source. Headless windows ignore it.
func WithInput(r io.Reader) Option {
	return func(p *Pump) { p.in = r }
}

// WithOutput sets where frames are rendered.
func WithOutput(w io.Writer) Option {
	return func(p *Pump) { p.out = w }
}

// WithRefreshRate sets how often presented frames are picked up.
func WithRefreshRate(hz int) Option {
	return func(p *Pump) {
		if hz > 0 {
			p.tick = time.Second / time.Duration(hz)
		}
	}
}

// WithAltScreen renders in the terminal's alternate screen.
func WithAltScreen(enabled bool) Option {
	return func(p *Pump) { p.alt = enabled }
}

// WithBindings sets the bindings file reloaded by the reload action and,
// when watch is set, on every change on disk.
func WithBindings(path string, watch bool) Option {
	return func(p *Pump) {
		p.bindPath = path
		p.watch = watch
	}
}

// WithInitialBindings sets the bindings in effect when Process starts.
func WithInitialBindings(b *input.Bindings) Option {
	return func(p *Pump) { p.initial = b }
}

// NewPump creates the event pump for win.
func NewPump(win *Window, opts ...Option) *Pump {
	p := &Pump{
		win:    win,
		tick:   time.Second / 60,
		loader: input.LoadOrDefault,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequestTerminate asks a running or future Process call to return.
// Safe to call from any thread, any number of times.
func (p *Pump) RequestTerminate() {
	if p.stop.Set() {
		Logger().Debug("pump termination requested")
	}
}

// stopMsg ends the event loop.
type stopMsg struct{ reason string }

// frameTickMsg picks up the latest presented frame.
type frameTickMsg time.Time

// bindingsMsg carries bindings reloaded off the event loop.
type bindingsMsg struct{ bindings *input.Bindings }

// Process runs the event loop until the user quits, the worker acknowledges
// termination or RequestTerminate is called.
func (p *Pump) Process(ctx context.Context, tc *lifecycle.ThreadContext) error {
	defer close(p.done)

	bindings := p.initial
	if bindings == nil {
		bindings = input.Default()
	}
	m := &model{
		pump:     p,
		tc:       tc,
		title:    p.win.Title(),
		size:     p.win.Size(),
		bindings: bindings,
		help:     help.New(),
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.out != nil {
		opts = append(opts, tea.WithOutput(p.out))
	}
	if p.win.Headless() {
		opts = append(opts, tea.WithInput(nil), tea.WithoutRenderer())
	} else {
		if p.in != nil {
			opts = append(opts, tea.WithInput(p.in))
		}
		if p.alt {
			opts = append(opts, tea.WithAltScreen())
		}
	}

	program := tea.NewProgram(m, opts...)
	p.mu.Lock()
	p.program = program
	p.mu.Unlock()

	if p.watch && p.bindPath != "" {
		w, err := NewBindingWatcher(p.bindPath, func(b *input.Bindings) {
			program.Send(bindingsMsg{bindings: b})
		})
		if err != nil {
			Logger().Warn("bindings watch disabled", zap.Error(err))
		} else {
			p.mu.Lock()
			p.watcher = w
			p.mu.Unlock()
		}
	}

	_, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		return errors.Wrap(errors.PhaseBoot, errors.KindIO, err, "event loop failed")
	}
	Logger().Debug("event loop exited", zap.String("reason", m.exitReason))
	return nil
}

// Cleanup releases what Process left behind: the bindings watcher and any
// frame presented after the last render.
func (p *Pump) Cleanup(tc *lifecycle.ThreadContext) {
	p.mu.Lock()
	w := p.watcher
	p.watcher = nil
	p.program = nil
	p.mu.Unlock()

	if w != nil {
		if err := w.Close(); err != nil {
			Logger().Warn("close bindings watcher", zap.Error(err))
		}
	}

	drained := 0
	if _, ok := p.win.Frame(); ok {
		drained++
	}
	if _, ok := tc.Keys.Poll(); ok {
		drained++
	}
	if drained > 0 {
		Logger().Debug("drained undispatched events", zap.Int("count", drained))
	}
}

type model struct {
	pump       *Pump
	tc         *lifecycle.ThreadContext
	title      string
	size       player.Size
	frame      player.Frame
	bindings   *input.Bindings
	help       help.Model
	keySeq     uint64
	status     string
	exitReason string
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.waitLatch(m.tc.TerminationAcknowledged.Done(), "worker acknowledged"),
		m.waitLatch(m.pump.stop.Done(), "terminate requested"),
		m.frameTick(),
	)
}

// waitLatch turns a latch into a stop message. It gives up once the pump
// has returned so the command goroutine does not outlive Process.
func (m *model) waitLatch(ch <-chan struct{}, reason string) tea.Cmd {
	done := m.pump.done
	return func() tea.Msg {
		select {
		case <-ch:
			return stopMsg{reason: reason}
		case <-done:
			return nil
		}
	}
}

func (m *model) frameTick() tea.Cmd {
	return tea.Tick(m.pump.tick, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		if !m.pump.win.Resizable() {
			break
		}
		size := player.Size{Width: msg.Width, Height: msg.Height}
		m.size = size
		m.pump.win.Resize(size)
		m.tc.WindowSize.Post(size)

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case bindingsMsg:
		m.setBindings(msg.bindings)

	case frameTickMsg:
		if f, ok := m.pump.win.Frame(); ok {
			m.frame = f
		}
		return m, m.frameTick()

	case stopMsg:
		m.exitReason = msg.reason
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) handleKey(k string) tea.Cmd {
	action, _ := m.bindings.Match(k)
	switch action {
	case input.ActionQuit:
		m.exitReason = "quit"
		return tea.Quit

	case input.ActionReload:
		b, err := m.pump.loader(m.pump.bindPath)
		if err != nil {
			m.status = errors.Reason(err)
			Logger().Warn("bindings reload failed", zap.Error(err))
			return nil
		}
		m.setBindings(b)
		return nil
	}

	m.keySeq++
	m.tc.Keys.Post(input.KeyEvent{Key: k, Action: action, Seq: m.keySeq})
	return nil
}

func (m *model) setBindings(b *input.Bindings) {
	m.bindings = b
	m.status = "bindings: " + b.Source()
	m.tc.Bindings.Post(b)
}

func (m *model) View() string {
	header := titleStyle.Render(m.title)
	footer := m.help.View(m.bindings)
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "  " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.frame.Text, footer)
}
