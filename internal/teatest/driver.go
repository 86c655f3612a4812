// Package teatest drives bubbletea models in tests without a terminal.
//
// Update is called directly and every returned Cmd is run on the calling
// goroutine until the model goes quiet, so a test sees the state a real
// program would settle in after each key.
package teatest

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// maxSteps bounds the messages processed for one input so a model that
// keeps scheduling work fails the test instead of hanging it.
const maxSteps = 200

type Driver struct {
	t        testing.TB
	model    tea.Model
	quitting bool
}

type Option func(*Driver)

// WithSize delivers a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.Send(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// New wraps m. Call Init to run the model's startup command.
func New(t testing.TB, m tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{t: t, model: m}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init runs the model's Init command and everything it leads to.
func (d *Driver) Init() {
	d.t.Helper()
	d.settle(d.model.Init())
}

// Send delivers msg and settles the resulting commands. Nothing is
// delivered once the model has quit.
func (d *Driver) Send(msg tea.Msg) {
	d.t.Helper()
	if d.quitting {
		return
	}
	var cmd tea.Cmd
	d.model, cmd = d.model.Update(msg)
	d.settle(cmd)
}

var namedKeys = map[string]tea.KeyType{
	"up":     tea.KeyUp,
	"down":   tea.KeyDown,
	"left":   tea.KeyLeft,
	"right":  tea.KeyRight,
	"enter":  tea.KeyEnter,
	"esc":    tea.KeyEsc,
	"tab":    tea.KeyTab,
	"space":  tea.KeySpace,
	"ctrl+c": tea.KeyCtrlC,
}

// Keys presses each named key in turn. Names other than the arrows,
// enter, esc, tab, space and ctrl+c are typed as text.
func (d *Driver) Keys(names ...string) {
	d.t.Helper()
	for _, name := range names {
		if kt, ok := namedKeys[name]; ok {
			d.Send(tea.KeyMsg{Type: kt})
			continue
		}
		for _, r := range name {
			d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
	}
}

func (d *Driver) Model() tea.Model { return d.model }
func (d *Driver) View() string     { return d.model.View() }

// Quitting reports whether the model returned tea.Quit.
func (d *Driver) Quitting() bool { return d.quitting }

func (d *Driver) settle(first tea.Cmd) {
	d.t.Helper()
	queue := []tea.Cmd{first}
	for steps := 0; len(queue) > 0; steps++ {
		if steps >= maxSteps {
			d.t.Fatalf("teatest: model still busy after %d messages", maxSteps)
			return
		}
		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}
		switch msg := cmd().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
			d.quitting = true
			return
		default:
			var next tea.Cmd
			d.model, next = d.model.Update(msg)
			queue = append(queue, next)
		}
	}
}
