package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/timeline/internal/cli/formatter"
	"github.com/alexanderramin/timeline/internal/contract"
	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/service"
)

type boardKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Grab      key.Binding
	Cancel    key.Binding
	Recompute key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newBoardKeyMap() boardKeyMap {
	return boardKeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Grab:      key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "grab/drop")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel move")),
		Recompute: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recompute")),
		Reload:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "reload")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Grab, k.Recompute, k.Quit}
}

func (k boardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Grab, k.Cancel},
		{k.Recompute, k.Reload, k.Help, k.Quit},
	}
}

// chainLoadedMsg carries a freshly loaded chain.
type chainLoadedMsg struct {
	view *contract.ChainView
	err  error
}

// chainChangedMsg carries the outcome of a reorder or recompute.
type chainChangedMsg struct {
	action string
	res    *contract.ChainResult
	err    error
}

// boardModel lists one chain and lets the user move items with the
// keyboard. A grabbed item follows the cursor; dropping it saves the new
// position and shows the cascaded dates.
type boardModel struct {
	ctx  context.Context
	svc  service.ScheduleService
	ref  contract.ChainRef
	keys boardKeyMap
	help help.Model

	view    *contract.ChainView
	items   []contract.ScheduleItemView
	cursor  int
	grabbed int
	loading bool
	status  string
	err     error
	width   int
}

func newBoardModel(ctx context.Context, svc service.ScheduleService, ref contract.ChainRef) *boardModel {
	return &boardModel{
		ctx:     ctx,
		svc:     svc,
		ref:     ref,
		keys:    newBoardKeyMap(),
		help:    help.New(),
		grabbed: -1,
		loading: true,
	}
}

func (m *boardModel) Init() tea.Cmd {
	return m.load()
}

func (m *boardModel) load() tea.Cmd {
	ctx, svc, ref := m.ctx, m.svc, m.ref
	ref.ExpectedVersion = nil
	return func() tea.Msg {
		view, err := svc.Show(ctx, ref)
		return chainLoadedMsg{view: view, err: err}
	}
}

func (m *boardModel) reorder(itemID string, to int) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	req := contract.ReorderRequest{ChainRef: m.versioned(), ItemID: itemID, NewIndex: to}
	return func() tea.Msg {
		res, err := svc.Reorder(ctx, req)
		return chainChangedMsg{action: "reorder", res: res, err: err}
	}
}

func (m *boardModel) recompute() tea.Cmd {
	ctx, svc, ref := m.ctx, m.svc, m.versioned()
	return func() tea.Msg {
		res, err := svc.Recompute(ctx, ref)
		return chainChangedMsg{action: "recompute", res: res, err: err}
	}
}

// versioned pins the ref to the version on screen so a concurrent change
// is reported instead of overwritten.
func (m *boardModel) versioned() contract.ChainRef {
	ref := m.ref
	if m.view != nil {
		v := m.view.Version
		ref.ExpectedVersion = &v
	}
	return ref
}

func (m *boardModel) setView(view *contract.ChainView) {
	m.view = view
	m.items = append([]contract.ScheduleItemView(nil), view.Items...)
	m.grabbed = -1
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case chainLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.setView(msg.view)
		}
		return m, nil

	case chainChangedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
			if errors.Is(msg.err, domain.ErrConflict) {
				m.status = "chain changed elsewhere, reloaded"
				m.err = nil
				m.loading = true
				return m, m.load()
			}
			if m.view != nil {
				m.setView(m.view)
			}
			return m, nil
		}
		m.err = nil
		view := msg.res.Chain
		m.setView(&view)
		m.status = fmt.Sprintf("%s: %d items moved", msg.action, len(msg.res.Changed))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.loading || m.view == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Cancel):
		if m.grabbed >= 0 {
			m.setView(m.view)
			m.status = "move cancelled"
		}
	case key.Matches(msg, m.keys.Grab):
		if len(m.items) == 0 {
			return m, nil
		}
		if m.grabbed < 0 {
			m.grabbed = m.cursor
			m.status = "moving " + m.items[m.cursor].ID
			return m, nil
		}
		from, to := m.grabbed, m.cursor
		if from == to {
			m.grabbed = -1
			m.status = ""
			return m, nil
		}
		m.loading = true
		return m, m.reorder(m.items[to].ID, to)
	case key.Matches(msg, m.keys.Recompute):
		if m.grabbed >= 0 {
			return m, nil
		}
		m.loading = true
		return m, m.recompute()
	case key.Matches(msg, m.keys.Reload):
		if m.grabbed >= 0 {
			return m, nil
		}
		m.loading = true
		m.status = ""
		return m, m.load()
	}
	return m, nil
}

// move steps the cursor, carrying the grabbed item along.
func (m *boardModel) move(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.items) {
		return
	}
	if m.grabbed >= 0 {
		m.items[m.cursor], m.items[next] = m.items[next], m.items[m.cursor]
	}
	m.cursor = next
}

func (m *boardModel) View() string {
	var b strings.Builder
	b.WriteString(formatter.Bold(fmt.Sprintf("%s · FY%d", m.ref.ResourceKey, m.ref.FiscalYear)))
	if m.view != nil {
		b.WriteString(" " + formatter.Dim(fmt.Sprintf("v%d", m.view.Version)))
	}
	b.WriteString("\n\n")

	switch {
	case m.view == nil && m.loading:
		b.WriteString(formatter.Dim("  Loading...") + "\n")
	case m.view == nil && m.err != nil:
		b.WriteString(formatter.StyleRed.Render("  "+m.err.Error()) + "\n")
	case m.view != nil:
		if !m.view.HolidaysLoaded {
			b.WriteString(formatter.StyleYellow.Render("  weekends only, no holidays loaded") + "\n\n")
		}
		if len(m.items) == 0 {
			b.WriteString(formatter.Dim("  chain is empty") + "\n")
		}
		for i, it := range m.items {
			b.WriteString(m.renderRow(i, it) + "\n")
		}
	}

	b.WriteString("\n")
	if m.view != nil && m.err != nil {
		b.WriteString(formatter.StyleRed.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(formatter.Dim(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *boardModel) renderRow(i int, it contract.ScheduleItemView) string {
	marker := "  "
	if i == m.cursor {
		marker = formatter.StyleCursor.Render("▸ ")
	}
	title := it.Title
	if title == "" {
		title = it.ID
	}
	if i == m.cursor && m.grabbed >= 0 {
		title = formatter.StyleCursor.Render("≡ " + title)
	}
	return fmt.Sprintf("%s%2d  %-28s %s  %s → %s  %s",
		marker, i, title,
		formatter.AssignmentBadge(it.AssignmentType),
		formatter.DateCell(it.StartDate),
		formatter.DateCell(it.EndDate),
		formatter.Workdays(it.DurationWorkdays))
}

func newBoardCmd(app *App) *cobra.Command {
	var f chainFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Reorder a chain interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return domain.NewValidationError("board", "needs an interactive terminal")
			}
			m := newBoardModel(cmd.Context(), app.Schedule, f.ref(cmd, app))
			return app.runBoard(m)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *App) runBoard(m *boardModel) error {
	if a.RunBoard != nil {
		return a.RunBoard(m)
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	return err
}
