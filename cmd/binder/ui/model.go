package ui

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/binder/pkg/browse"
	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/reveal"
)

// ChangedMsg tells the model that the reveal window changed outside Update,
// e.g. after a deferred step or a reload from disk.
type ChangedMsg struct{}

// Notifier forwards controller changes to a running program. Bursts collapse
// into a single pending ChangedMsg.
type Notifier struct {
	program atomic.Pointer[tea.Program]
	pending atomic.Bool
}

// Attach sets the program that receives notifications.
func (n *Notifier) Attach(p *tea.Program) {
	n.program.Store(p)
}

// Notify is meant for reveal.WithOnChange. It never blocks: the controller
// may call it from inside Update.
func (n *Notifier) Notify() {
	p := n.program.Load()
	if p == nil || !n.pending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		n.pending.Store(false)
		p.Send(ChangedMsg{})
	}()
}

const minRows = 3

// Model is the card browser.
type Model struct {
	session  *browse.Session
	ctrl     *reveal.Controller[catalog.Card]
	sentinel *reveal.Sentinel
	keys     keyMap
	styles   Styles
	search   textinput.Model

	snap      reveal.Snapshot[catalog.Card]
	cursor    int
	offset    int
	width     int
	height    int
	searching bool
}

// New creates a browser over session.
func New(session *browse.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "name, number, set or artist"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.SetValue(session.Query().Search)

	ctrl := session.Controller()
	m := Model{
		session:  session,
		ctrl:     ctrl,
		sentinel: ctrl.Sentinel(),
		keys:     defaultKeys(),
		styles:   DefaultStyles(),
		search:   ti,
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.refresh()
		return m, nil

	case ChangedMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.setSearch(m.search.Value())
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.session.Query().Search)
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.PgDown):
		m.move(m.rows())
	case key.Matches(msg, m.keys.PgUp):
		m.move(-m.rows())
	case key.Matches(msg, m.keys.Top):
		m.move(-m.cursor)
	case key.Matches(msg, m.keys.Bottom):
		m.move(m.snap.VisibleCount)
	case key.Matches(msg, m.keys.More):
		m.ctrl.RequestMore()
		m.refresh()
	case key.Matches(msg, m.keys.Sort):
		q := m.session.Query()
		q.Sort = sortOrDefault(q.Sort).Next()
		m.setQuery(q)
	case key.Matches(msg, m.keys.Order):
		q := m.session.Query()
		q.Desc = !q.Desc
		m.setQuery(q)
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.search.SetValue("")
		m.setSearch("")
	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
		m.cursor, m.offset = 0, 0
		m.refresh()
	}
	return m, nil
}

func sortOrDefault(k catalog.SortKey) catalog.SortKey {
	if k == "" {
		return catalog.SortName
	}
	return k
}

func (m *Model) setSearch(s string) {
	q := m.session.Query()
	if q.Search == s {
		return
	}
	q.Search = s
	m.setQuery(q)
}

// setQuery replaces the collection, which also resets the window.
func (m *Model) setQuery(q catalog.Query) {
	m.session.SetQuery(q)
	m.cursor, m.offset = 0, 0
	m.refresh()
}

// move shifts the cursor and reports the distance to the end of the window
// as the proximity signal.
func (m *Model) move(delta int) {
	m.cursor += delta
	m.refresh()
	m.report()
}

func (m *Model) report() {
	if m.snap.VisibleCount == 0 {
		return
	}
	distance := m.snap.VisibleCount - 1 - m.cursor
	if m.sentinel.Report(distance) {
		m.refresh()
	}
}

// refresh takes a new snapshot and keeps the cursor inside it and on screen.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()

	if m.cursor >= m.snap.VisibleCount {
		m.cursor = m.snap.VisibleCount - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	rows := m.rows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// rows is the number of card lines that fit between header and footer.
func (m Model) rows() int {
	return max(m.height-5, minRows)
}

func (m Model) View() string {
	var b strings.Builder

	title := "binder · " + m.session.Query().String()
	b.WriteString(m.styles.Header.Render(truncate(title, m.width)))
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	end := min(m.offset+m.rows(), m.snap.VisibleCount)
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderCard(i, m.snap.Visible[i]))
		b.WriteString("\n")
	}
	if m.snap.VisibleCount == 0 {
		b.WriteString(m.styles.Dim.Render("no cards match"))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Footer.Width(max(m.width, 1)).Render(m.footer()))
	return b.String()
}

func (m Model) renderCard(i int, c catalog.Card) string {
	marker := "  "
	if i == m.cursor {
		marker = m.styles.Cursor.Render("> ")
	}

	types := make([]string, len(c.Types))
	for j, t := range c.Types {
		types[j] = typeBadge(t)
	}

	hp := ""
	if c.HP > 0 {
		hp = fmt.Sprintf("%d HP", c.HP)
	}

	line := fmt.Sprintf("%s%-6s %s %s %s %s",
		marker,
		truncate(c.Number, 6),
		rarityStyle(c.Rarity).Render(truncate(c.Title(), 28)),
		strings.Join(types, "/"),
		m.styles.Dim.Render(hp),
		m.styles.Dim.Render(c.Set),
	)
	if i == m.cursor {
		return m.styles.Selected.Render(line)
	}
	return line
}

func (m Model) footer() string {
	parts := []string{fmt.Sprintf("%d/%d", m.snap.VisibleCount, m.snap.Total)}
	switch {
	case m.snap.Loading:
		parts = append(parts, m.styles.Loading.Render("loading…"))
	case m.snap.HasMore:
		parts = append(parts, "more below")
	default:
		parts = append(parts, "end")
	}
	if m.snap.Err != nil {
		parts = append(parts, m.styles.Error.Render("error: "+m.snap.Err.Error()))
	}

	help := make([]string, 0, len(m.keys.help()))
	for _, k := range m.keys.help() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ") + "\n" + strings.Join(help, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
