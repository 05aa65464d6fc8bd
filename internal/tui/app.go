// Package tui is the terminal admin client: thin glue over the catalog and
// session core, the way a browser front end would consume it.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shelfdesk/shelfdesk/internal/catalog"
	"github.com/shelfdesk/shelfdesk/internal/session"
	"github.com/shelfdesk/shelfdesk/internal/tui/styles"
)

// Entity tabs, in display order.
const (
	tabBooks = iota
	tabAuthors
	tabCategories
	tabPublishers
	tabReviews
	tabCount
)

var tabNames = [tabCount]string{"Books", "Authors", "Categories", "Publishers", "Reviews"}

type view int

const (
	viewLogin view = iota
	viewBrowse
)

// Messages
type (
	rowsMsg struct {
		tab  int
		rows []row
	}
	opErrMsg struct {
		tab int
		err error
	}
	deletedMsg struct {
		tab int
		id  int
	}
	modeToggledMsg struct{ local bool }
	tickMsg        struct{}
)

// Model is the root bubbletea model.
type Model struct {
	catalog *catalog.Catalog
	session *session.Manager
	logger  *slog.Logger

	view   view
	login  loginModel
	lists  [tabCount]entityList
	active int

	filter    textinput.Model
	filtering bool

	status string
	err    error

	width  int
	height int
	frame  int
}

// NewModel creates the root model. A persisted session skips the login view.
func NewModel(cat *catalog.Catalog, sess *session.Manager, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.CharLimit = 64

	m := Model{
		catalog: cat,
		session: sess,
		logger:  logger,
		login:   newLoginModel(),
		filter:  filter,
	}
	if sess.IsAuthenticated() {
		m.view = viewBrowse
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tick()}
	if m.view == viewBrowse {
		cmds = append(cmds, m.loadAll()...)
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// loadTab fetches one entity list from the active backend.
func (m *Model) loadTab(tab int) tea.Cmd {
	m.lists[tab].loading = true
	cat := m.catalog
	return func() tea.Msg {
		ctx := context.Background()
		switch tab {
		case tabBooks:
			books, err := cat.Books.GetAll(ctx)
			if err != nil {
				return opErrMsg{tab: tab, err: err}
			}
			rows := make([]row, len(books))
			for i, b := range books {
				rows[i] = row{id: b.ID, title: b.Title, detail: b.AuthorName + " · " + b.ISBN}
			}
			return rowsMsg{tab: tab, rows: rows}
		case tabAuthors:
			authors, err := cat.Authors.GetAll(ctx)
			if err != nil {
				return opErrMsg{tab: tab, err: err}
			}
			rows := make([]row, len(authors))
			for i, a := range authors {
				rows[i] = row{id: a.ID, title: a.Name, detail: a.BirthDate}
			}
			return rowsMsg{tab: tab, rows: rows}
		case tabCategories:
			cats, err := cat.Categories.GetAll(ctx)
			if err != nil {
				return opErrMsg{tab: tab, err: err}
			}
			rows := make([]row, len(cats))
			for i, c := range cats {
				rows[i] = row{id: c.ID, title: c.Name, detail: c.Description}
			}
			return rowsMsg{tab: tab, rows: rows}
		case tabPublishers:
			pubs, err := cat.Publishers.GetAll(ctx)
			if err != nil {
				return opErrMsg{tab: tab, err: err}
			}
			rows := make([]row, len(pubs))
			for i, p := range pubs {
				rows[i] = row{id: p.ID, title: p.Name, detail: p.Location}
			}
			return rowsMsg{tab: tab, rows: rows}
		default:
			reviews, err := cat.Reviews.GetAll(ctx)
			if err != nil {
				return opErrMsg{tab: tab, err: err}
			}
			rows := make([]row, len(reviews))
			for i, r := range reviews {
				rows[i] = row{id: r.ID, title: r.DisplayTitle(), detail: r.ReviewerName}
			}
			return rowsMsg{tab: tab, rows: rows}
		}
	}
}

// loadAll reloads every tab, used at startup and after a mode switch so all
// in-memory state is rebuilt under the selected backend.
func (m *Model) loadAll() []tea.Cmd {
	cmds := make([]tea.Cmd, 0, tabCount)
	for tab := 0; tab < tabCount; tab++ {
		cmds = append(cmds, m.loadTab(tab))
	}
	return cmds
}

func (m *Model) deleteSelected() tea.Cmd {
	sel, ok := m.lists[m.active].selected()
	if !ok {
		return nil
	}
	tab := m.active
	cat := m.catalog
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch tab {
		case tabBooks:
			_, err = cat.Books.Delete(ctx, sel.id)
		case tabAuthors:
			_, err = cat.Authors.Delete(ctx, sel.id)
		case tabCategories:
			_, err = cat.Categories.Delete(ctx, sel.id)
		case tabPublishers:
			_, err = cat.Publishers.Delete(ctx, sel.id)
		default:
			_, err = cat.Reviews.Delete(ctx, sel.id)
		}
		if err != nil {
			return opErrMsg{tab: tab, err: err}
		}
		return deletedMsg{tab: tab, id: sel.id}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.frame++
		return m, tick()

	case rowsMsg:
		m.lists[msg.tab].setRows(msg.rows)
		return m, nil

	case opErrMsg:
		m.lists[msg.tab].loading = false
		m.err = msg.err
		return m, nil

	case deletedMsg:
		m.status = fmt.Sprintf("deleted %s #%d", tabNames[msg.tab], msg.id)
		m.err = nil
		return m, m.loadTab(msg.tab)

	case modeToggledMsg:
		m.status = "backend: " + m.backendName()
		m.err = nil
		return m, tea.Batch(m.loadAll()...)

	case loginDoneMsg:
		var cmd tea.Cmd
		m.login, cmd = m.login.update(msg, m.session)
		if msg.err == nil {
			m.view = viewBrowse
			m.status = "signed in as " + msg.sess.User.Username
			return m, tea.Batch(append(m.loadAll(), cmd)...)
		}
		return m, cmd
	}

	if m.view == viewLogin {
		return m.updateLogin(msg)
	}
	return m.updateBrowse(msg)
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg, m.session)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		switch key.String() {
		case "esc":
			m.filtering = false
			m.filter.SetValue("")
			m.lists[m.active].applyFilter("")
			return m, nil
		case "enter":
			m.filtering = false
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.lists[m.active].applyFilter(m.filter.Value())
			return m, cmd
		}
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab", "right", "l":
		m.leaveTab()
		m.active = (m.active + 1) % tabCount
		return m, nil

	case "shift+tab", "left", "h":
		m.leaveTab()
		m.active = (m.active + tabCount - 1) % tabCount
		return m, nil

	case "up", "k":
		m.lists[m.active].moveCursor(-1, m.pageSize())
		return m, nil

	case "down", "j":
		m.lists[m.active].moveCursor(1, m.pageSize())
		return m, nil

	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case "r":
		return m, m.loadTab(m.active)

	case "d":
		return m, m.deleteSelected()

	case "m":
		// Switch backends for everything at once and rebuild all views.
		mode := m.catalog.Mode
		return m, func() tea.Msg {
			if err := mode.Toggle(); err != nil {
				return opErrMsg{tab: 0, err: err}
			}
			return modeToggledMsg{local: mode.UseLocal()}
		}

	case "L":
		sess := m.session
		m.view = viewLogin
		m.login = newLoginModel()
		return m, func() tea.Msg {
			sess.Logout(context.Background())
			return nil
		}
	}

	return m, nil
}

// leaveTab drops the filter from the tab being left so it shows every row
// again on return.
func (m *Model) leaveTab() {
	m.filter.SetValue("")
	m.lists[m.active].applyFilter("")
}

func (m Model) pageSize() int {
	size := m.height - 8
	if size < 3 {
		size = 3
	}
	return size
}

func (m Model) backendName() string {
	if m.catalog.Mode.UseLocal() {
		return "local store"
	}
	return "remote api"
}

func (m Model) View() string {
	if m.view == viewLogin {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.login.view())
	}

	// Tab bar
	tabs := make([]string, tabCount)
	for i, name := range tabNames {
		count := len(m.lists[i].rows)
		label := name + " " + styles.DimStyle.Render(strconv.Itoa(count))
		if i == m.active {
			tabs[i] = styles.ActiveTabStyle.Render(label)
		} else {
			tabs[i] = styles.TabStyle.Render(label)
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	// Active list
	body := m.lists[m.active].render(m.width-4, m.pageSize(), m.frame)
	if m.filtering {
		body = m.filter.View() + "\n" + body
	}

	// Status bar
	user := "anonymous"
	if u, ok := m.session.CurrentUser(); ok {
		user = u.Username
	}
	left := fmt.Sprintf("%s · %s", user, m.backendName())
	right := "tab switch · / filter · d delete · m mode · L logout · q quit"
	if m.err != nil {
		right = styles.ErrorStyle.Render(m.err.Error())
	} else if m.status != "" {
		right = m.status
	}
	statusBar := styles.StatusBarStyle.Render(left + "  " + styles.DimStyle.Render(right))

	return lipgloss.JoinVertical(lipgloss.Left,
		tabBar,
		styles.PaneBorder.Width(max(m.width-2, 20)).Render(body),
		statusBar,
	)
}
