package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/shelfdesk/shelfdesk/internal/session"
	"github.com/shelfdesk/shelfdesk/internal/tui/styles"
)

// loginDoneMsg carries the result of a login attempt.
type loginDoneMsg struct {
	sess domain.Session
	err  error
}

// loginModel is the login form: username and password inputs.
type loginModel struct {
	inputs  []textinput.Model
	focused int
	busy    bool
	err     error
}

func newLoginModel() loginModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	username.CharLimit = 64

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 64

	return loginModel{inputs: []textinput.Model{username, password}}
}

func (m loginModel) update(msg tea.Msg, sess *session.Manager) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focused = (m.focused + 1) % len(m.inputs)
			for i := range m.inputs {
				if i == m.focused {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			creds := domain.Credentials{
				Username: m.inputs[0].Value(),
				Password: m.inputs[1].Value(),
			}
			m.busy = true
			m.err = nil
			return m, func() tea.Msg {
				s, err := sess.Login(context.Background(), creds)
				return loginDoneMsg{sess: s, err: err}
			}
		}

	case loginDoneMsg:
		m.busy = false
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m loginModel) view() string {
	title := styles.TitleStyle.Render("Shelfdesk")
	subtitle := styles.SubtitleStyle.Render("sign in to the catalog")

	form := m.inputs[0].View() + "\n" + m.inputs[1].View()

	status := styles.DimStyle.Render("enter to sign in · esc to quit")
	if m.busy {
		status = styles.DimStyle.Render("signing in...")
	}
	if m.err != nil {
		status = styles.ErrorStyle.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title, subtitle, "",
		styles.PaneBorder.Render(form), "",
		status,
	)
}
