package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/authmodule/authmodule-api/internal/models"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	focusEmail = iota
	focusPassword
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	buttonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// stateMsg carries a snapshot published by the controller
type stateMsg login.State

// navigationMsg carries a one-shot navigation effect
type navigationMsg login.Navigation

// closedMsg reports that the controller stopped publishing
type closedMsg struct{}

// Model renders the login screen from controller snapshots and forwards
// key presses to the controller handlers.
type Model struct {
	ctrl    *login.Controller
	states  <-chan login.State
	effects <-chan login.Navigation

	state    login.State
	email    textinput.Model
	password textinput.Model
	spinner  spinner.Model
	focus    int

	session           *models.Session
	registerRequested bool
}

// NewModel creates a Model bound to ctrl. The model subscribes to ctrl's
// snapshots; the subscription ends when ctrl is closed.
func NewModel(ctrl *login.Controller) Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.CharLimit = 255
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	states, _ := ctrl.Subscribe()

	return Model{
		ctrl:     ctrl,
		states:   states,
		effects:  ctrl.Effects(),
		state:    ctrl.State(),
		email:    email,
		password: password,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		focus:    focusEmail,
	}
}

// Session returns the session of a successful login, or nil
func (m Model) Session() *models.Session {
	return m.session
}

// RegisterRequested reports whether the user asked to create an account
func (m Model) RegisterRequested() bool {
	return m.registerRequested
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForState(), m.waitForNavigation())
}

func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.states
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

func (m Model) waitForNavigation() tea.Cmd {
	return func() tea.Msg {
		n, ok := <-m.effects
		if !ok {
			return closedMsg{}
		}
		return navigationMsg(n)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = login.State(msg)
		if m.state.IsPasswordShown() {
			m.password.EchoMode = textinput.EchoNormal
		} else {
			m.password.EchoMode = textinput.EchoPassword
		}
		return m, m.waitForState()

	case navigationMsg:
		switch msg.Destination {
		case login.DestinationHome:
			m.session = msg.Session
			return m, tea.Quit
		case login.DestinationRegister:
			m.registerRequested = true
			return m, tea.Quit
		}
		return m, m.waitForNavigation()

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			return m, m.toggleFocus()
		case "ctrl+t":
			m.ctrl.OnTogglePasswordVisualTransformation()
			return m, nil
		case "ctrl+r":
			m.ctrl.OnNavigateToRegister()
			return m, nil
		case "enter":
			if m.focus == focusEmail && m.password.Value() == "" {
				return m, m.toggleFocus()
			}
			m.ctrl.OnLogInClick()
			return m, nil
		}
		return m.updateInputs(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusEmail {
		m.focus = focusPassword
		m.email.Blur()
		return m.password.Focus()
	}
	m.focus = focusEmail
	m.password.Blur()
	return m.email.Focus()
}

// updateInputs routes msg to the text inputs and reports edits to the controller
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var emailCmd, passwordCmd tea.Cmd

	before := m.email.Value()
	m.email, emailCmd = m.email.Update(msg)
	if v := m.email.Value(); v != before {
		m.ctrl.OnEmailInputChange(v)
	}

	before = m.password.Value()
	m.password, passwordCmd = m.password.Update(msg)
	if v := m.password.Value(); v != before {
		m.ctrl.OnPasswordInputChange(v)
	}

	return m, tea.Batch(emailCmd, passwordCmd)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Log in"))
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	if hint, ok := m.state.ErrorMessage().Get(); ok {
		b.WriteString(hintStyle.Render(hint))
		b.WriteString("\n")
	}

	switch {
	case m.state.IsLoading():
		fmt.Fprintf(&b, "%s Signing in...\n", m.spinner.View())
	case m.state.CanSubmit():
		b.WriteString(buttonStyle.Render("[ Log in ]"))
		b.WriteString("\n")
	default:
		b.WriteString(disabledStyle.Render("[ Log in ]"))
		b.WriteString("\n")
	}

	if msg, ok := m.state.LoginErrorMessage().Get(); ok {
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("tab: switch field • ctrl+t: show/hide password • enter: log in • ctrl+r: register • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

// Result is what the login screen ended with
type Result struct {
	Session           *models.Session
	RegisterRequested bool
}

// Run shows the login screen until the user logs in, asks to register or quits.
// ctrl is closed before Run returns.
func Run(ctx context.Context, ctrl *login.Controller, opts ...tea.ProgramOption) (Result, error) {
	defer ctrl.Close()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(NewModel(ctrl), opts...).Run()
	if err != nil {
		return Result{}, fmt.Errorf("login screen: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return Result{}, fmt.Errorf("login screen: unexpected model %T", final)
	}
	return Result{Session: m.Session(), RegisterRequested: m.RegisterRequested()}, nil
}
