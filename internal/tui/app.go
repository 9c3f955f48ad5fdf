// Package tui is a terminal chat client for the gateway, talking over the
// same websocket the web chat uses.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type replyMsg wsMessage

type statusMsg gatewayStatus

type errMsg struct{ err error }

type tickMsg time.Time

type App struct {
	width, height int
	client        *Client
	chat          *Chat
	status        *Status
	input         *Input
	keys          KeyMap
}

func NewApp(client *Client) *App {
	return &App{
		client: client,
		chat:   NewChat(),
		status: NewStatus(),
		input:  NewInput(),
		keys:   DefaultKeyMap,
	}
}

// Run connects and starts the bubbletea program.
func Run(baseURL, userID string) error {
	client := NewClient(baseURL, userID)
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	_, err := tea.NewProgram(NewApp(client), tea.WithAltScreen()).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.input.Init(), a.listen(), a.pollStatus(), tick())
}

func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		msg, err := a.client.Receive()
		if err != nil {
			return errMsg{err}
		}
		return replyMsg(msg)
	}
}

func (a *App) pollStatus() tea.Cmd {
	return func() tea.Msg {
		status, err := a.client.FetchStatus()
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(status)
	}
}

func tick() tea.Cmd {
	return tea.Tick(10*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case msg.String() == "enter":
			if text := a.input.Value(); text != "" {
				a.chat.AddMessage("ты", text)
				a.input.Reset()
				if err := a.client.Send(text); err != nil {
					a.chat.AddMessage("система", "отправка не удалась: "+err.Error())
				}
			}
		}
	case replyMsg:
		a.chat.AddReply(msg.Content, msg.Emotion)
		cmds = append(cmds, a.listen())
	case statusMsg:
		a.status.Set(gatewayStatus(msg))
	case tickMsg:
		cmds = append(cmds, a.pollStatus(), tick())
	case errMsg:
		a.chat.AddMessage("система", msg.err.Error())
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	cmds = append(cmds, cmd)
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Подключаюсь..."
	}

	statusBar := a.statusBarView()
	inputBar := a.input.View()

	contentHeight := a.height - lipgloss.Height(statusBar) - lipgloss.Height(inputBar)

	leftWidth := int(float64(a.width) * 0.7)
	rightWidth := a.width - leftWidth

	chatView := a.chat.View(leftWidth, contentHeight)
	rightView := a.status.View(rightWidth, contentHeight)

	layout := lipgloss.JoinHorizontal(lipgloss.Top, chatView, rightView)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, layout, inputBar)
}

func (a *App) statusBarView() string {
	return StatusBarStyle.Width(a.width).Render(
		fmt.Sprintf("EVA Gateway v1.0.0 | %s", a.status.Overall()))
}
