package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Message is one chat line. Assistant replies carry the emotion tag from the
// websocket payload; user and system lines leave it empty.
type Message struct {
	Role    string
	Content string
	Emotion string
}

func (m Message) label() string {
	if m.Emotion == "" {
		return m.Role
	}
	return m.Role + " · " + m.Emotion
}

type Chat struct {
	viewport viewport.Model
	messages []Message
}

func NewChat() *Chat {
	vp := viewport.New(0, 0)
	vp.SetContent("Привет! Я ЕВА. Напиши мне что-нибудь 👋\n")
	return &Chat{viewport: vp}
}

func (c *Chat) Init() tea.Cmd {
	return nil
}

func (c *Chat) Update(msg tea.Msg) (*Chat, tea.Cmd) {
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return c, cmd
}

func (c *Chat) View(width, height int) string {
	c.viewport.Width = width - 2 // padding
	c.viewport.Height = height - 2
	return ChatPanelStyle.Width(width).Height(height).Render(c.viewport.View())
}

// AddMessage appends a user or system line.
func (c *Chat) AddMessage(role, content string) {
	c.append(Message{Role: role, Content: content})
}

// AddReply appends an assistant line with its emotion tag.
func (c *Chat) AddReply(content, emotion string) {
	c.append(Message{Role: "ева", Content: content, Emotion: emotion})
}

func (c *Chat) append(msg Message) {
	c.messages = append(c.messages, msg)

	var sb strings.Builder
	for _, m := range c.messages {
		style := AssistantMessageStyle
		if m.Role == "ты" {
			style = UserMessageStyle
		}
		sb.WriteString(style.Render(m.label()+":") + " " + m.Content)
		sb.WriteString("\n")
	}
	c.viewport.SetContent(sb.String())
	c.viewport.GotoBottom()
}
