package tui

import (
	"fmt"
	"sort"
	"strings"
)

type Status struct {
	current gatewayStatus
	loaded  bool
}

func NewStatus() *Status {
	return &Status{}
}

func (s *Status) Set(status gatewayStatus) {
	s.current = status
	s.loaded = true
}

func (s *Status) Overall() string {
	if !s.loaded {
		return "нет связи"
	}
	return s.current.Status
}

func (s *Status) View(width, height int) string {
	if !s.loaded {
		return StatusPanelStyle.Width(width).Height(height).Render("Статус недоступен")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Статус: %s\nАптайм: %s\n", s.current.Status, s.current.Uptime)

	if len(s.current.Services) > 0 {
		sb.WriteString("\nСервисы:\n")
		names := make([]string, 0, len(s.current.Services))
		for name := range s.current.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			mark := "✓"
			if s.current.Services[name].Status == "down" {
				mark = "✗"
			}
			fmt.Fprintf(&sb, "  %s %s\n", mark, name)
		}
	}

	if len(s.current.Channels) > 0 {
		sb.WriteString("\nКаналы:\n")
		names := make([]string, 0, len(s.current.Channels))
		for name := range s.current.Channels {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := "выкл"
			if s.current.Channels[name] {
				state = "вкл"
			}
			fmt.Fprintf(&sb, "  %s: %s\n", name, state)
		}
	}

	return StatusPanelStyle.Width(width).Height(height).Render(sb.String())
}
