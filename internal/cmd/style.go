package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/taskclaim/taskclaim/internal/registry"
	"github.com/taskclaim/taskclaim/internal/task"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	activeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	suspendedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
)

// renderSessionStatus colors a session status for terminal output.
func renderSessionStatus(s registry.Status) string {
	switch s {
	case registry.StatusActive:
		return activeStyle.Render(string(s))
	case registry.StatusSuspended:
		return suspendedStyle.Render(string(s))
	default:
		return string(s)
	}
}

// renderTaskStatus colors a task status for terminal output.
func renderTaskStatus(s task.Status) string {
	switch s {
	case task.StatusActive:
		return activeStyle.Render(string(s))
	case task.StatusBlocked:
		return suspendedStyle.Render(string(s))
	case task.StatusDone:
		return doneStyle.Render(string(s))
	default:
		return string(s)
	}
}
