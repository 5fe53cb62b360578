// Package tui renders the operator console in the terminal.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by the console view.
type Styles struct {
	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	SessionRow     lipgloss.Style
	SessionActive  lipgloss.Style
	UnreadBadge    lipgloss.Style
	Conversation   lipgloss.Style
	GuestMessage   lipgloss.Style
	AdminMessage   lipgloss.Style
	Timestamp      lipgloss.Style
	Compose        lipgloss.Style
	ComposeFocused lipgloss.Style
	StatusBar      lipgloss.Style
	Connected      lipgloss.Style
	Disconnected   lipgloss.Style
	Notice         lipgloss.Style
}

// DefaultStyles returns the console theme.
func DefaultStyles() Styles {
	border := lipgloss.Color("240")
	accent := lipgloss.Color("39")

	return Styles{
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		SidebarFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		SessionRow:    lipgloss.NewStyle(),
		SessionActive: lipgloss.NewStyle().Bold(true).Foreground(accent),
		UnreadBadge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Padding(0, 1),
		Conversation: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		GuestMessage: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		AdminMessage: lipgloss.NewStyle().Foreground(accent),
		Timestamp:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Compose: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border),
		ComposeFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		StatusBar:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Connected:    lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Disconnected: lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		Notice:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}
