package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps detail and form content.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// SelectedItemStyle highlights the focused menu entry.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// ItemStyle is the base style for menu entries.
var ItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorTextStyle renders inline error text.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// LabelStyle renders field labels in detail views.
var LabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray).
	Width(16)

// ToastStyle returns the status bar style for a notification kind.
func ToastStyle(kind model.NotificationKind) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch kind {
	case model.NotificationSuccess:
		return base.Foreground(ColorWhite).Background(ColorGreen)
	case model.NotificationError:
		return base.Foreground(ColorWhite).Background(ColorRed)
	default:
		return base.Foreground(ColorWhite).Background(ColorSubtle)
	}
}

// RecordStatusStyle colors server-side statuses (leave approval, payslip
// state, employment status).
func RecordStatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch status {
	case "approved", "paid", "active":
		return base.Foreground(ColorGreen)
	case "pending", "draft":
		return base.Foreground(ColorYellow)
	case "rejected", "cancelled", "inactive":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
