package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hr-console/internal/model"
	"github.com/nhle/hr-console/internal/theme"
)

// Layout manages the terminal frame dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar with a title on the left and the
// session summary on the right.
func (l Layout) RenderHeader(title string, sessionInfo string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	infoRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(sessionInfo)

	return l.fill(theme.HeaderStyle, titleRendered, infoRendered)
}

// RenderStatusBar renders the bottom bar. An active toast replaces the
// key hints.
func (l Layout) RenderStatusBar(hints string, toast *model.NotificationEvent) string {
	if toast != nil {
		style := theme.ToastStyle(toast.Kind)
		return l.fill(style, style.Render(toast.Message))
	}
	return l.fill(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints))
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// fill joins parts horizontally and pads the gap with style's background.
func (l Layout) fill(style lipgloss.Style, parts ...string) string {
	used := 0
	for _, p := range parts {
		used += lipgloss.Width(p)
	}
	gap := l.Width - used
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	if len(parts) <= 1 {
		return lipgloss.JoinHorizontal(lipgloss.Top, append(parts, filler)...)
	}
	row := append([]string{parts[0], filler}, parts[1:]...)
	return lipgloss.JoinHorizontal(lipgloss.Top, row...)
}
