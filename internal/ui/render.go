package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value line in a rendered panel.
type Detail struct {
	Key   string
	Value string
}

// RenderPanel renders a titled, bordered panel of key/value details.
// Used by the status and info commands.
func RenderPanel(title string, details []Detail) string {
	width := GetTerminalWidth()

	var lines []string
	lines = append(lines, TitleStyle.Render(strings.ToUpper(title)))
	for _, d := range details {
		key := KeyStyle.Render(d.Key + ":")
		value := ValueStyle.Render(d.Value)
		lines = append(lines, key+" "+value)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return BoxStyle(width).Render(content)
}

// RenderSuccess renders a one-line success confirmation.
func RenderSuccess(format string, args ...any) string {
	return SuccessStyle.Render(SuccessMarker+" ") + ValueStyle.Render(fmt.Sprintf(format, args...))
}

// RenderError renders a one-line error message.
func RenderError(err error) string {
	return ErrorStyle.Render(FailureMarker+" ") + ErrorStyle.Render(err.Error())
}

// FormatBool renders a toggle value the way the settings panels show it.
func FormatBool(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// FormatMuted renders speaker mute state.
func FormatMuted(muted bool) string {
	if muted {
		return "muted"
	}
	return "unmuted"
}
