package console

import "github.com/charmbracelet/lipgloss"

// Theme defines colors and markers for build output.
type Theme struct {
	Name    string
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Spinner lipgloss.Style
	Icons   Icons
}

// Icons are the per-status markers used in the summary table.
type Icons struct {
	Pass string
	Fail string
	Skip string
}

// DefaultTheme returns the color theme used on terminals.
func DefaultTheme() Theme {
	return Theme{
		Name:    "default",
		Header:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true), // blue
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),            // green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),           // orange
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),           // red
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("242")),           // gray
		Bold:    lipgloss.NewStyle().Bold(true),
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Icons:   Icons{Pass: "✓", Fail: "✗", Skip: "○"},
	}
}

// PlainTheme renders no escape sequences at all.
func PlainTheme() Theme {
	return Theme{
		Name:    "plain",
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
		Bold:    lipgloss.NewStyle(),
		Spinner: lipgloss.NewStyle(),
		Icons:   Icons{Pass: "+", Fail: "x", Skip: "-"},
	}
}
