package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen = lipgloss.Color("35")
	colorCyan  = lipgloss.Color("36")
	colorDim   = lipgloss.Color("240")
)

var (
	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
)
