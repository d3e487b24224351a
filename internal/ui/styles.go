package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	quitTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0, 1, 0)
)
