package ui

import "github.com/charmbracelet/lipgloss"

const (
	accentColor     = "#538DD5"
	softAccentColor = "#8DB4E2"
	mutedColor      = "#6B7280"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(accentColor)).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(mutedColor)).
			MarginBottom(1)

	StepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	CheckedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(softAccentColor)).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB84D"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2ECC71")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(softAccentColor))

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(mutedColor)).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(accentColor)).
			Padding(1, 2)
)
