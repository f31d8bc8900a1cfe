package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	tabActive lipgloss.Style
	tab       lipgloss.Style
	label     lipgloss.Style
	errorText lipgloss.Style
	okText    lipgloss.Style
	muted     lipgloss.Style
	toast     lipgloss.Style
	cursor    lipgloss.Style
	panel     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		tabActive: lipgloss.NewStyle().Bold(true).Padding(0, 2).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("63")),
		tab:       lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("245")),
		label:     lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("245")),
		errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		okText:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		toast:     lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")),
		cursor:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		panel:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
	}
}
