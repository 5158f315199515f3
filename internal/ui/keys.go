package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(stopping bool) string {
	if stopping {
		return "q abort without saving"
	}
	return "q stop and save  q again abort"
}
