package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	progressStyle = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("111"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// Status lines go to stderr so answers on stdout stay pipeable.

var taskLabels = map[string]string{
	ticket.TaskAnswer:  "Генерация",
	ticket.TaskExtract: "Распознавание фото",
}

// progressLine is the unstyled status text for one attempt.
func progressLine(a gemini.Attempt) string {
	label, ok := taskLabels[a.Task]
	if !ok {
		label = "Запрос"
	}
	return fmt.Sprintf("%s: %s… (%d/%d)", label, a.Model, a.Index+1, a.Total)
}

func printProgress(a gemini.Attempt) {
	fmt.Fprintln(os.Stderr, progressStyle.Render("⏳ "+progressLine(a)))
}

func printSuccess(msg string) {
	fmt.Fprintln(os.Stderr, successStyle.Render("✓ "+msg))
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ Ошибка: "+userMessage(err)))
}
