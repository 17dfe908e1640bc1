package commands

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

func notBlank(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

// runTicketForm lets the user fill or correct the ticket fields. Fields
// already set are shown as the starting values.
func runTicketForm(t ticket.Ticket) (ticket.Ticket, error) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Номер билета").
				Value(&t.Number).
				Validate(notBlank("Введите номер билета")),
			huh.NewText().
				Title("Вопрос 1").
				Value(&t.Questions[0]).
				Validate(notBlank("Введите вопрос 1")),
			huh.NewText().
				Title("Вопрос 2").
				Value(&t.Questions[1]).
				Validate(notBlank("Введите вопрос 2")),
			huh.NewText().
				Title("Вопрос 3").
				Value(&t.Questions[2]).
				Validate(notBlank("Введите вопрос 3")),
		),
	)
	if err := form.Run(); err != nil {
		return t, err
	}
	return t.Normalize(), nil
}

// promptAPIKey asks for the key without echoing it.
func promptAPIKey() (string, error) {
	var key string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API ключ Gemini").
				Description("Получить ключ: https://aistudio.google.com/apikey").
				EchoMode(huh.EchoModePassword).
				Value(&key).
				Validate(notBlank("Ключ не может быть пустым")),
		),
	).Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(key), nil
}

// confirm asks a yes/no question.
func confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Да").
		Negative("Нет").
		Value(&ok).
		Run()
	return ok, err
}
