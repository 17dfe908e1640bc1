// Package ticket holds the exam ticket being answered: its number and three
// questions, input validation, and the prompts sent to the model.
package ticket

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// QuestionCount is the number of questions on every ticket.
const QuestionCount = 3

// ErrMissingInput is the sentinel for any required field left empty.
var ErrMissingInput = errors.New("missing input")

// InputError names the field that failed validation. Message is the text
// shown to the user.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingInput, e.Field)
}

func (e *InputError) Unwrap() error { return ErrMissingInput }

// Ticket is the draft the user fills in or extracts from a photo.
type Ticket struct {
	Number    string
	Questions [QuestionCount]string
}

// Normalize trims every field and converts it to NFC, so text pasted from a
// PDF and text typed on a keyboard compare equal.
func (t Ticket) Normalize() Ticket {
	t.Number = clean(t.Number)
	for i := range t.Questions {
		t.Questions[i] = clean(t.Questions[i])
	}
	return t
}

// Validate reports the first missing field, ticket number first.
func (t Ticket) Validate() error {
	t = t.Normalize()
	if t.Number == "" {
		return &InputError{Field: "ticket number", Message: "Введите номер билета"}
	}
	for i, q := range t.Questions {
		if q == "" {
			return &InputError{
				Field:   fmt.Sprintf("question %d", i+1),
				Message: "Заполните все три вопроса",
			}
		}
	}
	return nil
}

// FileStem is the ticket part of export file names; "bilet" when the
// number is empty.
func (t Ticket) FileStem() string {
	n := clean(t.Number)
	if n == "" {
		return "bilet"
	}
	return n
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
