package ticket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidExtraction is returned when the model's reply is not the JSON
// object the extraction prompt asks for.
var ErrInvalidExtraction = errors.New("extraction reply is not valid JSON")

var (
	jsonFenceRe  = regexp.MustCompile("```json\n?")
	plainFenceRe = regexp.MustCompile("```\n?")
)

// Extraction is what the model read off a ticket photo. Empty fields were
// not found.
type Extraction struct {
	Number    string
	Questions [QuestionCount]string
}

// numberOrString accepts a JSON number or string; null leaves it empty.
type numberOrString string

func (n *numberOrString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numberOrString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("ticketNumber: %w", err)
	}
	*n = numberOrString(num.String())
	return nil
}

type extractionJSON struct {
	TicketNumber numberOrString `json:"ticketNumber"`
	Question1    string         `json:"question1"`
	Question2    string         `json:"question2"`
	Question3    string         `json:"question3"`
}

// ParseExtraction decodes the model's reply, tolerating Markdown code fences
// around the JSON.
func ParseExtraction(text string) (Extraction, error) {
	text = jsonFenceRe.ReplaceAllString(text, "")
	text = plainFenceRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	var raw extractionJSON
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrInvalidExtraction, err)
	}

	return Extraction{
		Number:    clean(string(raw.TicketNumber)),
		Questions: [QuestionCount]string{clean(raw.Question1), clean(raw.Question2), clean(raw.Question3)},
	}, nil
}

// Found reports how many fields the extraction filled.
func (e Extraction) Found() int {
	n := 0
	if e.Number != "" {
		n++
	}
	for _, q := range e.Questions {
		if q != "" {
			n++
		}
	}
	return n
}

// Merge copies every non-empty extracted field onto t. Fields the model did
// not find keep what the user typed.
func Merge(t Ticket, e Extraction) Ticket {
	if e.Number != "" {
		t.Number = e.Number
	}
	for i, q := range e.Questions {
		if q != "" {
			t.Questions[i] = q
		}
	}
	return t
}
