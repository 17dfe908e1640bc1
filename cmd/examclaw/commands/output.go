package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jholhewres/examclaw/pkg/examclaw/session"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

// printAnswer writes the answer in the requested rendering.
func printAnswer(w io.Writer, ans *session.Answer, output string) {
	switch output {
	case "html":
		fmt.Fprintln(w, ans.Rendered.HTML)
	case "markdown":
		fmt.Fprintln(w, ans.Raw)
	default:
		fmt.Fprintln(w, ans.Rendered.Plain)
	}
}

// printTicket shows the draft ticket, marking empty fields.
func printTicket(w io.Writer, t ticket.Ticket) {
	fmt.Fprintln(w, labelStyle.Render("Билет:"), orEmpty(t.Number))
	for i, q := range t.Questions {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("Вопрос %d:", i+1)), orEmpty(q))
	}
}

func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return dimStyle.Render("(пусто)")
	}
	return s
}
