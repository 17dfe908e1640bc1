package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/examclaw/pkg/examclaw/export"
	"github.com/jholhewres/examclaw/pkg/examclaw/session"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

func newGenerateCmd() *cobra.Command {
	var (
		number      string
		questions   []string
		imagePath   string
		interactive bool
		exports     []string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Answer the three questions of a ticket",
		Long: `Answer the three questions of a ticket.

Questions come from flags, from a photo (--image, read before the flags are
applied) or from an interactive form (--interactive). The answer is printed
to stdout; --export delivers it as well.

Examples:
  examclaw generate -t 12 -q "Первый" -q "Второй" -q "Третий"
  examclaw generate --image bilet.jpg --export docx --export clipboard
  examclaw generate -i bilet.jpg -I`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(questions) > ticket.QuestionCount {
				return fmt.Errorf("at most %d questions, got %d", ticket.QuestionCount, len(questions))
			}
			formats, err := parseFormats(exports)
			if err != nil {
				return err
			}
			if err := checkOutput(output); err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if imagePath != "" {
				if err := a.loadImage(imagePath); err != nil {
					return friendly(err)
				}
				ext, err := a.session.Extract(ctx)
				if err != nil {
					return friendly(err)
				}
				printSuccess(fmt.Sprintf("Вопросы извлечены (%d из %d полей)", ext.Found(), ticket.QuestionCount+1))
			}

			a.session.SetTicket(applyFlags(a.session.Ticket(), number, questions))

			if interactive {
				t, err := runTicketForm(a.session.Ticket())
				if err != nil {
					return err
				}
				a.session.SetTicket(t)
			}

			ans, err := a.session.Generate(ctx)
			if err != nil {
				return friendly(err)
			}
			printSuccess(fmt.Sprintf("Ответы сгенерированы (%s)! ✨", ans.Model))
			printAnswer(os.Stdout, ans, output)

			return deliver(ctx, a.session, formats)
		},
	}

	cmd.Flags().StringVarP(&number, "ticket", "t", "", "ticket number")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question text (repeat up to 3 times, in order)")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "photo of the ticket to read questions from")
	cmd.Flags().BoolVarP(&interactive, "interactive", "I", false, "edit the ticket in a form before generating")
	cmd.Flags().StringSliceVarP(&exports, "export", "e", nil, "export formats: clipboard, txt, docx, html")
	cmd.Flags().StringVarP(&output, "output", "o", "plain", "stdout rendering: plain, html or markdown")

	_ = cmd.RegisterFlagCompletionFunc("export", cobra.FixedCompletions(
		[]string{"clipboard", "txt", "docx", "html"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		[]string{"plain", "html", "markdown"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// applyFlags overlays non-empty flag values on t.
func applyFlags(t ticket.Ticket, number string, questions []string) ticket.Ticket {
	if strings.TrimSpace(number) != "" {
		t.Number = number
	}
	for i, q := range questions {
		if i < ticket.QuestionCount && strings.TrimSpace(q) != "" {
			t.Questions[i] = q
		}
	}
	return t.Normalize()
}

func parseFormats(names []string) ([]export.Format, error) {
	formats := make([]export.Format, 0, len(names))
	for _, n := range names {
		f, err := export.ParseFormat(n)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func checkOutput(output string) error {
	switch output {
	case "plain", "html", "markdown":
		return nil
	}
	return fmt.Errorf("unknown output %q (want plain, html or markdown)", output)
}

// deliver runs one export command per format through the session loop.
func deliver(ctx context.Context, s *session.Session, formats []export.Format) error {
	if len(formats) == 0 {
		return nil
	}

	cmds := make(chan session.Command, len(formats))
	results := make(chan session.Outcome, len(formats))
	for _, f := range formats {
		cmds <- session.ExportCmd{Format: f}
	}
	close(cmds)

	if err := s.Run(ctx, cmds, results); err != nil {
		return err
	}
	close(results)

	failed := 0
	for out := range results {
		reportExport(out)
		if out.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d exports failed", failed, len(formats))
	}
	return nil
}

func reportExport(out session.Outcome) {
	if out.Err != nil {
		printError(out.Err)
		return
	}
	if out.Path == "" {
		printSuccess("Скопировано в буфер обмена!")
		return
	}
	printSuccess("Сохранено: " + out.Path)
}
