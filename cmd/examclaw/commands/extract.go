package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract <photo>",
		Short: "Read the ticket number and questions off a photo",
		Long: `Read the ticket number and questions off a photo and print them.
Fields the model could not read are left empty.

Examples:
  examclaw extract bilet.jpg
  examclaw extract bilet.png --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := a.loadImage(args[0]); err != nil {
				return friendly(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if _, err := a.session.Extract(ctx); err != nil {
				return friendly(err)
			}
			t := a.session.Ticket()

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(map[string]string{
					"ticketNumber": t.Number,
					"question1":    t.Questions[0],
					"question2":    t.Questions[1],
					"question3":    t.Questions[2],
				})
			}

			printSuccess("Вопросы извлечены! ✨")
			printTicket(os.Stdout, t)
			if err := t.Validate(); err != nil {
				fmt.Fprintln(os.Stderr, dimStyle.Render("Не все поля распознаны: "+userMessage(err)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the fields as JSON")
	return cmd
}
