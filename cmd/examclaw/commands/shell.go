package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/jholhewres/examclaw/pkg/examclaw/export"
	"github.com/jholhewres/examclaw/pkg/examclaw/session"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

const shellHelp = `Команды:
  ticket <номер>        номер билета
  q1|q2|q3 <текст>      вопросы
  form                  заполнить билет в форме
  photo <путь>          загрузить фото билета
  extract               извлечь вопросы с фото
  generate              сгенерировать ответы
  show                  показать билет
  answer [plain|html|markdown]
  copy | txt | docx | html
  key <ключ>            ключ API на эту сессию
  state                 состояние запроса
  clear                 очистить билет и фото
  help | exit`

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "shell",
		Aliases: []string{"repl"},
		Short:   "Interactive session: enter a ticket, generate, export",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runShell(cmd.Context(), a)
		},
	}
}

func shellCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("ticket"),
		readline.PcItem("q1"),
		readline.PcItem("q2"),
		readline.PcItem("q3"),
		readline.PcItem("form"),
		readline.PcItem("photo"),
		readline.PcItem("extract"),
		readline.PcItem("generate"),
		readline.PcItem("show"),
		readline.PcItem("answer",
			readline.PcItem("plain"),
			readline.PcItem("html"),
			readline.PcItem("markdown"),
		),
		readline.PcItem("copy"),
		readline.PcItem("txt"),
		readline.PcItem("docx"),
		readline.PcItem("html"),
		readline.PcItem("key"),
		readline.PcItem("state"),
		readline.PcItem("clear"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func runShell(parent context.Context, a *app) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          titleStyle.Render("examclaw") + " › ",
		HistoryFile:     a.cfg.Shell.HistoryFile,
		AutoComplete:    shellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("starting shell: %w", err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cmds := make(chan session.Command)
	results := make(chan session.Outcome)
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- a.session.Run(ctx, cmds, results)
	}()

	sh := &shell{app: a, out: rl.Stdout(), cmds: cmds, results: results}

	fmt.Fprintln(sh.out, titleStyle.Render("Генератор ответов на экзаменационные билеты"))
	fmt.Fprintln(sh.out, dimStyle.Render("help — список команд"))
	if !a.session.HasCredential() {
		fmt.Fprintln(sh.out, dimStyle.Render("Ключ API не найден: key <ключ> или examclaw config set-key"))
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if quit := sh.exec(line); quit {
			break
		}
	}

	close(cmds)
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type shell struct {
	app     *app
	out     io.Writer
	cmds    chan<- session.Command
	results <-chan session.Outcome
}

// send hands cmd to the session loop and waits for its outcome.
func (sh *shell) send(cmd session.Command) session.Outcome {
	sh.cmds <- cmd
	return <-sh.results
}

func (sh *shell) exec(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	s := sh.app.session

	switch strings.ToLower(name) {
	case "exit", "quit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)
	case "ticket":
		t := s.Ticket()
		t.Number = arg
		s.SetTicket(t)
	case "q1", "q2", "q3":
		t := s.Ticket()
		t.Questions[name[1]-'1'] = arg
		s.SetTicket(t)
	case "form":
		t, err := runTicketForm(s.Ticket())
		if err != nil {
			printError(err)
			return false
		}
		s.SetTicket(t)
	case "photo", "image":
		if arg == "" {
			fmt.Fprintln(sh.out, "photo <путь>")
			return false
		}
		if err := sh.app.loadImage(arg); err != nil {
			printError(err)
			return false
		}
		img := s.Image()
		printSuccess(fmt.Sprintf("Фото загружено: %s (%dx%d)", img.Filename, img.Width, img.Height))
	case "extract":
		out := sh.send(session.ExtractCmd{})
		if out.Err != nil {
			printError(out.Err)
			return false
		}
		printSuccess("Вопросы извлечены! ✨")
		printTicket(sh.out, s.Ticket())
	case "generate", "gen":
		out := sh.send(session.GenerateCmd{})
		if out.Err != nil {
			printError(out.Err)
			return false
		}
		printSuccess(fmt.Sprintf("Ответы сгенерированы (%s)! ✨", out.Answer.Model))
		printAnswer(sh.out, out.Answer, "plain")
	case "show":
		printTicket(sh.out, s.Ticket())
	case "answer":
		ans := s.Answer()
		if ans == nil {
			printError(export.ErrEmptyAnswer)
			return false
		}
		output := arg
		if output == "" {
			output = "plain"
		}
		if err := checkOutput(output); err != nil {
			printError(err)
			return false
		}
		printAnswer(sh.out, ans, output)
	case "copy", "clipboard", "txt", "docx", "word", "html", "export":
		fname := name
		if name == "export" {
			fname = arg
		}
		f, err := export.ParseFormat(fname)
		if err != nil {
			printError(err)
			return false
		}
		reportExport(sh.send(session.ExportCmd{Format: f}))
	case "key":
		if arg == "" {
			fmt.Fprintln(sh.out, "key <ключ>")
			return false
		}
		s.SetCredential(arg)
		printSuccess("Ключ API установлен")
	case "state":
		fmt.Fprintln(sh.out, s.State())
		if err := s.LastError(); err != nil {
			fmt.Fprintln(sh.out, dimStyle.Render(userMessage(err)))
		}
	case "clear":
		s.SetTicket(ticket.Ticket{})
		s.SetImage(nil)
	default:
		fmt.Fprintf(os.Stderr, "Неизвестная команда %q (help — список команд)\n", name)
	}
	return false
}
