package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jholhewres/examclaw/pkg/examclaw/export"
	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
	"github.com/jholhewres/examclaw/pkg/examclaw/session"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

func TestUserMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"input", ticket.Ticket{}.Validate(), "Введите номер билета"},
		{"no image", session.ErrNoImage, "Сначала загрузите фото билета"},
		{"busy", session.ErrBusy, "Подождите, запрос уже выполняется"},
		{"overloaded", &gemini.InvocationError{Kind: gemini.KindExhausted}, "Все модели перегружены. Попробуйте через минуту."},
		{
			"api message",
			&gemini.InvocationError{Kind: gemini.KindFatal, Last: &gemini.APIError{StatusCode: 400, Message: "API key not valid"}},
			"API key not valid",
		},
		{"wrapped empty answer", fmt.Errorf("export: %w", export.ErrEmptyAnswer), "Сначала сгенерируйте ответы"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := userMessage(tt.err); got != tt.want {
				t.Errorf("userMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFriendlyKeepsCause(t *testing.T) {
	t.Parallel()

	err := friendly(session.ErrMissingCredential)
	if !errors.Is(err, session.ErrMissingCredential) {
		t.Fatalf("errors.Is lost the cause: %v", err)
	}
	if !strings.Contains(err.Error(), "API") {
		t.Errorf("Error() = %q", err.Error())
	}
	if friendly(nil) != nil {
		t.Error("friendly(nil) should be nil")
	}
}

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	base := ticket.Ticket{Number: "1", Questions: [3]string{"a", "b", "c"}}
	got := applyFlags(base, " 7 ", []string{"", "новый"})

	want := ticket.Ticket{Number: "7", Questions: [3]string{"a", "новый", "c"}}
	if got != want {
		t.Errorf("applyFlags() = %+v, want %+v", got, want)
	}
}

func TestParseFormats(t *testing.T) {
	t.Parallel()

	got, err := parseFormats([]string{"word", "copy", "html"})
	if err != nil {
		t.Fatal(err)
	}
	want := []export.Format{export.FormatDOCX, export.FormatClipboard, export.FormatHTML}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("format %d = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := parseFormats([]string{"pdf"}); err == nil {
		t.Error("expected error for pdf")
	}
}

func TestMaskKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"AIzaSyABCDEFGH1234": "AIza…1234",
		"short":              "****",
		"${GEMINI_API_KEY}":  "${GEMINI_API_KEY}",
	}
	for in, want := range tests {
		if got := maskKey(in); got != want {
			t.Errorf("maskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProgressLineNamesTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attempt gemini.Attempt
		want    string
	}{
		{gemini.Attempt{Task: ticket.TaskAnswer, Model: "m1", Index: 0, Total: 3}, "Генерация: m1… (1/3)"},
		{gemini.Attempt{Task: ticket.TaskExtract, Model: "m2", Index: 1, Total: 3}, "Распознавание фото: m2… (2/3)"},
		{gemini.Attempt{Model: "m3", Index: 2, Total: 3}, "Запрос: m3… (3/3)"},
	}
	for _, tt := range tests {
		if got := progressLine(tt.attempt); got != tt.want {
			t.Errorf("progressLine(%+v) = %q, want %q", tt.attempt, got, tt.want)
		}
	}
}

type stubInvoker struct {
	text  string
	calls int
}

func (s *stubInvoker) Invoke(_ context.Context, _ gemini.Prompt, models []string, _ string) (*gemini.Result, error) {
	s.calls++
	return &gemini.Result{Text: s.text, Model: models[0]}, nil
}

type memClipboard struct{ text string }

func (m *memClipboard) WriteAll(text string) error {
	m.text = text
	return nil
}

func TestShellExec(t *testing.T) {
	inv := &stubInvoker{text: "**Билет 4**\n\n* пункт"}
	cb := &memClipboard{}
	sess := session.New(inv, session.Options{Models: []string{"m1"}, Clipboard: cb})
	sess.SetCredential("key")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmds := make(chan session.Command)
	results := make(chan session.Outcome)
	go func() { _ = sess.Run(ctx, cmds, results) }()

	var out bytes.Buffer
	sh := &shell{app: &app{session: sess}, out: &out, cmds: cmds, results: results}

	for _, line := range []string{"ticket 4", "q1 Первый", "q2 Второй", "generate"} {
		if sh.exec(line) {
			t.Fatalf("exec(%q) quit", line)
		}
	}
	if inv.calls != 0 {
		t.Fatalf("generate with an incomplete ticket reached the invoker")
	}

	sh.exec("q3 Третий")
	sh.exec("generate")
	if inv.calls != 1 {
		t.Fatalf("invoker calls = %d, want 1", inv.calls)
	}
	if !strings.Contains(out.String(), "• пункт") {
		t.Errorf("plain answer not printed:\n%s", out.String())
	}

	sh.exec("copy")
	if !strings.Contains(cb.text, "Билет 4") {
		t.Errorf("clipboard = %q", cb.text)
	}

	if !sh.exec("exit") {
		t.Error("exit should quit")
	}
}
