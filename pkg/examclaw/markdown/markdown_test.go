package markdown

import (
	"strings"
	"testing"
)

const sampleAnswer = `## 🧠 Билет 7: Сети

### 1. Что такое TCP?

TCP — протокол **транспортного** уровня.

#### 📌 Ключевые пункты:

1. **Надёжность:** подтверждение доставки
   * Повторная передача
   * Контроль порядка

2. **Поток:** управление окном
   - Скользящее окно

---

` + "```" + `
tcpdump -i eth0
` + "```" + `

Используйте ` + "`netstat`" + ` для *проверки*.`

func TestToPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "просто текст", "просто текст"},
		{"bold stars", "**жирный** текст", "жирный текст"},
		{"bold underscores", "__жирный__", "жирный"},
		{"italic stars", "это *курсив*", "это курсив"},
		{"italic underscores", "это _курсив_", "это курсив"},
		{"heading", "## Заголовок", "Заголовок"},
		{"deep heading", "###### Заголовок", "Заголовок"},
		{"fenced code dropped", "a\n```go\nfmt.Println()\n```\nb", "a\n\nb"},
		{"inline code kept", "use `fmt` here", "use fmt here"},
		{"dash bullet", "- пункт", "• пункт"},
		{"indented star bullet", "  * подпункт", "• подпункт"},
		{"wide spaces", "a     b", "a  b"},
		{"blank lines kept", "a\n\n\n\nb", "a\n\n\n\nb"},
		{"unclosed bold", "**не закрыто", "**не закрыто"},
		{"bullet with italic", "* пункт *важно*", "• пункт важно"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ToPlain(tt.in); got != tt.want {
				t.Errorf("ToPlain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToPlainIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"просто текст без разметки",
		"Билет 5: Тема\n\n1. Вопрос\n\nОтвет важно",
		"• пункт\n• ещё пункт",
		sampleAnswer,
	}

	for _, in := range inputs {
		once := ToPlain(in)
		twice := ToPlain(once)
		if once != twice {
			t.Errorf("ToPlain not idempotent for %q:\nonce  = %q\ntwice = %q", in, once, twice)
		}
	}
}

func TestToPlainSampleAnswer(t *testing.T) {
	t.Parallel()

	got := ToPlain(sampleAnswer)
	for _, forbidden := range []string{"**", "#", "```", "`", "*"} {
		if strings.Contains(got, forbidden) {
			t.Errorf("plain output still contains %q:\n%s", forbidden, got)
		}
	}
	for _, want := range []string{"Билет 7: Сети", "• Повторная передача", "• Скользящее окно", "netstat", "проверки"} {
		if !strings.Contains(got, want) {
			t.Errorf("plain output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "tcpdump") {
		t.Errorf("fenced code should be dropped:\n%s", got)
	}
}

func TestToHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"escape", "a < b & c > d", "a &lt; b &amp; c &gt; d"},
		{"no double escape", "&lt;", "&amp;lt;"},
		{"script tag", "<script>", "&lt;script&gt;"},
		{"h4", "#### Пункты", `<h4 style="color: #f472b6; margin: 15px 0 10px 0;">Пункты</h4>`},
		{"h5 untouched", "##### пять", "##### пять"},
		{"bold", "**важно**", "<strong>важно</strong>"},
		{"italic", "*курсив*", "<em>курсив</em>"},
		{"rule", "---", ruleHTML},
		{"star bullet", "   * Подпункт", "   " + bulletHTML + " Подпункт"},
		{"dash bullet", "- Пункт", bulletHTML + " Пункт"},
		{"numbered bold", "1. **Первый пункт:** текст", `<strong style="color: #10b981;">1. Первый пункт:</strong> текст`},
		{"numbered bold colon outside", "2. **Второй**: текст", `<strong style="color: #10b981;">2. Второй</strong> текст`},
		{"ticket header", "БИЛЕТ 12", `<span class="ticket-header">БИЛЕТ 12</span>`},
		{"ticket header tab", "БИЛЕТ\t7 тема", "<span class=\"ticket-header\">БИЛЕТ\t7 тема</span>"},
		{"ticket header stays on its line", "БИЛЕТ\n5", "БИЛЕТ\n5"},
		{"ticket header after blank line", "БИЛЕТ\n\n5 вопросов", "БИЛЕТ\n\n5 вопросов"},
		{"section label", "Дано: x = 1", `<span class="section-label">Дано:</span> x = 1`},
		{"step label", "ШАГ 2 расчёт", `<span class="section-label">ШАГ 2</span> расчёт`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ToHTML(tt.in); got != tt.want {
				t.Errorf("ToHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformRoundTrip(t *testing.T) {
	t.Parallel()

	r := Transform("## Билет 5: Тема\n\n### 1. Вопрос\n\nОтвет **важно**")

	if strings.ContainsAny(r.Plain, "#*") {
		t.Errorf("Plain contains markup: %q", r.Plain)
	}
	if want := "Билет 5: Тема\n\n1. Вопрос\n\nОтвет важно"; r.Plain != want {
		t.Errorf("Plain = %q, want %q", r.Plain, want)
	}
	if !strings.Contains(r.HTML, "<h2") {
		t.Errorf("HTML missing <h2: %q", r.HTML)
	}
	if !strings.Contains(r.HTML, "<h3") {
		t.Errorf("HTML missing <h3: %q", r.HTML)
	}
	if !strings.Contains(r.HTML, "<strong>важно</strong>") {
		t.Errorf("HTML missing bold: %q", r.HTML)
	}
}

func TestTransformMalformedDoesNotPanic(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"**",
		"***",
		"** unclosed",
		"*",
		"__",
		"```",
		"``` unterminated\ncode",
		"`",
		"#",
		"####",
		"1. **",
		"- ",
		"* ",
		"\x00\xff\xfe",
		strings.Repeat("*", 1000),
		strings.Repeat("_*`#", 250),
	}

	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Transform(%q) panicked: %v", in, r)
				}
			}()
			_ = Transform(in)
		}()
	}
}
