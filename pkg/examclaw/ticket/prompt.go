package ticket

import (
	"fmt"

	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
)

// Prompt tasks, reported in progress events.
const (
	TaskAnswer  = "answer"
	TaskExtract = "extract"
)

// Generation parameters for the two request kinds.
const (
	AnswerTemperature      = 0.7
	AnswerMaxOutputTokens  = 8192
	ExtractTemperature     = 0.1
	ExtractMaxOutputTokens = 1024
)

const answerTemplate = `Ответь на 3 вопроса экзаменационного билета для студента в Кыргызстане.

ФОРМАТ ОТВЕТА (строго соблюдай):

## 🧠 Билет %s: [Краткое название темы]

### 1. [Первый вопрос]

[Краткое определение или введение в тему]

#### 📌 [Подзаголовок с ключевыми пунктами]:

1. **Первый пункт:**
   * Подпункт
   * Подпункт

2. **Второй пункт:**
   * Подпункт
   * Подпункт

---

### 2. [Второй вопрос]

[Аналогичная структура]

---

### 3. [Третий вопрос]

[Аналогичная структура]

ВОПРОСЫ БИЛЕТА:
1. %s
2. %s
3. %s

ПРАВИЛА:
- Используй эмодзи для заголовков (📌, 🧠 и т.д.)
- Используй ### для заголовков вопросов
- Используй #### для подзаголовков
- Используй нумерованные и маркированные списки
- Делай переносы строк между разделами
- Пиши подробно и структурированно
- Отвечай на русском языке`

const extractText = `Посмотри на это фото экзаменационного билета и извлеки из него информацию.

Верни ответ СТРОГО в формате JSON:
{
    "ticketNumber": <номер билета как число>,
    "question1": "<текст первого вопроса>",
    "question2": "<текст второго вопроса>",
    "question3": "<текст третьего вопроса>"
}

ВАЖНО:
- Извлеки ТОЛЬКО текст на русском языке (если есть текст на других языках - игнорируй его)
- Номер билета - это число после слова "билет" или "№"
- Вопросы могут быть пронумерованы как 1, 2, 3 или I, II, III
- Верни ТОЛЬКО JSON без дополнительного текста`

// AnswerPrompt builds the generation prompt for t. The ticket is expected to
// have passed Validate.
func AnswerPrompt(t Ticket) gemini.Prompt {
	t = t.Normalize()
	return gemini.Prompt{
		Task:            TaskAnswer,
		Text:            fmt.Sprintf(answerTemplate, t.Number, t.Questions[0], t.Questions[1], t.Questions[2]),
		Temperature:     AnswerTemperature,
		MaxOutputTokens: AnswerMaxOutputTokens,
	}
}

// ExtractPrompt builds the extraction prompt around a ticket photo.
func ExtractPrompt(img *gemini.InlineImage) gemini.Prompt {
	return gemini.Prompt{
		Task:            TaskExtract,
		Text:            extractText,
		Image:           img,
		Temperature:     ExtractTemperature,
		MaxOutputTokens: ExtractMaxOutputTokens,
	}
}
