package export

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { background: #0f0f1a; color: #e2e8f0; font-family: system-ui, sans-serif; margin: 0; padding: 32px; }
.result-text { max-width: 860px; margin: 0 auto; line-height: 1.6; white-space: pre-wrap; }
.ticket-header { color: #a78bfa; font-weight: 700; font-size: 1.3em; }
.section-label { color: #fbbf24; font-weight: 700; }
h1, h2, h3, h4 { white-space: normal; }
</style>
</head>
<body>
<div class="result-text">{{.Body}}</div>
</body>
</html>
`))

// BuildHTML wraps display markup produced by the markdown package in a
// standalone page. body must already be escaped.
func BuildHTML(title, body string) ([]byte, error) {
	if body == "" {
		return nil, ErrEmptyAnswer
	}
	if title == "" {
		title = "Билет"
	}
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
