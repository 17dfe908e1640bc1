package export

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// LineKind is how a plain-text line is laid out in the document.
type LineKind int

const (
	LineBody LineKind = iota
	LineEmpty
	LineTicket
	LineQuestion
	LineSection
)

var (
	ticketLineRe   = regexp.MustCompile(`^БИЛЕТ[ \t]*\d+`)
	questionLineRe = regexp.MustCompile(`^\d+\.`)
	sectionLineRe  = regexp.MustCompile(`^(ШАГ \d+|РЕШЕНИЕ|ИТОГ|ВАРИАНТ \d+|Дано:|Вывод:)`)
)

// Classify picks the layout for one line.
func Classify(line string) LineKind {
	switch {
	case strings.TrimSpace(line) == "":
		return LineEmpty
	case ticketLineRe.MatchString(line):
		return LineTicket
	case questionLineRe.MatchString(line):
		return LineQuestion
	case sectionLineRe.MatchString(line):
		return LineSection
	}
	return LineBody
}

// layout of one paragraph kind. Sizes are half-points. Spacing before and
// after each kind lives in template/styles.xml under the same style id.
type layout struct {
	style string
	bold  bool
	size  int
}

var layouts = map[LineKind]layout{
	LineTicket:   {style: "Heading1", bold: true, size: 32},
	LineQuestion: {style: "Heading2", bold: true, size: 26},
	LineSection:  {style: "SectionLabel", bold: true, size: 24},
	LineBody:     {size: 24},
}

// ---------- Template ----------

const templateName = "examclaw"

//go:embed template/styles.xml
var stylesFS embed.FS

// templateFS serves the library's default package parts with our style
// sheet in place of its own.
type templateFS struct{}

func (templateFS) Open(name string) (fs.File, error) {
	rel := strings.TrimPrefix(name, "xml/"+templateName+"/")
	if rel == "word/styles.xml" {
		return stylesFS.Open("template/styles.xml")
	}
	return docx.TemplateXMLFS.Open("xml/default/" + rel)
}

func newDocument() *docx.Docx {
	return docx.New().UseTemplate(templateName, docx.DefaultTemplateFilesList, templateFS{})
}

func addLine(doc *docx.Docx, line string) {
	p := doc.AddParagraph()
	kind := Classify(line)
	if kind == LineEmpty {
		return
	}
	l := layouts[kind]
	if l.style != "" {
		p.Style(l.style)
	}
	size := strconv.Itoa(l.size)
	run := p.AddText(line).Size(size).SizeCs(size)
	if l.bold {
		run.Bold()
	}
}

// BuildDOCX lays out plain as a Word document, one paragraph per line.
func BuildDOCX(plain string) ([]byte, error) {
	if plain == "" {
		return nil, ErrEmptyAnswer
	}

	doc := newDocument()
	for _, line := range strings.Split(strings.ReplaceAll(plain, "\r\n", "\n"), "\n") {
		addLine(doc, line)
	}
	doc.WithA4Page()

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing docx: %w", err)
	}
	return buf.Bytes(), nil
}
