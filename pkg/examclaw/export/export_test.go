package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const plainAnswer = `БИЛЕТ 5

1. Что такое TCP?
Протокол транспортного уровня & <надёжный>.
ШАГ 1 установка соединения
Вывод: всё хорошо

• пункт`

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func TestCopy(t *testing.T) {
	t.Parallel()

	cb := &fakeClipboard{}
	if err := Copy(cb, "ответ"); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if cb.text != "ответ" {
		t.Errorf("clipboard = %q, want %q", cb.text, "ответ")
	}

	if err := Copy(cb, ""); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("Copy(empty) = %v, want ErrEmptyAnswer", err)
	}

	failing := &fakeClipboard{err: errors.New("no xclip")}
	if err := Copy(failing, "x"); err == nil || !strings.Contains(err.Error(), "no xclip") {
		t.Errorf("Copy() with failing clipboard = %v", err)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stem string
		f    Format
		want string
	}{
		{"5", FormatTXT, "Билет_5.txt"},
		{"", FormatTXT, "Билет_bilet.txt"},
		{"12", FormatDOCX, "Билет_12.docx"},
		{"3/4", FormatHTML, "Билет_3_4.html"},
	}
	for _, tt := range tests {
		if got := FileName(tt.stem, tt.f); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.stem, tt.f, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"TXT": FormatTXT, "docx": FormatDOCX, "word": FormatDOCX, "copy": FormatClipboard, " html ": FormatHTML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("ParseFormat(pdf) should fail")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want LineKind
	}{
		{"", LineEmpty},
		{"   ", LineEmpty},
		{"БИЛЕТ 5", LineTicket},
		{"БИЛЕТ5: тема", LineTicket},
		{"1. Вопрос", LineQuestion},
		{"12.", LineQuestion},
		{"ШАГ 2 расчёт", LineSection},
		{"РЕШЕНИЕ", LineSection},
		{"ВАРИАНТ 1", LineSection},
		{"Дано: x", LineSection},
		{"Вывод: y", LineSection},
		{"Билет 5", LineBody},
		{"• пункт", LineBody},
		{" 1. с отступом", LineBody},
	}
	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func readZipEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(b)
	}
	t.Fatalf("zip entry %s not found", name)
	return ""
}

func TestBuildDOCX(t *testing.T) {
	t.Parallel()

	data, err := BuildDOCX(plainAnswer)
	if err != nil {
		t.Fatalf("BuildDOCX() error = %v", err)
	}

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/_rels/document.xml.rels",
		"word/theme/theme1.xml",
		"word/fontTable.xml",
	} {
		_ = readZipEntry(t, data, name)
	}

	styles := readZipEntry(t, data, "word/styles.xml")
	for _, want := range []string{
		`w:styleId="Heading1"`,
		`w:styleId="Heading2"`,
		`w:styleId="SectionLabel"`,
		`<w:spacing w:before="200" w:after="100"/>`,
	} {
		if !strings.Contains(styles, want) {
			t.Errorf("styles.xml missing %q", want)
		}
	}

	doc := readZipEntry(t, data, "word/document.xml")
	checks := []string{
		`<w:pStyle w:val="Heading1"></w:pStyle>`,
		`<w:pStyle w:val="Heading2"></w:pStyle>`,
		`<w:pStyle w:val="SectionLabel"></w:pStyle>`,
		`<w:sz w:val="32"></w:sz>`,
		`<w:sz w:val="26"></w:sz>`,
		`<w:b></w:b>`,
		`Протокол транспортного уровня &amp; &lt;надёжный&gt;.`,
		`ШАГ 1 установка соединения`,
	}
	for _, want := range checks {
		if !strings.Contains(doc, want) {
			t.Errorf("document.xml missing %q", want)
		}
	}
	if got, want := strings.Count(doc, "<w:p>"), strings.Count(plainAnswer, "\n")+1; got != want {
		t.Errorf("paragraph count = %d, want %d (one per line)", got, want)
	}

	if _, err := BuildDOCX(""); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("BuildDOCX(empty) = %v, want ErrEmptyAnswer", err)
	}
}

func TestBuildHTML(t *testing.T) {
	t.Parallel()

	page, err := BuildHTML("Билет <5>", `<h2>Тема</h2> &amp;`)
	if err != nil {
		t.Fatalf("BuildHTML() error = %v", err)
	}
	s := string(page)
	if !strings.Contains(s, "<title>Билет &lt;5&gt;</title>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(s, `<h2>Тема</h2> &amp;`) {
		t.Error("body markup was altered")
	}
	if !strings.Contains(s, ".ticket-header") {
		t.Error("page is missing highlight styles")
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	a := Answer{Stem: "5", Title: "Билет 5", HTML: "<p>x</p>", Plain: plainAnswer}

	tests := []struct {
		f        Format
		name     string
		mimeType string
	}{
		{FormatTXT, "Билет_5.txt", "text/plain;charset=utf-8"},
		{FormatDOCX, "Билет_5.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{FormatHTML, "Билет_5.html", "text/html;charset=utf-8"},
	}
	for _, tt := range tests {
		file, err := Write(dir, tt.f, a)
		if err != nil {
			t.Fatalf("Write(%s) error = %v", tt.f, err)
		}
		if filepath.Base(file.Path) != tt.name {
			t.Errorf("Write(%s) path = %q, want base %q", tt.f, file.Path, tt.name)
		}
		if file.MIMEType != tt.mimeType {
			t.Errorf("Write(%s) MIMEType = %q, want %q", tt.f, file.MIMEType, tt.mimeType)
		}
		info, err := os.Stat(file.Path)
		if err != nil {
			t.Fatalf("stat %s: %v", file.Path, err)
		}
		if int(info.Size()) != file.Size {
			t.Errorf("Write(%s) Size = %d, file has %d bytes", tt.f, file.Size, info.Size())
		}
	}

	got, err := os.ReadFile(filepath.Join(dir, "Билет_5.txt"))
	if err != nil || string(got) != plainAnswer {
		t.Errorf("txt content mismatch: %v", err)
	}

	if _, err := Write(dir, FormatClipboard, a); err == nil {
		t.Error("Write(clipboard) should fail")
	}
	if _, err := Write(dir, FormatTXT, Answer{}); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("Write(empty) = %v, want ErrEmptyAnswer", err)
	}
}
