// Package export delivers a generated answer outside the program: clipboard,
// plain-text file, Word document and a standalone HTML page.
//
// Exporters only read the answer. A failed export never changes it.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

var (
	// ErrEmptyAnswer is returned when there is nothing to export yet.
	ErrEmptyAnswer = errors.New("no answer to export")

	// ErrClipboardUnsupported is returned when no clipboard utility is
	// available (e.g. a headless Linux box without xclip or wl-copy).
	ErrClipboardUnsupported = errors.New("clipboard not supported on this system")
)

// Format is an export target.
type Format string

const (
	FormatClipboard Format = "clipboard"
	FormatTXT       Format = "txt"
	FormatDOCX      Format = "docx"
	FormatHTML      Format = "html"
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatClipboard, FormatTXT, FormatDOCX, FormatHTML:
		return f, nil
	case "copy":
		return FormatClipboard, nil
	case "word":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unknown export format %q (want clipboard, txt, docx or html)", s)
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// Copy puts plain on cb.
func Copy(cb Clipboard, plain string) error {
	if plain == "" {
		return ErrEmptyAnswer
	}
	if err := cb.WriteAll(plain); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}

// FileName is the export file name for a ticket stem, e.g. "Билет_5.txt".
func FileName(stem string, f Format) string {
	if stem == "" {
		stem = "bilet"
	}
	stem = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, stem)
	return "Билет_" + stem + "." + string(f)
}

// MIMEType returns the content type of a file format.
func MIMEType(f Format) string {
	switch f {
	case FormatTXT:
		return "text/plain;charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html;charset=utf-8"
	}
	return "application/octet-stream"
}

// Answer is what the file exporters need.
type Answer struct {
	Stem  string
	Title string
	HTML  string
	Plain string
}

// File is a written export.
type File struct {
	Path     string
	MIMEType string
	Size     int
}

// Write renders a in format f into dir.
func Write(dir string, f Format, a Answer) (File, error) {
	if a.Plain == "" {
		return File{}, ErrEmptyAnswer
	}

	var data []byte
	switch f {
	case FormatTXT:
		data = []byte(a.Plain)
	case FormatDOCX:
		doc, err := BuildDOCX(a.Plain)
		if err != nil {
			return File{}, fmt.Errorf("building docx: %w", err)
		}
		data = doc
	case FormatHTML:
		page, err := BuildHTML(a.Title, a.HTML)
		if err != nil {
			return File{}, fmt.Errorf("building html: %w", err)
		}
		data = page
	default:
		return File{}, fmt.Errorf("format %q is not a file format", f)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return File{}, fmt.Errorf("creating export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(a.Stem, f))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return File{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return File{Path: path, MIMEType: MIMEType(f), Size: len(data)}, nil
}
