// Package session owns the state of one examclaw run: the credential, the
// draft ticket, the uploaded photo and the current answer. It runs Extract,
// Generate and Export commands one at a time and enforces that only one
// model invocation is in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jholhewres/examclaw/pkg/examclaw/export"
	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
	"github.com/jholhewres/examclaw/pkg/examclaw/markdown"
	"github.com/jholhewres/examclaw/pkg/examclaw/media"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

var (
	// ErrBusy is returned when a command arrives while an invocation runs.
	ErrBusy = errors.New("an invocation is already in progress")

	// ErrMissingCredential is returned before any network call when no API
	// key is set.
	ErrMissingCredential = errors.New("API key is not set")

	// ErrNoImage is returned by Extract when no photo is loaded. It wraps
	// ticket.ErrMissingInput.
	ErrNoImage = fmt.Errorf("%w: ticket photo", ticket.ErrMissingInput)
)

// State is the invocation state of the session.
type State int

const (
	// Idle: nothing has run yet.
	Idle State = iota
	// Invoking: a model request is in flight; Extract and Generate are rejected.
	Invoking
	// Succeeded: the last invocation succeeded. Accepts commands like Idle.
	Succeeded
	// Failed: the last invocation failed; the previous answer is kept.
	// Accepts commands like Idle.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Invoking:
		return "invoking"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Invoker sends a prompt down the model candidate chain.
type Invoker interface {
	Invoke(ctx context.Context, prompt gemini.Prompt, models []string, credential string) (*gemini.Result, error)
}

// Answer is a generated answer. It is replaced wholesale, never mutated.
type Answer struct {
	ID        string
	Ticket    ticket.Ticket
	Raw       string
	Rendered  markdown.Rendered
	Model     string
	CreatedAt time.Time
}

// Options configures a Session.
type Options struct {
	Models    []string
	ExportDir string
	Clipboard export.Clipboard
	Logger    *slog.Logger
}

// Session is the explicit replacement for page-global form state.
type Session struct {
	invoker   Invoker
	models    []string
	exportDir string
	clipboard export.Clipboard
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	state      State
	credential string
	draft      ticket.Ticket
	image      *media.Image
	answer     *Answer
	lastErr    error
}

// New creates an idle session.
func New(invoker Invoker, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cb := opts.Clipboard
	if cb == nil {
		cb = export.SystemClipboard{}
	}
	models := opts.Models
	if len(models) == 0 {
		models = gemini.DefaultModels
	}
	return &Session{
		invoker:   invoker,
		models:    append([]string(nil), models...),
		exportDir: opts.ExportDir,
		clipboard: cb,
		logger:    logger.With("component", "session"),
		now:       time.Now,
	}
}

// ---------- State accessors ----------

// SetCredential replaces the API key used by later invocations.
func (s *Session) SetCredential(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = strings.TrimSpace(key)
}

// HasCredential reports whether an API key is set.
func (s *Session) HasCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential != ""
}

// SetTicket replaces the draft ticket.
func (s *Session) SetTicket(t ticket.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = t.Normalize()
}

// Ticket returns the draft ticket.
func (s *Session) Ticket() ticket.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetImage replaces the uploaded photo; nil clears it.
func (s *Session) SetImage(img *media.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = img
}

// Image returns the uploaded photo or nil.
func (s *Session) Image() *media.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Answer returns the current answer or nil.
func (s *Session) Answer() *Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer
}

// State returns the invocation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error of the last failed invocation, if the last
// invocation failed.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ---------- Invocation ----------

// begin validates and moves to Invoking. validate runs under the lock so the
// checks and the transition are atomic.
func (s *Session) begin(validate func() error) (credential string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Invoking {
		return "", ErrBusy
	}
	if s.credential == "" {
		return "", ErrMissingCredential
	}
	if err := validate(); err != nil {
		return "", err
	}
	s.state = Invoking
	return s.credential, nil
}

// finish leaves Invoking. On success apply runs under the same lock as the
// transition, so readers never see the new result with a stale state.
func (s *Session) finish(err error, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Failed
		s.lastErr = err
		return
	}
	if apply != nil {
		apply()
	}
	s.state = Succeeded
	s.lastErr = nil
}

// Generate asks the model to answer the draft ticket. On success the answer
// replaces the current one; on failure the current answer is kept.
func (s *Session) Generate(ctx context.Context) (*Answer, error) {
	var t ticket.Ticket
	credential, err := s.begin(func() error {
		t = s.draft
		return t.Validate()
	})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := s.logger.With("invocation", id, "kind", "generate", "ticket", t.Number)
	logger.Info("generating answer")
	start := s.now()

	res, err := s.invoker.Invoke(ctx, ticket.AnswerPrompt(t), s.models, credential)
	if err != nil {
		logger.Warn("generation failed", "error", err)
		s.finish(err, nil)
		return nil, err
	}

	ans := &Answer{
		ID:        id,
		Ticket:    t,
		Raw:       res.Text,
		Rendered:  markdown.Transform(res.Text),
		Model:     res.Model,
		CreatedAt: s.now(),
	}

	s.finish(nil, func() { s.answer = ans })

	logger.Info("answer ready",
		"model", res.Model,
		"chars", len(res.Text),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return ans, nil
}

// Extract reads the ticket fields off the uploaded photo and merges every
// field found into the draft. The current answer is never touched.
func (s *Session) Extract(ctx context.Context) (ticket.Extraction, error) {
	var img *media.Image
	credential, err := s.begin(func() error {
		if s.image == nil {
			return ErrNoImage
		}
		img = s.image
		return nil
	})
	if err != nil {
		return ticket.Extraction{}, err
	}

	id := uuid.NewString()
	logger := s.logger.With("invocation", id, "kind", "extract", "image", img.Filename)
	logger.Info("extracting questions from photo")

	res, err := s.invoker.Invoke(ctx, ticket.ExtractPrompt(img.Inline()), s.models, credential)
	if err != nil {
		logger.Warn("extraction failed", "error", err)
		s.finish(err, nil)
		return ticket.Extraction{}, err
	}

	ext, err := ticket.ParseExtraction(res.Text)
	if err != nil {
		logger.Warn("extraction reply unusable", "model", res.Model, "error", err)
		s.finish(err, nil)
		return ticket.Extraction{}, err
	}

	s.finish(nil, func() { s.draft = ticket.Merge(s.draft, ext) })

	logger.Info("questions extracted", "model", res.Model, "fields", ext.Found())
	return ext, nil
}

// Export delivers the current answer in format f and returns the written
// path ("" for the clipboard).
func (s *Session) Export(f export.Format) (string, error) {
	ans := s.Answer()
	if ans == nil {
		return "", export.ErrEmptyAnswer
	}

	if f == export.FormatClipboard {
		if err := export.Copy(s.clipboard, ans.Rendered.Plain); err != nil {
			return "", err
		}
		s.logger.Info("answer copied to clipboard", "invocation", ans.ID)
		return "", nil
	}

	file, err := export.Write(s.exportDir, f, export.Answer{
		Stem:  ans.Ticket.FileStem(),
		Title: "Билет " + ans.Ticket.FileStem(),
		HTML:  ans.Rendered.HTML,
		Plain: ans.Rendered.Plain,
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("answer exported",
		"invocation", ans.ID,
		"format", string(f),
		"path", file.Path,
		"mime", file.MIMEType,
		"bytes", file.Size,
	)
	return file.Path, nil
}
