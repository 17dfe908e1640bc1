package session

import (
	"context"
	"fmt"

	"github.com/jholhewres/examclaw/pkg/examclaw/export"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

// Command is a user action fed to the control loop.
type Command interface {
	command()
}

// ExtractCmd reads the ticket off the uploaded photo.
type ExtractCmd struct{}

// GenerateCmd answers the draft ticket.
type GenerateCmd struct{}

// ExportCmd delivers the current answer.
type ExportCmd struct {
	Format export.Format
}

func (ExtractCmd) command()  {}
func (GenerateCmd) command() {}
func (ExportCmd) command()   {}

// Outcome is the result of one command. Exactly one of the payload fields
// is set on success; Err is set on failure.
type Outcome struct {
	Command    Command
	Answer     *Answer
	Extraction *ticket.Extraction
	Path       string
	Err        error
}

// Handle runs one command synchronously. It is safe to call from several
// goroutines; a second Extract or Generate while one is running fails with
// ErrBusy.
func (s *Session) Handle(ctx context.Context, cmd Command) Outcome {
	out := Outcome{Command: cmd}
	switch c := cmd.(type) {
	case GenerateCmd:
		out.Answer, out.Err = s.Generate(ctx)
	case ExtractCmd:
		ext, err := s.Extract(ctx)
		if err == nil {
			out.Extraction = &ext
		}
		out.Err = err
	case ExportCmd:
		out.Path, out.Err = s.Export(c.Format)
	default:
		out.Err = fmt.Errorf("unknown command %T", cmd)
	}
	return out
}

// Run consumes commands until cmds is closed or ctx is done, sending one
// Outcome per command to results. Commands are processed in arrival order,
// one at a time.
func (s *Session) Run(ctx context.Context, cmds <-chan Command, results chan<- Outcome) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			out := s.Handle(ctx, cmd)
			select {
			case results <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
