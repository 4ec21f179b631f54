// Package extract turns report documents into rows by asking a language
// model for JSON that conforms to a fixed schema.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/MrJamesThe3rd/muniledger/internal/pdftext"
	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

const (
	DefaultMaxRetries     = 2
	DefaultRetrySleep     = 2500 * time.Millisecond
	DefaultGoalsThreshold = 50
)

// ErrNoInput is returned when a call has neither page text nor an
// uploaded file to work on.
var ErrNoInput = errors.New("no document input")

// RetryError is returned once every attempt of a call has failed.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error {
	return e.Last
}

type Config struct {
	MaxRetries     int
	RetrySleep     time.Duration
	GoalsThreshold int
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Call is one structured request.
type Call struct {
	System string
	Prompt string
	Schema *Validator
	File   *FileRef
}

// Input is what a document extraction works on: the page text layer, the
// uploaded file, or both.
type Input struct {
	File  *FileRef
	Pages []pdftext.Page
}

func (in Input) hasText() bool {
	for _, p := range in.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}

	return false
}

type Extractor struct {
	transport Transport
	cfg       Config

	// set once the transport rejects native structured output
	downgraded atomic.Bool
}

func New(t Transport, cfg Config) *Extractor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.GoalsThreshold <= 0 {
		cfg.GoalsThreshold = DefaultGoalsThreshold
	}

	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}

	return &Extractor{transport: t, cfg: cfg}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Upload sends the document to the model provider so calls can attach it.
func (e *Extractor) Upload(ctx context.Context, data []byte, mimeType string) (*FileRef, error) {
	ref, err := e.transport.Upload(ctx, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("uploading document: %w", err)
	}

	return ref, nil
}

// Structured runs a call until it yields JSON that passes the call's schema,
// retrying MaxRetries extra times with a linearly growing delay.
func (e *Extractor) Structured(ctx context.Context, c Call) ([]byte, error) {
	attempts := e.cfg.MaxRetries + 1

	var last error

	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := e.attempt(ctx, c)
		if err == nil {
			return out, nil
		}

		last = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		slog.Warn("extraction attempt failed", "attempt", attempt, "error", err)

		if attempt < attempts {
			if err := e.cfg.Sleep(ctx, e.cfg.RetrySleep*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, &RetryError{Attempts: attempts, Last: last}
}

func (e *Extractor) attempt(ctx context.Context, c Call) ([]byte, error) {
	if !e.downgraded.Load() {
		raw, err := e.transport.Generate(ctx, Request{
			System: c.System,
			Prompt: c.Prompt,
			Schema: c.Schema.doc,
			Native: true,
			File:   c.File,
		})

		switch {
		case errors.Is(err, ErrResponseFormatUnsupported):
			e.downgraded.Store(true)
			slog.Warn("native structured output unsupported, switching to plain generation")
		case err != nil:
			return nil, err
		default:
			return check(c.Schema, raw)
		}
	}

	raw, err := e.transport.Generate(ctx, Request{
		System: c.System,
		Prompt: withSchema(c.Prompt, c.Schema.text),
		File:   c.File,
	})
	if err != nil {
		return nil, err
	}

	raw = stripFences(raw)
	if raw == "" {
		return nil, errors.New("empty response")
	}

	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("repairing response: %w", err)
	}

	return check(c.Schema, repaired)
}

func check(v *Validator, raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty response")
	}

	out := []byte(raw)
	if err := v.Validate(out); err != nil {
		return nil, err
	}

	return out, nil
}

// stripFences removes a markdown code fence around the response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

func (e *Extractor) decode(ctx context.Context, c Call) (*wirePayload, error) {
	raw, err := e.Structured(ctx, c)
	if err != nil {
		return nil, err
	}

	var w wirePayload
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}

	return &w, nil
}

// Document extracts every table from the whole document in one call. A
// short goal table triggers a dedicated goals pass.
func (e *Extractor) Document(ctx context.Context, in Input) (report.Payload, error) {
	if in.File == nil && !in.hasText() {
		return report.Payload{}, ErrNoInput
	}

	prompt := documentPrompt + "\n\n" + attachedInput
	if in.File == nil {
		prompt = documentPrompt + "\n\nTexto del documento:\n" + pdftext.Join(in.Pages)
	}

	w, err := e.decode(ctx, Call{
		System: documentSystemPrompt,
		Prompt: prompt,
		Schema: documentValidator,
		File:   in.File,
	})
	if err != nil {
		return report.Payload{}, fmt.Errorf("extracting document: %w", err)
	}

	if len(w.Goals) < e.cfg.GoalsThreshold {
		goals, err := e.goals(ctx, in)
		if err != nil {
			return report.Payload{}, fmt.Errorf("running goals pass: %w", err)
		}

		if len(goals) > len(w.Goals) {
			w.Warnings = append(w.Warnings,
				fmt.Sprintf("goals replaced by dedicated pass: %d -> %d", len(w.Goals), len(goals)))
			w.Goals = goals
		}
	}

	if moved := w.reclassifyAccounts(); moved > 0 {
		w.Warnings = append(w.Warnings, fmt.Sprintf("%d balance sheet rows moved out of accounts", moved))
	}

	return w.payload(), nil
}

// Goals extracts only the goal table.
func (e *Extractor) Goals(ctx context.Context, in Input) ([]report.Goal, error) {
	goals, err := e.goals(ctx, in)
	if err != nil {
		return nil, err
	}

	return mapGoals(goals), nil
}

func (e *Extractor) goals(ctx context.Context, in Input) ([]wireGoal, error) {
	var prompt string

	switch {
	case in.File != nil:
		prompt = goalsPrompt + "\n\n" + attachedInput
	case in.hasText():
		text := goalPagesText(in.Pages)
		if strings.TrimSpace(text) == "" {
			text = pdftext.Join(in.Pages)
		}

		prompt = goalsPrompt + "\n\nTexto del documento:\n" + text
	default:
		return nil, ErrNoInput
	}

	w, err := e.decode(ctx, Call{
		System: documentSystemPrompt,
		Prompt: prompt,
		Schema: goalsValidator,
		File:   in.File,
	})
	if err != nil {
		return nil, fmt.Errorf("extracting goals: %w", err)
	}

	return w.Goals, nil
}
