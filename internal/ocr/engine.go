package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/zombor/pdfswift/internal/imaging"
)

// Engine runs recognition calls, each on its own worker
type Engine struct {
	factory     WorkerFactory
	language    string
	concurrency int
	slots       *semaphore.Weighted
}

// Option configures an Engine
type Option func(*Engine)

// WithLanguage sets the language every worker is loaded with
func WithLanguage(language string) Option {
	return func(e *Engine) {
		if language != "" {
			e.language = language
		}
	}
}

// WithConcurrency sets how many recognitions may be in flight at once
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates an engine backed by factory. By default one recognition runs at a
// time, in DefaultLanguage.
func NewEngine(factory WorkerFactory, opts ...Option) *Engine {
	e := &Engine{
		factory:     factory,
		language:    DefaultLanguage,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.slots = semaphore.NewWeighted(int64(e.concurrency))
	return e
}

// Backend returns the name of the worker implementation
func (e *Engine) Backend() string {
	return e.factory.Name()
}

// Language returns the language workers are loaded with
func (e *Engine) Language() string {
	return e.language
}

// Recognize extracts text from img. Progress is reported to onProgress (which may be nil)
// as a non-decreasing sequence ending at 1.0. Empty output becomes NoTextPlaceholder.
// Worker errors are returned as *OcrFailure and cancellation as ErrCancelled; the worker
// is terminated on every path.
func (e *Engine) Recognize(ctx context.Context, img imaging.Image, onProgress ProgressFunc) (string, error) {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	defer e.slots.Release(1)

	progress := newProgressTracker(onProgress)
	progress.report(0)

	worker, err := e.factory.NewWorker(ctx, e.language)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		slog.Error("Failed to start OCR worker", "backend", e.factory.Name(), "error", err)
		return "", &OcrFailure{Message: FailureMessage, Err: fmt.Errorf("starting worker: %w", err)}
	}
	defer func() {
		if err := worker.Terminate(); err != nil {
			slog.Warn("Failed to terminate OCR worker", "backend", e.factory.Name(), "error", err)
		}
	}()

	text, err := worker.Recognize(ctx, img, progress.report)
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
	if err != nil {
		slog.Error("OCR failed", "backend", e.factory.Name(), "error", err)
		return "", &OcrFailure{Message: FailureMessage, Err: err}
	}
	progress.finish()

	text = strings.TrimSpace(text)
	if text == "" {
		slog.Debug("OCR found no text", "backend", e.factory.Name())
		return NoTextPlaceholder, nil
	}

	slog.Debug("OCR complete", "backend", e.factory.Name(), "chars", len(text))
	return text, nil
}
