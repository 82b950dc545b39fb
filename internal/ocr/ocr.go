// Package ocr recognizes text in a single captured image. Every call runs on a fresh
// Worker that is terminated before the call returns.
package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/zombor/pdfswift/internal/imaging"
)

// DefaultLanguage is the only language an engine recognizes unless configured otherwise
const DefaultLanguage = "eng"

// NoTextPlaceholder is returned in place of empty recognition output
const NoTextPlaceholder = "No clear text found in the image."

// FailureMessage is the remediation shown to the user when recognition fails
const FailureMessage = "On-device OCR failed. Ensure good lighting and clear focus."

// ErrCancelled is returned when the caller's context ends before recognition completes
var ErrCancelled = errors.New("ocr cancelled")

// OcrFailure wraps any error raised while creating, configuring or running a worker
type OcrFailure struct {
	Message string
	Err     error
}

func (e *OcrFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *OcrFailure) Unwrap() error {
	return e.Err
}

// ProgressFunc receives recognition progress in [0, 1]
type ProgressFunc func(progress float64)

// Worker is a single-use recognizer. The engine calls Recognize at most once and
// Terminate exactly once.
type Worker interface {
	Recognize(ctx context.Context, img imaging.Image, progress ProgressFunc) (string, error)
	Terminate() error
}

// WorkerFactory creates workers loaded for one language
type WorkerFactory interface {
	Name() string
	NewWorker(ctx context.Context, language string) (Worker, error)
}
