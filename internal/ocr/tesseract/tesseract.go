// Package tesseract provides on-device OCR workers backed by the Tesseract library.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/pdfswift/internal/imaging"
	"github.com/zombor/pdfswift/internal/ocr"
)

// client is the subset of *gosseract.Client a worker drives
type client interface {
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// Factory creates one Tesseract client per worker
type Factory struct {
	newClient func() client
}

// NewFactory creates a factory using the system Tesseract installation
func NewFactory() *Factory {
	return &Factory{newClient: func() client { return gosseract.NewClient() }}
}

func (f *Factory) Name() string { return "tesseract" }

// NewWorker loads a client for language
func (f *Factory) NewWorker(ctx context.Context, language string) (ocr.Worker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := f.newClient()
	if err := c.SetLanguage(language); err != nil {
		c.Close()
		return nil, fmt.Errorf("set language %s: %w", language, err)
	}
	return &worker{client: c}, nil
}

type worker struct {
	client client
}

// Recognize runs Tesseract synchronously. Tesseract cannot be interrupted mid-page, so
// cancellation is observed before recognition starts.
func (w *worker) Recognize(ctx context.Context, img imaging.Image, progress ocr.ProgressFunc) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("image has no data")
	}
	if err := w.client.SetImageFromBytes(img.Data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	progress(0.25)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := w.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	progress(1)
	return text, nil
}

func (w *worker) Terminate() error {
	return w.client.Close()
}
