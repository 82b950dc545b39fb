// Package workflow ties capture, recognition, PDF building, optimization and delivery
// into the user-facing operations and serves them over HTTP.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zombor/pdfswift/internal/delivery"
	"github.com/zombor/pdfswift/internal/document"
	"github.com/zombor/pdfswift/internal/imaging"
	"github.com/zombor/pdfswift/internal/library"
	"github.com/zombor/pdfswift/internal/ocr"
	"github.com/zombor/pdfswift/internal/optimize"
)

// Titles and filename prefixes of the documents each operation produces
const (
	OCRTitle         = "Local OCR Scan"
	DefaultNoteTitle = "Note"

	scanPrefix   = "Scan"
	ocrPrefix    = "OCR_Doc"
	photosPrefix = "photos"
)

var (
	// ErrEmptyText is returned when a text document is requested without any text
	ErrEmptyText = errors.New("text is empty")
	// ErrNoImages is returned when a photo document is requested without any photos
	ErrNoImages = errors.New("no images provided")
)

// Upload is a file received from the user
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result describes a finished operation
type Result struct {
	Artifact *document.Artifact `json:"artifact"`
	Delivery delivery.Delivery  `json:"delivery"`
	// Text is the recognized text of a searchable scan
	Text   string           `json:"text,omitempty"`
	Report *optimize.Report `json:"report,omitempty"`
}

// Recognizer extracts text from a capture
type Recognizer interface {
	Recognize(ctx context.Context, img imaging.Image, onProgress ocr.ProgressFunc) (string, error)
}

// Optimizer shrinks an existing PDF
type Optimizer interface {
	Optimize(ctx context.Context, data []byte, filename string) (*optimize.Result, error)
}

// Deliverer hands an artifact to the user
type Deliverer interface {
	Deliver(ctx context.Context, artifact *document.Artifact, mode delivery.Mode) (delivery.Delivery, error)
}

// Library is the saved document store
type Library interface {
	List() ([]*library.Document, error)
	Get(id string) (*library.Document, error)
	File(id string) (*library.Document, []byte, error)
	Delete(id string) error
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service implements the scanner, photo, text and compressor operations
type Service struct {
	builder      *document.Builder
	recognizer   Recognizer
	optimizer    Optimizer
	deliverer    Deliverer
	library      Library
	imageOptions imaging.Options
	timeSource   TimeSource
}

// NewService creates a new Service using the wall clock
func NewService(builder *document.Builder, recognizer Recognizer, optimizer Optimizer, deliverer Deliverer, lib Library, imageOptions imaging.Options) *Service {
	return NewServiceWithDeps(builder, recognizer, optimizer, deliverer, lib, imageOptions, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with a custom time source for testing
func NewServiceWithDeps(builder *document.Builder, recognizer Recognizer, optimizer Optimizer, deliverer Deliverer, lib Library, imageOptions imaging.Options, timeSrc TimeSource) *Service {
	return &Service{
		builder:      builder,
		recognizer:   recognizer,
		optimizer:    optimizer,
		deliverer:    deliverer,
		library:      lib,
		imageOptions: imageOptions,
		timeSource:   timeSrc,
	}
}

// ScanVisual turns a capture into a single-page image PDF
func (s *Service) ScanVisual(ctx context.Context, upload Upload, mode delivery.Mode) (*Result, error) {
	img, err := s.decode(upload, 1)
	if err != nil {
		return nil, err
	}

	artifact, err := s.builder.BuildFromImages(ctx, []imaging.Image{img})
	if err != nil {
		return nil, fmt.Errorf("building scan: %w", err)
	}
	return s.deliver(ctx, artifact.WithFilename(document.Filename(scanPrefix, s.timeSource.Now())), mode)
}

// ScanText recognizes the text of a capture and turns it into a searchable text PDF
func (s *Service) ScanText(ctx context.Context, upload Upload, mode delivery.Mode, onProgress ocr.ProgressFunc) (*Result, error) {
	img, err := s.decode(upload, 1)
	if err != nil {
		return nil, err
	}

	text, err := s.recognizer.Recognize(ctx, img, onProgress)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	artifact, err := s.builder.BuildFromText(ctx, text, OCRTitle)
	if err != nil {
		return nil, fmt.Errorf("building text document: %w", err)
	}

	result, err := s.deliver(ctx, artifact.WithFilename(document.Filename(ocrPrefix, s.timeSource.Now())), mode)
	if err != nil {
		return nil, err
	}
	result.Text = text
	return result, nil
}

// PhotosToPDF combines photos into one PDF, a page per photo in upload order
func (s *Service) PhotosToPDF(ctx context.Context, uploads []Upload, mode delivery.Mode) (*Result, error) {
	if len(uploads) == 0 {
		return nil, ErrNoImages
	}

	images := make([]imaging.Image, 0, len(uploads))
	for i, upload := range uploads {
		img, err := s.decode(upload, i+1)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	artifact, err := s.builder.BuildFromImages(ctx, images)
	if err != nil {
		return nil, fmt.Errorf("building photo document: %w", err)
	}
	return s.deliver(ctx, artifact.WithFilename(document.Filename(photosPrefix, s.timeSource.Now())), mode)
}

// TextToPDF turns typed text into a PDF. An empty title becomes DefaultNoteTitle.
func (s *Service) TextToPDF(ctx context.Context, text, title string, mode delivery.Mode) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultNoteTitle
	}

	artifact, err := s.builder.BuildFromText(ctx, text, title)
	if err != nil {
		return nil, fmt.Errorf("building text document: %w", err)
	}
	return s.deliver(ctx, artifact.WithFilename(document.Filename(title, s.timeSource.Now())), mode)
}

// Compress optimizes an uploaded PDF and delivers the result with its size report
func (s *Service) Compress(ctx context.Context, upload Upload, mode delivery.Mode) (*Result, error) {
	optimized, err := s.optimizer.Optimize(ctx, upload.Data, upload.Filename)
	if err != nil {
		return nil, fmt.Errorf("optimizing %s: %w", upload.Filename, err)
	}

	result, err := s.deliver(ctx, optimized.Artifact, mode)
	if err != nil {
		return nil, err
	}
	report := optimized.Report
	result.Report = &report
	return result, nil
}

// ListDocuments returns all saved documents
func (s *Service) ListDocuments() ([]*library.Document, error) {
	return s.library.List()
}

// GetDocument retrieves a saved document
func (s *Service) GetDocument(id string) (*library.Document, error) {
	return s.library.Get(id)
}

// DocumentFile retrieves a saved document with its bytes
func (s *Service) DocumentFile(id string) (*library.Document, []byte, error) {
	return s.library.File(id)
}

// DeleteDocument removes a saved document
func (s *Service) DeleteDocument(id string) error {
	return s.library.Delete(id)
}

// decode normalizes an upload into a capture. Unreadable uploads are reported as
// construction errors naming the upload's position.
func (s *Service) decode(upload Upload, position int) (imaging.Image, error) {
	img, err := imaging.Decode(upload.Data, upload.ContentType, s.imageOptions)
	if err != nil {
		slog.Error("Failed to decode upload",
			"filename", upload.Filename,
			"content_type", upload.ContentType,
			"file_size", len(upload.Data),
			"error", err,
		)
		return imaging.Image{}, &document.DocumentConstructionError{
			Reason: fmt.Sprintf("image %d (%s) cannot be read", position, upload.Filename),
			Err:    err,
		}
	}
	return img, nil
}

func (s *Service) deliver(ctx context.Context, artifact *document.Artifact, mode delivery.Mode) (*Result, error) {
	d, err := s.deliverer.Deliver(ctx, artifact, mode)
	if err != nil {
		return nil, fmt.Errorf("delivering %s: %w", artifact.Filename, err)
	}
	return &Result{Artifact: artifact, Delivery: d}, nil
}
