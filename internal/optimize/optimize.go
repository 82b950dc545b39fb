// Package optimize shrinks PDFs by re-serializing them with object and
// cross-reference streams. Page content is never recompressed or resampled.
package optimize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/zombor/pdfswift/internal/document"
)

const (
	filenamePrefix  = "compressed_"
	defaultFilename = "document.pdf"
)

// DocumentParseError reports input that is not a readable PDF
type DocumentParseError struct {
	Err error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("could not read PDF: %v", e.Err)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Err
}

// Report compares an input with its optimized output
type Report struct {
	OriginalSize int64 `json:"original_size"`
	NewSize      int64 `json:"new_size"`
	Pages        int   `json:"pages"`
}

// Saved returns the number of bytes saved. It is negative when the output grew.
func (r Report) Saved() int64 {
	return r.OriginalSize - r.NewSize
}

// Ratio returns the percentage by which the output is smaller than the input
func (r Report) Ratio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.Saved()) / float64(r.OriginalSize) * 100
}

// Result is an optimized artifact plus its report
type Result struct {
	Artifact *document.Artifact
	Report   Report
}

// Optimizer re-serializes PDFs with pdfcpu
type Optimizer struct{}

// New creates an Optimizer. pdfcpu's on-disk configuration directory is disabled so
// only the built-in defaults apply.
func New() *Optimizer {
	api.DisableConfigDir()
	return &Optimizer{}
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	return conf
}

// Optimize rewrites data with compressed object streams. Input that cannot be parsed
// yields a *DocumentParseError and no artifact. The output is reported as is, even when
// it is larger than the input.
func (o *Optimizer) Optimize(ctx context.Context, data []byte, filename string) (*Result, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, &DocumentParseError{Err: fmt.Errorf("missing %%PDF- header")}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, configuration()); err != nil {
		return nil, &DocumentParseError{Err: err}
	}

	pages, err := PageCount(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("counting optimized pages: %w", err)
	}

	report := Report{
		OriginalSize: int64(len(data)),
		NewSize:      int64(out.Len()),
		Pages:        pages,
	}

	slog.Info("Optimized PDF",
		"filename", filename,
		"original_size", report.OriginalSize,
		"new_size", report.NewSize,
		"pages", pages)

	return &Result{
		Artifact: &document.Artifact{
			Data:     out.Bytes(),
			Filename: OutputFilename(filename),
			MimeType: document.MimeType,
			Pages:    pages,
		},
		Report: report,
	}, nil
}

// OutputFilename names an optimized file after its source. The result is sanitized
// like every other artifact name and always ends in .pdf.
func OutputFilename(original string) string {
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(original, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		name = defaultFilename
	}
	return document.SanitizeFilename(filenamePrefix + name)
}

// PageCount returns the number of pages in a PDF
func PageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, &DocumentParseError{Err: err}
	}
	return n, nil
}
