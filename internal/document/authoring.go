package document

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/zombor/pdfswift/internal/imaging"
)

// Authoring is the PDF library as the builder sees it: text measurement plus a writer
// that places images by rectangle and text at a baseline.
type Authoring interface {
	Measurer
	NewWriter(size PageSize, info Info) Writer
}

// Info is document metadata handed to a Writer
type Info struct {
	Title     string
	CreatedAt time.Time
}

// Writer renders one document. It is used by a single goroutine and discarded after Finish.
type Writer interface {
	AddPage()
	DrawImage(name string, img imaging.Image, r Rect) error
	DrawText(x, y, fontSize float64, text string)
	// Finish serializes the document and returns its bytes and page count
	Finish() ([]byte, int, error)
}

const (
	fontFamily = "Go"
	producer   = "PDF Swift"
)

// useFont embeds the Go Regular TrueType font so text outside Latin-1 keeps its glyphs
func useFont(pdf *fpdf.Fpdf) {
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.SetFont(fontFamily, "", BodyFontSize)
}

// FPDF implements Authoring with github.com/go-pdf/fpdf and the embedded Go Regular font
type FPDF struct {
	mu      sync.Mutex
	measure *fpdf.Fpdf
}

// NewFPDF creates an fpdf-backed authoring service. It is safe for concurrent use.
func NewFPDF() *FPDF {
	m := fpdf.New("P", "pt", "A4", "")
	useFont(m)
	return &FPDF{measure: m}
}

// StringWidth returns the width of s in points at fontSize
func (f *FPDF) StringWidth(s string, fontSize float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.measure.SetFontSize(fontSize)
	return f.measure.GetStringWidth(s)
}

// NewWriter starts a new document with every page sized to size
func (f *FPDF) NewWriter(size PageSize, info Info) Writer {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreator(producer, false)
	pdf.SetProducer(producer, false)
	if info.Title != "" {
		pdf.SetTitle(info.Title, true)
	}
	if !info.CreatedAt.IsZero() {
		pdf.SetCreationDate(info.CreatedAt)
		pdf.SetModificationDate(info.CreatedAt)
	}
	useFont(pdf)

	return &fpdfWriter{pdf: pdf}
}

type fpdfWriter struct {
	pdf *fpdf.Fpdf
}

func (w *fpdfWriter) AddPage() {
	w.pdf.AddPage()
}

func (w *fpdfWriter) DrawImage(name string, img imaging.Image, r Rect) error {
	var imageType string
	switch img.Format {
	case imaging.FormatJPEG:
		imageType = "JPG"
	case imaging.FormatPNG:
		imageType = "PNG"
	default:
		return fmt.Errorf("unsupported image format %q", img.Format)
	}

	opts := fpdf.ImageOptions{ImageType: imageType}
	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if err := w.pdf.Error(); err != nil {
		return fmt.Errorf("registering image %s: %w", name, err)
	}
	w.pdf.ImageOptions(name, r.X, r.Y, r.Width, r.Height, false, opts, 0, "")
	if err := w.pdf.Error(); err != nil {
		return fmt.Errorf("placing image %s: %w", name, err)
	}
	return nil
}

func (w *fpdfWriter) DrawText(x, y, fontSize float64, text string) {
	if text == "" {
		return
	}
	w.pdf.SetFontSize(fontSize)
	w.pdf.Text(x, y, text)
}

func (w *fpdfWriter) Finish() ([]byte, int, error) {
	pages := w.pdf.PageCount()
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), pages, nil
}
