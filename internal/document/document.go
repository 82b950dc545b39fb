// Package document lays out captures and text on fixed-size pages and renders them
// to PDF through an Authoring implementation.
package document

import (
	"fmt"

	"github.com/zombor/pdfswift/internal/imaging"
)

// MimeType is the content type of every artifact this package produces
const MimeType = "application/pdf"

// PageKind identifies what a Page holds
type PageKind string

const (
	PageImage PageKind = "image"
	PageText  PageKind = "text"
)

// Page is one entry of a Document. Image pages use Image; text pages use Title and Body.
type Page struct {
	Kind  PageKind
	Image imaging.Image
	Title string
	Body  string
}

// ImagePage returns an image page for img
func ImagePage(img imaging.Image) Page {
	return Page{Kind: PageImage, Image: img}
}

// TextPage returns a text page. The body reflows onto as many sheets as it needs.
func TextPage(title, body string) Page {
	return Page{Kind: PageText, Title: title, Body: body}
}

// Document is an ordered sequence of pages. Kinds may be mixed.
type Document struct {
	Pages []Page
}

// Artifact is a finished PDF ready for delivery
type Artifact struct {
	Data     []byte `json:"-"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Pages    int    `json:"pages"`
}

// Size returns the artifact size in bytes
func (a *Artifact) Size() int64 {
	return int64(len(a.Data))
}

// WithFilename returns a copy of the artifact under a different name
func (a *Artifact) WithFilename(name string) *Artifact {
	cp := *a
	cp.Filename = name
	return &cp
}

// DocumentConstructionError reports an input that could not be laid out or rendered.
// No partial document is ever returned alongside it.
type DocumentConstructionError struct {
	Reason string
	Err    error
}

func (e *DocumentConstructionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document construction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("document construction failed: %s", e.Reason)
}

func (e *DocumentConstructionError) Unwrap() error {
	return e.Err
}

func constructionError(err error, format string, args ...any) *DocumentConstructionError {
	return &DocumentConstructionError{Reason: fmt.Sprintf(format, args...), Err: err}
}
