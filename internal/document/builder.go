package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zombor/pdfswift/internal/imaging"
)

// DefaultTitle is used when a text document is built without a title
const DefaultTitle = "Document"

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Builder turns images and text into PDF artifacts on pages of a fixed size
type Builder struct {
	authoring  Authoring
	pageSize   PageSize
	timeSource TimeSource
}

// NewBuilder creates a Builder that renders through authoring
func NewBuilder(authoring Authoring, size PageSize) *Builder {
	return NewBuilderWithDeps(authoring, size, &defaultTimeSource{})
}

// NewBuilderWithDeps creates a Builder with a custom time source for testing
func NewBuilderWithDeps(authoring Authoring, size PageSize, timeSrc TimeSource) *Builder {
	return &Builder{
		authoring:  authoring,
		pageSize:   size,
		timeSource: timeSrc,
	}
}

// PageSize returns the size of every page this builder produces
func (b *Builder) PageSize() PageSize {
	return b.pageSize
}

// BuildFromImages produces one page per image, in order, each image scaled to fit and centred
func (b *Builder) BuildFromImages(ctx context.Context, images []imaging.Image) (*Artifact, error) {
	if len(images) == 0 {
		return nil, constructionError(nil, "at least one image is required")
	}

	doc := Document{Pages: make([]Page, 0, len(images))}
	for _, img := range images {
		doc.Pages = append(doc.Pages, ImagePage(img))
	}
	return b.Build(ctx, doc, Filename("scan", b.timeSource.Now()))
}

// BuildFromText produces a document with title at the top and text reflowed beneath it.
// Empty text yields a single page holding only the title.
func (b *Builder) BuildFromText(ctx context.Context, text, title string) (*Artifact, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	doc := Document{Pages: []Page{TextPage(title, text)}}
	return b.Build(ctx, doc, Filename(title, b.timeSource.Now()))
}

// Layout computes where every image and line of doc lands without rendering anything
func (b *Builder) Layout(doc Document) (*Layout, error) {
	if len(doc.Pages) == 0 {
		return nil, constructionError(nil, "document has no pages")
	}

	layout := &Layout{PageSize: b.pageSize}
	for i, page := range doc.Pages {
		switch page.Kind {
		case PageImage:
			sheet, err := layoutImage(b.pageSize, page.Image)
			if err != nil {
				return nil, constructionError(err, "image %d cannot be measured", i+1)
			}
			layout.Sheets = append(layout.Sheets, sheet)
		case PageText:
			layout.Sheets = append(layout.Sheets, layoutText(b.pageSize, page.Title, page.Body, b.authoring)...)
		default:
			return nil, constructionError(nil, "page %d has unknown kind %q", i+1, page.Kind)
		}
	}
	return layout, nil
}

// Build lays out and renders doc. Either the whole document is produced or an error is returned.
func (b *Builder) Build(ctx context.Context, doc Document, filename string) (*Artifact, error) {
	layout, err := b.Layout(doc)
	if err != nil {
		return nil, err
	}

	info := Info{CreatedAt: b.timeSource.Now()}
	for _, page := range doc.Pages {
		if page.Kind == PageText {
			info.Title = page.Title
			break
		}
	}

	w := b.authoring.NewWriter(b.pageSize, info)
	imageIndex := 0
	for i, sheet := range layout.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("building document: %w", err)
		}

		w.AddPage()
		for _, p := range sheet.Images {
			imageIndex++
			if err := w.DrawImage(fmt.Sprintf("img-%d", imageIndex), p.Image, p.Rect); err != nil {
				return nil, constructionError(err, "image on page %d cannot be rendered", i+1)
			}
		}
		for _, line := range sheet.Lines {
			w.DrawText(line.X, line.Y, line.FontSize, line.Text)
		}
	}

	data, pages, err := w.Finish()
	if err != nil {
		return nil, constructionError(err, "serializing document")
	}

	slog.Debug("Built document", "filename", filename, "pages", pages, "size", len(data))

	return &Artifact{
		Data:     data,
		Filename: filename,
		MimeType: MimeType,
		Pages:    pages,
	}, nil
}
