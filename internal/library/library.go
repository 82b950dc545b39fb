// Package library keeps saved PDFs on local disk with a bbolt index.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/pdfswift/internal/document"
)

// ErrNotFound is returned when no document has the requested ID
var ErrNotFound = errors.New("document not found")

// Document is the index record of a saved PDF
type Document struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	StoredAs  string    `json:"stored_as"`
	Size      int64     `json:"size"`
	Pages     int       `json:"pages"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

// IDGenerator generates unique IDs for documents
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Library saves, lists and removes documents
type Library struct {
	db          DB
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// New creates a Library with random UUIDs and the wall clock
func New(db DB, storage Storage) *Library {
	return NewWithDeps(db, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewWithDeps creates a Library with custom dependencies for testing
func NewWithDeps(db DB, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Library {
	return &Library{
		db:          db,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Save writes the artifact to storage and indexes it. It returns the new document ID.
func (l *Library) Save(ctx context.Context, artifact *document.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := l.idGenerator.Generate()
	filename := document.SanitizeFilename(artifact.Filename)

	storedAs, err := l.storage.Save(fmt.Sprintf("%s_%s", id, filename), artifact.Data)
	if err != nil {
		return "", fmt.Errorf("saving file: %w", err)
	}

	doc := &Document{
		ID:        id,
		Filename:  filename,
		StoredAs:  storedAs,
		Size:      artifact.Size(),
		Pages:     artifact.Pages,
		MimeType:  artifact.MimeType,
		CreatedAt: l.timeSource.Now(),
	}
	if doc.MimeType == "" {
		doc.MimeType = document.MimeType
	}

	if err := l.db.SaveDocument(doc); err != nil {
		// Clean up file if database save fails
		if delErr := l.storage.Delete(storedAs); delErr != nil {
			slog.Warn("Failed to remove orphaned file", "filename", storedAs, "error", delErr)
		}
		return "", fmt.Errorf("saving document to database: %w", err)
	}

	return id, nil
}

// Get retrieves a document by ID
func (l *Library) Get(id string) (*Document, error) {
	doc, err := l.db.GetDocument(id)
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// List returns all documents, newest first
func (l *Library) List() ([]*Document, error) {
	docs, err := l.db.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// File returns a document record together with its bytes
func (l *Library) File(id string) (*Document, []byte, error) {
	doc, err := l.db.GetDocument(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting document: %w", err)
	}

	data, err := l.storage.Get(doc.StoredAs)
	if err != nil {
		return nil, nil, fmt.Errorf("getting document file: %w", err)
	}
	return doc, data, nil
}

// Delete removes a document and its file. A file that cannot be removed is logged and
// the record is deleted anyway.
func (l *Library) Delete(id string) error {
	doc, err := l.db.GetDocument(id)
	if err != nil {
		return fmt.Errorf("getting document for deletion: %w", err)
	}

	if err := l.storage.Delete(doc.StoredAs); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", doc.StoredAs, "error", err)
	}

	if err := l.db.DeleteDocument(id); err != nil {
		return fmt.Errorf("deleting document from database: %w", err)
	}
	return nil
}
