package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/zombor/pdfswift/internal/document"
)

// StatusShareCancelled is returned by a share target when the user dismissed the sheet
const StatusShareCancelled = 499

// DefaultShareMaxBytes caps the size of a shareable artifact
const DefaultShareMaxBytes = 50 << 20

// Unavailable is a Sharer for platforms without a share capability
type Unavailable struct{}

func (Unavailable) CanShare(*document.Artifact) bool { return false }

func (Unavailable) Share(context.Context, *document.Artifact) error {
	return fmt.Errorf("sharing is not available")
}

// WebhookSharer shares artifacts by posting them to a share target as a multipart form
// with the fields title, text and file.
type WebhookSharer struct {
	url      string
	maxBytes int64
	client   *http.Client
}

// NewWebhookSharer creates a sharer posting to url. A maxBytes of zero uses
// DefaultShareMaxBytes.
func NewWebhookSharer(url string, maxBytes int64, timeout time.Duration) *WebhookSharer {
	if maxBytes <= 0 {
		maxBytes = DefaultShareMaxBytes
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute // the user may keep the share sheet open
	}
	return &WebhookSharer{
		url:      url,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: timeout},
	}
}

// CanShare requires a configured target and an artifact within the size limit
func (s *WebhookSharer) CanShare(artifact *document.Artifact) bool {
	return s.url != "" && artifact != nil && artifact.Size() > 0 && artifact.Size() <= s.maxBytes
}

// shareResponse is the optional JSON body a share target answers with
type shareResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Share posts the artifact and waits for the target to report the user's choice
func (s *WebhookSharer) Share(ctx context.Context, artifact *document.Artifact) error {
	body, contentType, err := shareForm(artifact)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, body)
	if err != nil {
		return fmt.Errorf("creating share request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling share target: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var sr shareResponse
	_ = json.Unmarshal(raw, &sr)

	if resp.StatusCode == StatusShareCancelled || strings.EqualFold(sr.Status, "cancelled") {
		return fmt.Errorf("%w: %s", ErrShareCancelled, sr.Reason)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("share target error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

func shareForm(artifact *document.Artifact) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("title", ShareTitle); err != nil {
		return nil, "", fmt.Errorf("writing share form: %w", err)
	}
	if err := mw.WriteField("text", ShareText); err != nil {
		return nil, "", fmt.Errorf("writing share form: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, artifact.Filename))
	h.Set("Content-Type", artifact.MimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("writing share form: %w", err)
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, "", fmt.Errorf("writing share form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("writing share form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
