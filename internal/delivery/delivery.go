// Package delivery hands finished artifacts to the user: shared through a share target
// when one is available, otherwise saved locally.
package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/zombor/pdfswift/internal/document"
)

// Share metadata attached to every shared artifact
const (
	ShareTitle = "Share PDF"
	ShareText  = "Sent from PDF Swift"
)

// Mode selects how an artifact is delivered
type Mode string

const (
	ModeShare Mode = "share"
	ModeSave  Mode = "save"
)

// ParseMode maps a request value to a Mode. Empty selects share.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "share":
		return ModeShare, nil
	case "save", "download":
		return ModeSave, nil
	default:
		return "", fmt.Errorf("unknown delivery mode %q (valid: share, save)", s)
	}
}

// Outcome records what happened to an artifact
type Outcome string

const (
	OutcomeShared                 Outcome = "shared"
	OutcomeSaved                  Outcome = "saved"
	OutcomeSavedAfterShareFailure Outcome = "saved_after_share_failure"
	OutcomeSavedShareUnavailable  Outcome = "saved_share_unavailable"
	OutcomeCancelled              Outcome = "cancelled"
)

// Delivery is the result of Dispatcher.Deliver. DocumentID is set when the artifact
// was saved.
type Delivery struct {
	Outcome    Outcome `json:"outcome"`
	DocumentID string  `json:"document_id,omitempty"`
}

// Saved reports whether the artifact ended up in local storage
func (d Delivery) Saved() bool {
	return d.DocumentID != ""
}

// Sharer is the native share capability
type Sharer interface {
	// CanShare reports whether artifact can be shared at all
	CanShare(artifact *document.Artifact) bool
	Share(ctx context.Context, artifact *document.Artifact) error
}

// Saver is the local save capability. It returns the saved document's ID.
type Saver interface {
	Save(ctx context.Context, artifact *document.Artifact) (string, error)
}
