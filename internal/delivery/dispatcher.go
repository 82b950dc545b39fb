package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zombor/pdfswift/internal/document"
)

// Dispatcher delivers artifacts with share-then-save fallback
type Dispatcher struct {
	sharer Sharer
	saver  Saver
	// CancelDetector classifies share errors; defaults to MessageHeuristic
	CancelDetector CancelDetector
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithCancelDetector replaces the share error classifier. Pass IsCancelled to only
// accept typed cancellation signals.
func WithCancelDetector(detect CancelDetector) DispatcherOption {
	return func(d *Dispatcher) {
		if detect != nil {
			d.CancelDetector = detect
		}
	}
}

// NewDispatcher creates a dispatcher. A nil sharer behaves like Unavailable.
func NewDispatcher(sharer Sharer, saver Saver, opts ...DispatcherOption) *Dispatcher {
	if sharer == nil {
		sharer = Unavailable{}
	}
	d := &Dispatcher{
		sharer:         sharer,
		saver:          saver,
		CancelDetector: MessageHeuristic,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver shares or saves artifact. In share mode a missing capability or a failed share
// falls back to a single save, and a user cancellation ends the delivery without error.
// Only a failed save is returned as an error.
func (d *Dispatcher) Deliver(ctx context.Context, artifact *document.Artifact, mode Mode) (Delivery, error) {
	if artifact == nil {
		return Delivery{}, fmt.Errorf("no artifact to deliver")
	}

	if mode == ModeSave {
		return d.save(ctx, artifact, OutcomeSaved)
	}

	if !d.sharer.CanShare(artifact) {
		slog.Info("Sharing unavailable, saving instead", "filename", artifact.Filename)
		return d.save(ctx, artifact, OutcomeSavedShareUnavailable)
	}

	err := d.sharer.Share(ctx, artifact)
	if err == nil {
		slog.Info("Shared document", "filename", artifact.Filename, "size", artifact.Size())
		return Delivery{Outcome: OutcomeShared}, nil
	}

	detect := d.CancelDetector
	if detect == nil {
		detect = MessageHeuristic
	}
	if detect(err) {
		slog.Info("Share cancelled", "filename", artifact.Filename)
		return Delivery{Outcome: OutcomeCancelled}, nil
	}

	slog.Warn("Share failed, saving instead", "filename", artifact.Filename, "error", err)
	return d.save(context.WithoutCancel(ctx), artifact, OutcomeSavedAfterShareFailure)
}

func (d *Dispatcher) save(ctx context.Context, artifact *document.Artifact, outcome Outcome) (Delivery, error) {
	id, err := d.saver.Save(ctx, artifact)
	if err != nil {
		return Delivery{}, fmt.Errorf("saving %s: %w", artifact.Filename, err)
	}
	slog.Info("Saved document", "filename", artifact.Filename, "id", id)
	return Delivery{Outcome: outcome, DocumentID: id}, nil
}
