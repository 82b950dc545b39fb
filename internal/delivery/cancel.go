package delivery

import (
	"context"
	"errors"
	"strings"
)

// ErrShareCancelled is returned by a Sharer when the user dismissed the share
var ErrShareCancelled = errors.New("share cancelled by user")

// CancelDetector decides whether a share error means the user cancelled
type CancelDetector func(err error) bool

// IsCancelled recognizes cancellation signalled through ErrShareCancelled or a
// cancelled context
func IsCancelled(err error) bool {
	return errors.Is(err, ErrShareCancelled) || errors.Is(err, context.Canceled)
}

// MessageHeuristic additionally treats any error whose message mentions "cancel" or
// "abort" as a cancellation. Share targets that cannot return a typed signal need it.
func MessageHeuristic(err error) bool {
	if err == nil {
		return false
	}
	if IsCancelled(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cancel") || strings.Contains(msg, "abort")
}
