package ocr

import (
	"math"
	"sync"
)

// progressTracker forwards worker progress to the caller, clamped to [0, 1] and never
// moving backwards.
type progressTracker struct {
	mu   sync.Mutex
	last float64
	sent bool
	fn   ProgressFunc
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn}
}

func (p *progressTracker) report(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = max(0, min(1, v))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent && v <= p.last {
		return
	}
	p.last = v
	p.sent = true
	if p.fn != nil {
		p.fn(v)
	}
}

func (p *progressTracker) finish() {
	p.report(1)
}
