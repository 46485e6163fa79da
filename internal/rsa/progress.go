package rsa

import (
	"sync"

	"github.com/nao1215/pngcipher/internal/model"
)

// DefaultProgressThreshold is the minimum advance, as a fraction, between
// two progress deliveries.
const DefaultProgressThreshold = 0.005

// progress folds block completions from any number of workers into a
// throttled, monotonic sequence of fractions.
type progress struct {
	mu        sync.Mutex
	fn        model.ProgressFunc
	threshold float64
	total     int
	done      int
	last      float64
}

func newProgress(fn model.ProgressFunc, threshold float64, total int) *progress {
	return &progress{fn: fn, threshold: threshold, total: total}
}

// add records n finished blocks and delivers the new fraction when it has
// advanced by at least the threshold, or when all blocks are done.
func (p *progress) add(n int) {
	if p.fn == nil || p.total == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += n
	fraction := float64(p.done) / float64(p.total)
	finished := p.done >= p.total
	if finished {
		fraction = 1
	}
	if (finished && p.last < 1) || fraction-p.last >= p.threshold {
		p.last = fraction
		p.fn(fraction)
	}
}
