package console

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// Progress renders a byte-counting progress bar for each batch of files a
// loader reads. A nil writer disables rendering.
type Progress struct {
	mu  sync.Mutex
	w   io.Writer
	bar *pb.ProgressBar
}

// NewProgress renders onto w, typically os.Stderr.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

// Start opens a bar of total bytes labelled label, closing any open bar.
func (p *Progress) Start(label string, total int64) {
	if p == nil || p.w == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
	}
	p.bar = pb.New64(total).
		SetWriter(p.w).
		Set(pb.Bytes, true).
		Set("prefix", label+" ")
	p.bar.Start()
}

// Add advances the open bar by n bytes.
func (p *Progress) Add(n int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Add64(n)
	}
}

// Finish closes the open bar.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}

// Current returns the bytes counted by the open bar.
func (p *Progress) Current() int64 {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return 0
	}
	return p.bar.Current()
}
