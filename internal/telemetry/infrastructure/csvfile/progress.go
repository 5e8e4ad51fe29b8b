package csvfile

import (
	"io"
	"os"
)

// Progress tracks bytes read across a batch of files.
type Progress interface {
	Start(label string, total int64)
	Add(n int64)
	Finish()
}

type noProgress struct{}

func (noProgress) Start(string, int64) {}
func (noProgress) Add(int64)           {}
func (noProgress) Finish()             {}

type countingReader struct {
	r        io.Reader
	progress Progress
}

func (c countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.progress.Add(int64(n))
	}
	return n, err
}

func totalSize(paths []string) int64 {
	var total int64
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}
