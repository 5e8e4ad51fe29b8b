package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"aircombine/internal/analytics/application"
)

// CheckExisting returns ErrOutputExists naming every sink file already present
// in dir.
func CheckExisting(dir string, sinks []application.Sink) error {
	var present []string
	for _, sink := range sinks {
		_, err := os.Stat(filepath.Join(dir, sink.Name()))
		switch {
		case err == nil:
			present = append(present, sink.Name())
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	if len(present) == 0 {
		return nil
	}
	return fmt.Errorf("%w in %s: %s", ErrOutputExists, dir, strings.Join(present, ", "))
}
