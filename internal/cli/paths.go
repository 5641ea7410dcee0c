package cli

import (
	"io"
	"os"
)

// openOutput opens the output file for writing, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// nopCloser wraps a writer with a no-op Close so stdout survives the
// deferred close that file outputs need.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
