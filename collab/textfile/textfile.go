// Package textfile reads plain-text content files from disk.
package textfile

import (
	"fmt"
	"os"
)

// Reader implements content.TextReader.
type Reader struct{}

// New returns a ready-to-use Reader.
func New() Reader {
	return Reader{}
}

// ReadText returns the full contents of the file at path.
func (Reader) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file %q: %w", path, err)
	}
	return string(data), nil
}
