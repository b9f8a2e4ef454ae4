// Package imaging loads a media file from disk and transcodes it to JPEG
// for transmission. No library in this stack does arbitrary-format-to-JPEG
// transcoding (only EXIF extraction shows up elsewhere), so this is one of
// the few places image/jpeg from the standard library is used directly
// rather than through a third-party wrapper.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
)

// Transcoder implements content.MediaReader.
type Transcoder struct {
	Quality int
}

// New returns a Transcoder using a reasonable default JPEG quality.
func New() Transcoder {
	return Transcoder{Quality: 90}
}

// ReadMedia decodes the image at path (JPEG, PNG, or GIF) and re-encodes
// it as JPEG bytes.
func (t Transcoder) ReadMedia(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open media file %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", path, err)
	}

	quality := t.Quality
	if quality == 0 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg for %q: %w", path, err)
	}
	return buf.Bytes(), nil
}
