package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestReadMediaTranscodesPNGToJPEG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.png")

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tc := New()
	data, err := tc.ReadMedia(path)
	if err != nil {
		t.Fatalf("ReadMedia: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("output does not look like a JPEG: % x", data[:minInt(len(data), 8)])
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
