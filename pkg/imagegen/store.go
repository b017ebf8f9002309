package imagegen

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"
	"github.com/segmentio/ksuid"
)

var ErrNotDataURI = errors.New("not a base64 data uri")

// DecodeDataURI returns the bytes of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrNotDataURI
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrNotDataURI
	}
	return base64.StdEncoding.DecodeString(data)
}

// SaveWebP decodes a PNG or JPEG image and writes it to dir as a WebP file
// with a unique name. It returns the file name.
func SaveWebP(dir string, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 90}); err != nil {
		return "", fmt.Errorf("failed to encode webp: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}
	name := ksuid.New().String() + ".webp"
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return name, nil
}
