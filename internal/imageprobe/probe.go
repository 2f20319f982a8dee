// Package imageprobe reads image dimensions from a PNG header without
// decoding the image.
package imageprobe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// headerLen covers the 8-byte signature, the IHDR length and tag, and the
// width and height fields.
const headerLen = 24

// ErrTooShort is returned when fewer than 24 bytes are available.
var ErrTooShort = errors.New("image header too short")

// Dimensions returns the width and height stored in the IHDR chunk of the
// image at path.
func Dimensions(path string) (width, height uint32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return DimensionsReader(f)
}

// DimensionsReader is Dimensions over an arbitrary reader.
func DimensionsReader(r io.Reader) (width, height uint32, err error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, 0, ErrTooShort
		}
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}

	width = binary.BigEndian.Uint32(header[16:20])
	height = binary.BigEndian.Uint32(header[20:24])
	return width, height, nil
}
