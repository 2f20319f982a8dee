package imageprobe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func pngHeader(w, h uint32) []byte {
	buf := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
	buf = binary.BigEndian.AppendUint32(buf, w)
	buf = binary.BigEndian.AppendUint32(buf, h)
	return append(buf, 8, 6, 0, 0, 0)
}

func TestDimensionsReader(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantWidth  uint32
		wantHeight uint32
		wantErr    error
	}{
		{"small sprite", pngHeader(32, 48), 32, 48, nil},
		{"large atlas", pngHeader(4096, 2048), 4096, 2048, nil},
		{"exactly 24 bytes", pngHeader(1, 2)[:24], 1, 2, nil},
		{"truncated", pngHeader(1, 2)[:23], 0, 0, ErrTooShort},
		{"empty", nil, 0, 0, ErrTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := DimensionsReader(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("dimensions = %dx%d, want %dx%d", w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sprite.png")
	if err := os.WriteFile(p, pngHeader(64, 16), 0644); err != nil {
		t.Fatal(err)
	}

	w, h, err := Dimensions(p)
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if w != 64 || h != 16 {
		t.Errorf("Dimensions() = %dx%d, want 64x16", w, h)
	}

	if _, _, err := Dimensions(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
