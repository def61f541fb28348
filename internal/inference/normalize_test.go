package inference_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/renalworks/nephroscan/internal/inference"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solidImage(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(t, img)
}

func TestNormalizeRejectsEmptyInput(t *testing.T) {
	_, err := inference.Normalize(nil)
	if !errors.Is(err, inference.ErrInvalidImage) {
		t.Errorf("error = %v, want ErrInvalidImage", err)
	}
}

func TestNormalizeRejectsUndecodableInput(t *testing.T) {
	_, err := inference.Normalize([]byte("not an image"))
	if !errors.Is(err, inference.ErrInvalidImage) {
		t.Errorf("error = %v, want ErrInvalidImage", err)
	}
}

func TestNormalizeShape(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"exact size", 150, 150},
		{"larger", 512, 512},
		{"smaller", 64, 64},
		{"non-square", 300, 200},
	}

	want := []int64{1, 150, 150, 3}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := solidImage(t, tt.w, tt.h, color.RGBA{R: 128, G: 64, B: 32, A: 255})

			tensor, err := inference.Normalize(raw)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}

			if len(tensor.Shape) != len(want) {
				t.Fatalf("shape = %v, want %v", tensor.Shape, want)
			}
			for i := range want {
				if tensor.Shape[i] != want[i] {
					t.Fatalf("shape = %v, want %v", tensor.Shape, want)
				}
			}

			if len(tensor.Data) != 150*150*3 {
				t.Errorf("data length = %d, want %d", len(tensor.Data), 150*150*3)
			}
		})
	}
}

func TestNormalizeValueRange(t *testing.T) {
	raw := solidImage(t, 200, 200, color.RGBA{R: 255, G: 0, B: 127, A: 255})

	tensor, err := inference.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	for i, v := range tensor.Data {
		if v < 0.0 || v > 1.0 {
			t.Fatalf("data[%d] = %f, want within [0,1]", i, v)
		}
	}
}

func TestNormalizeBlackImage(t *testing.T) {
	raw := solidImage(t, 150, 150, color.RGBA{A: 255})

	tensor, err := inference.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	for i, v := range tensor.Data {
		if v != 0 {
			t.Fatalf("data[%d] = %f, want 0 for black input", i, v)
		}
	}
}

func TestNormalizeWhiteImage(t *testing.T) {
	raw := solidImage(t, 150, 150, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	tensor, err := inference.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	for i, v := range tensor.Data {
		if v != 1.0 {
			t.Fatalf("data[%d] = %f, want 1 for white input", i, v)
		}
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 7) % 256),
				G: uint8((y * 13) % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	raw := encodePNG(t, img)

	first, err := inference.Normalize(raw)
	if err != nil {
		t.Fatalf("first normalize: %v", err)
	}

	second, err := inference.Normalize(raw)
	if err != nil {
		t.Fatalf("second normalize: %v", err)
	}

	for i := range first.Data {
		if first.Data[i] != second.Data[i] {
			t.Fatalf("data[%d] differs between runs: %f vs %f", i, first.Data[i], second.Data[i])
		}
	}
}
