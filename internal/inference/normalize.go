package inference

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// Model input geometry. The classifier was trained on 150x150 RGB crops with
// channel values scaled to [0,1]; these constants mirror that contract.
const (
	InputSize     = 150
	InputChannels = 3
)

// Tensor is a dense float32 tensor in NHWC layout.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// InputShape returns the tensor shape the classifier expects: one batch of a
// 150x150 RGB image.
func InputShape() []int64 {
	return []int64{1, InputSize, InputSize, InputChannels}
}

// Normalize decodes raw image bytes and converts them to model input form:
// resized to 150x150 with Lanczos3, 3-channel HWC float32 scaled from [0,255]
// to [0.0,1.0], with a leading batch axis of 1.
//
// Normalization is deterministic: identical input bytes yield bit-identical
// tensors. Empty or undecodable input is rejected with ErrInvalidImage.
func Normalize(raw []byte) (*Tensor, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidImage)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	resized := resize.Resize(InputSize, InputSize, img, resize.Lanczos3)

	data := make([]float32, InputSize*InputSize*InputChannels)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()

			// RGBA returns 16-bit channels; shift down to 8-bit before scaling.
			i := (y*InputSize + x) * InputChannels
			data[i] = float32(r>>8) / 255.0
			data[i+1] = float32(g>>8) / 255.0
			data[i+2] = float32(b>>8) / 255.0
		}
	}

	return &Tensor{
		Data:  data,
		Shape: InputShape(),
	}, nil
}
