package imageset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/ssim-matrix/internal/grid"
)

// ErrDecode is returned when a file exists but is not a decodable raster image.
var ErrDecode = errors.New("failed to decode image")

// ITU-R BT.709 luma weights.
const (
	lumaR = 0.2125
	lumaG = 0.7154
	lumaB = 0.0721
)

// LoadGray reads the image at path and converts it to float grayscale in [0, 1].
func LoadGray(path string) (grid.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("failed to read image: %w", err)
	}
	g, err := DecodeGray(data)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// DecodeGray decodes an encoded image and converts it to float grayscale.
func DecodeGray(data []byte) (grid.Grid, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return grid.Grid{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return ToGray(img), nil
}

// ToGray converts an image to a float grid. Single-channel images are scaled
// by their bit depth; colour images are reduced to luminance and alpha is
// ignored.
func ToGray(img image.Image) grid.Grid {
	bounds := img.Bounds()
	g := grid.New(bounds.Dx(), bounds.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				g.Set(x-bounds.Min.X, y-bounds.Min.Y, float64(src.GrayAt(x, y).Y)/0xFF)
			}
		}
	case *image.Gray16:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				g.Set(x-bounds.Min.X, y-bounds.Min.Y, float64(src.Gray16At(x, y).Y)/0xFFFF)
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
				luma := lumaR*float64(c.R) + lumaG*float64(c.G) + lumaB*float64(c.B)
				g.Set(x-bounds.Min.X, y-bounds.Min.Y, min(luma/0xFFFF, 1))
			}
		}
	}

	return g
}
