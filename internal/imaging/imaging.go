// Package imaging prepares skin screenshots for upload. Museum screenshots
// are small iconographic rasters, so upscaling keeps hard pixel edges instead
// of smoothing them.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// Factor is the fixed integer upscale applied to every screenshot.
const Factor = 2

// Asset is a transcoded image buffer plus its pixel dimensions.
type Asset struct {
	Data   []byte
	Width  int
	Height int
}

// DecodeError is returned when the input bytes are not a decodable raster image.
type DecodeError struct {
	Err error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("decode image: %s", e.Err)
}

func (e DecodeError) Unwrap() error { return e.Err }

// Upscale decodes raw image bytes, scales them by Factor with a
// nearest-neighbor kernel and re-encodes the result as PNG.
func Upscale(data []byte) (*Asset, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, DecodeError{Err: err}
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*Factor, bounds.Dy()*Factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &Asset{
		Data:   buf.Bytes(),
		Width:  dst.Bounds().Dx(),
		Height: dst.Bounds().Dy(),
	}, nil
}
