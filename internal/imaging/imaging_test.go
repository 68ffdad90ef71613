package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 37), G: uint8(y * 53), B: 0x7f, A: 0xff})
		}
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestUpscale_DoublesDimensions(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
	}{
		{"square", 64, 64},
		{"wide", 275, 116},
		{"single pixel", 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asset, err := Upscale(encodePNG(t, tc.width, tc.height))
			if err != nil {
				t.Fatalf("Upscale: %v", err)
			}
			if asset.Width != tc.width*Factor || asset.Height != tc.height*Factor {
				t.Errorf("got %dx%d, want %dx%d", asset.Width, asset.Height, tc.width*Factor, tc.height*Factor)
			}

			decoded, _, err := image.Decode(bytes.NewReader(asset.Data))
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if got := decoded.Bounds(); got.Dx() != asset.Width || got.Dy() != asset.Height {
				t.Errorf("encoded dimensions %dx%d do not match asset %dx%d", got.Dx(), got.Dy(), asset.Width, asset.Height)
			}
		})
	}
}

func TestUpscale_Deterministic(t *testing.T) {
	input := encodePNG(t, 32, 12)

	first, err := Upscale(input)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := Upscale(input)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if !bytes.Equal(first.Data, second.Data) {
		t.Error("same input produced different output bytes")
	}
}

func TestUpscale_PreservesNearestNeighborEdges(t *testing.T) {
	// A 2x1 image with two distinct pixels must upscale to four pixels of
	// the left color followed by four of the right, no blending.
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})
	img.Set(1, 0, color.RGBA{B: 0xff, A: 0xff})

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	asset, err := Upscale(buf.Bytes())
	if err != nil {
		t.Fatalf("Upscale: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	left := color.RGBAModel.Convert(decoded.At(1, 1)).(color.RGBA)
	right := color.RGBAModel.Convert(decoded.At(2, 1)).(color.RGBA)
	if left.R != 0xff || left.B != 0 {
		t.Errorf("left half blended: %+v", left)
	}
	if right.B != 0xff || right.R != 0 {
		t.Errorf("right half blended: %+v", right)
	}
}

func TestUpscale_RejectsNonImage(t *testing.T) {
	_, err := Upscale([]byte("not an image"))
	if err == nil {
		t.Fatal("expected error for non-image input")
	}

	var decodeErr DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("expected DecodeError, got %T: %v", err, err)
	}
}
