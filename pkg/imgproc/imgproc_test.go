package imgproc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecodePNGAndJPEG(t *testing.T) {
	src := solidImage(10, 10, color.RGBA{R: 255, A: 255})

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, src); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(pngBuf.Bytes()); err != nil {
		t.Errorf("Decode(png) error: %v", err)
	}

	var jpgBuf bytes.Buffer
	if err := jpeg.Encode(&jpgBuf, src, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(jpgBuf.Bytes()); err != nil {
		t.Errorf("Decode(jpeg) error: %v", err)
	}

	if _, err := Decode([]byte("definitely not an image")); err == nil {
		t.Error("Decode must reject garbage input")
	}
}

func TestCrop(t *testing.T) {
	src := solidImage(100, 50, color.RGBA{G: 255, A: 255})

	out := Crop(src, image.Rect(10, 10, 40, 30))
	if got := out.Bounds(); got.Dx() != 30 || got.Dy() != 20 {
		t.Errorf("cropped size = %dx%d, want 30x20", got.Dx(), got.Dy())
	}

	// 越界矩形被裁到图像边界
	out = Crop(src, image.Rect(80, 40, 200, 200))
	if got := out.Bounds(); got.Dx() != 20 || got.Dy() != 10 {
		t.Errorf("clamped size = %dx%d, want 20x10", got.Dx(), got.Dy())
	}
}

func TestDownscaleToWidth(t *testing.T) {
	src := solidImage(4000, 2000, color.RGBA{B: 255, A: 255})

	out := DownscaleToWidth(src, 1920)
	if got := out.Bounds(); got.Dx() != 1920 || got.Dy() != 960 {
		t.Errorf("scaled size = %dx%d, want 1920x960", got.Dx(), got.Dy())
	}

	// 不超宽时原样返回
	small := solidImage(800, 600, color.RGBA{B: 255, A: 255})
	if out := DownscaleToWidth(small, 1920); out != image.Image(small) {
		t.Error("image narrower than the limit must be returned unchanged")
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	src := solidImage(8, 8, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG error: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("encoded data is not valid PNG: %v", err)
	}
	if got := decoded.Bounds(); got.Dx() != 8 || got.Dy() != 8 {
		t.Errorf("decoded size = %dx%d, want 8x8", got.Dx(), got.Dy())
	}
}
