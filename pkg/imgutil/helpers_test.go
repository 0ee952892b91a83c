package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

// patternColor は座標ごとに異なる不透明色を返す（黒は含まない）。
func patternColor(x, y int) color.NRGBA {
	return color.NRGBA{
		R: uint8(40 + (x*7)%200),
		G: uint8(40 + (y*11)%200),
		B: uint8(40 + ((x+y)*3)%200),
		A: 255,
	}
}

// createPatternImage はテスト用の模様入り画像を作成するヘルパー
func createPatternImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, patternColor(x, y))
		}
	}
	return img
}

func encodeImage(t *testing.T, img image.Image, format string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode dummy image: %v", err)
	}
	return buf.Bytes()
}

func createSource(t *testing.T, w, h int) domain.SourceImage {
	t.Helper()
	src, err := NewSource("pattern.png", encodeImage(t, createPatternImage(w, h), "png"))
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}
	return src
}

func decodeNRGBA(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode output image: %v", err)
	}
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	b := img.Bounds()
	return color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
