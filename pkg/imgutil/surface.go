package imgutil

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// Surface はパディングとクロップが必要とする最小限の 2D 描画機能です。
type Surface interface {
	Bounds() image.Rectangle
	// Fill はサーフェス全体を c で塗りつぶします。
	Fill(c color.Color)
	// DrawRegion は src の srcRect を等倍のまま dst を左上としてコピーします。
	// ブレンドは行わず、画素をそのまま上書きします。
	DrawRegion(src image.Image, srcRect image.Rectangle, dst image.Point)
	Image() image.Image
	Encode(w io.Writer, mimeType string) error
}

// nrgbaSurface は imaging の NRGBA バッファを使う Surface 実装です。
type nrgbaSurface struct {
	img *image.NRGBA
}

// NewSurface は width x height の透明なサーフェスを作成します。
func NewSurface(width, height int) Surface {
	return &nrgbaSurface{img: imaging.New(width, height, color.Transparent)}
}

func (s *nrgbaSurface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *nrgbaSurface) Fill(c color.Color) {
	b := s.img.Bounds()
	s.img = imaging.New(b.Dx(), b.Dy(), c)
}

func (s *nrgbaSurface) DrawRegion(src image.Image, srcRect image.Rectangle, dst image.Point) {
	region := imaging.Crop(src, srcRect)
	target := image.Rectangle{Min: dst, Max: dst.Add(region.Bounds().Size())}.Intersect(s.img.Bounds())
	if target.Empty() {
		return
	}
	rowBytes := target.Dx() * 4
	for y := target.Min.Y; y < target.Max.Y; y++ {
		di := s.img.PixOffset(target.Min.X, y)
		si := region.PixOffset(target.Min.X-dst.X, y-dst.Y)
		copy(s.img.Pix[di:di+rowBytes], region.Pix[si:si+rowBytes])
	}
}

func (s *nrgbaSurface) Image() image.Image {
	return s.img
}

func (s *nrgbaSurface) Encode(w io.Writer, mimeType string) error {
	return Encode(w, s.img, mimeType)
}
