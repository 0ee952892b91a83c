package imgutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

// PlanCrop は gen を target 比率へ中央クロップする矩形を返します。
// 既に比率が一致している場合は ok=false です。
func PlanCrop(gen domain.Dimensions, target float64) (image.Rectangle, bool, error) {
	if !gen.Valid() {
		return image.Rectangle{}, false, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, gen.Width, gen.Height)
	}
	if !validRatio(target) {
		return image.Rectangle{}, false, fmt.Errorf("%w: %v", ErrInvalidRatio, target)
	}

	full := image.Rect(0, 0, gen.Width, gen.Height)
	ratio := gen.Ratio()
	if ratioEqual(ratio, target) {
		return full, false, nil
	}

	var rect image.Rectangle
	if ratio > target {
		// 横に長すぎる: 高さを保って幅を削る
		w := clamp(int(math.Round(float64(gen.Height)*target)), 1, gen.Width)
		x := int(math.Round(float64(gen.Width-w) / 2))
		rect = image.Rect(x, 0, x+w, gen.Height)
	} else {
		// 縦に長すぎる: 幅を保って高さを削る
		h := clamp(int(math.Round(float64(gen.Width)/target)), 1, gen.Height)
		y := int(math.Round(float64(gen.Height-h) / 2))
		rect = image.Rect(0, y, gen.Width, y+h)
	}
	if rect == full {
		return full, false, nil
	}
	return rect, true, nil
}

// Crop は生成画像を target 比率（元画像の比率）に中央クロップします。
// 画素は等倍のまま切り出し、拡大縮小は行いません。
// 比率が一致している場合は生成画像のバイト列をそのまま Cropped=false で返します。
// デコードできない場合は ErrDecode を返すので、呼び出し側は元の生成画像を表示してください。
func Crop(ctx context.Context, gen domain.GeneratedImage, target float64) (*domain.CroppedImage, error) {
	dims, detected, err := DecodeDimensions(gen.Data)
	if err != nil {
		return nil, err
	}

	rect, ok, err := PlanCrop(dims, target)
	if err != nil {
		return nil, err
	}
	mimeType := gen.MimeType
	if mimeType == "" {
		mimeType = detected
	}
	if !ok {
		return &domain.CroppedImage{
			Data:       gen.Data,
			MimeType:   mimeType,
			Dimensions: dims,
			Cropped:    false,
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := Decode(gen.Data)
	if err != nil {
		return nil, err
	}

	surface := NewSurface(rect.Dx(), rect.Dy())
	surface.DrawRegion(img, rect.Add(img.Bounds().Min), image.Point{})

	outMime := ReencodableMimeType(mimeType)
	buf := new(bytes.Buffer)
	if err := surface.Encode(buf, outMime); err != nil {
		return nil, err
	}

	return &domain.CroppedImage{
		Data:       buf.Bytes(),
		MimeType:   outMime,
		Dimensions: domain.Dimensions{Width: rect.Dx(), Height: rect.Dy()},
		Cropped:    true,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
