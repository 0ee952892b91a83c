package imgutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

// MaxCanvasPixels はパディング後キャンバスの画素数上限（約 28MP）です。
// 極端に細長い画像から巨大なキャンバスを確保しないための安全弁です。
const MaxCanvasPixels int64 = 28_000_000

// ratioEpsilon は比率を「等しい」とみなす相対誤差です。
const ratioEpsilon = 1e-9

// PadBlack はパディング領域の色です。
var PadBlack = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// PadPlan はパディング後のキャンバス寸法と元画像の配置位置です。
type PadPlan struct {
	Canvas domain.Dimensions
	Offset image.Point
}

// Padder は元画像を拡大・縮小せずに黒帯で囲み、指定比率のキャンバスにします。
type Padder struct {
	// MaxPixels が 0 以下なら MaxCanvasPixels を使います。
	MaxPixels int64
}

func (p Padder) maxPixels() int64 {
	if p.MaxPixels > 0 {
		return p.MaxPixels
	}
	return MaxCanvasPixels
}

// Plan はキャンバス寸法を計算します。既に比率が一致している場合は ok=false を返します。
// 上限を超える場合は画像を確保する前に ErrCanvasTooLarge を返します。
func (p Padder) Plan(src domain.Dimensions, target float64) (PadPlan, bool, error) {
	if !src.Valid() {
		return PadPlan{}, false, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, src.Width, src.Height)
	}
	if !validRatio(target) {
		return PadPlan{}, false, fmt.Errorf("%w: %v", ErrInvalidRatio, target)
	}

	ratio := src.Ratio()
	if ratioEqual(ratio, target) {
		return PadPlan{}, false, nil
	}

	canvas := src
	if ratio < target {
		// 幅が足りない: 高さを固定して幅を広げる
		canvas.Width = int(math.Round(float64(src.Height) * target))
	} else {
		// 高さが足りない: 幅を固定して高さを広げる
		canvas.Height = int(math.Round(float64(src.Width) / target))
	}
	if canvas.Width < src.Width {
		canvas.Width = src.Width
	}
	if canvas.Height < src.Height {
		canvas.Height = src.Height
	}
	if canvas == src {
		return PadPlan{}, false, nil
	}

	if limit := p.maxPixels(); canvas.Pixels() > limit {
		return PadPlan{}, false, &CanvasTooLargeError{Canvas: canvas, Limit: limit}
	}

	offset := image.Point{
		X: int(math.Round(float64(canvas.Width-src.Width) / 2)),
		Y: int(math.Round(float64(canvas.Height-src.Height) / 2)),
	}
	return PadPlan{Canvas: canvas, Offset: offset}, true, nil
}

// Pad は src を target 比率のキャンバス中央に等倍で配置し、周囲を純黒で埋めた PNG を返します。
// 比率が既に一致している場合は (nil, nil) を返すので、呼び出し側は元画像をそのまま使ってください。
func (p Padder) Pad(ctx context.Context, src domain.SourceImage, target float64) (*domain.PreparedImage, error) {
	plan, ok, err := p.Plan(src.Dimensions, target)
	if err != nil || !ok {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := Decode(src.Data)
	if err != nil {
		return nil, err
	}

	// 申告寸法と実寸がずれていた場合は実寸で計画し直す
	if actual := dimensionsOf(img); actual != src.Dimensions {
		slog.WarnContext(ctx, "申告された寸法と実際の画像サイズが異なるため再計算します",
			"declared", fmt.Sprintf("%dx%d", src.Dimensions.Width, src.Dimensions.Height),
			"actual", fmt.Sprintf("%dx%d", actual.Width, actual.Height))
		plan, ok, err = p.Plan(actual, target)
		if err != nil || !ok {
			return nil, err
		}
	}

	surface := NewSurface(plan.Canvas.Width, plan.Canvas.Height)
	surface.Fill(PadBlack)
	surface.DrawRegion(img, img.Bounds(), plan.Offset)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := surface.Encode(buf, MimePNG); err != nil {
		return nil, err
	}

	return &domain.PreparedImage{
		Data:       buf.Bytes(),
		MimeType:   MimePNG,
		Dimensions: plan.Canvas,
		Padded:     true,
		Offset:     plan.Offset,
	}, nil
}

// Pad はデフォルト設定の Padder で Pad を実行します。
func Pad(ctx context.Context, src domain.SourceImage, target float64) (*domain.PreparedImage, error) {
	return Padder{}.Pad(ctx, src, target)
}

func validRatio(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

func ratioEqual(a, b float64) bool {
	return math.Abs(a-b) <= ratioEpsilon*b
}

func dimensionsOf(img image.Image) domain.Dimensions {
	b := img.Bounds()
	return domain.Dimensions{Width: b.Dx(), Height: b.Dy()}
}
