package imgutil

import (
	"errors"
	"fmt"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

var (
	// ErrInvalidDimensions は幅または高さが 0 以下（デコード結果が不正）の場合のエラーです。
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	// ErrInvalidRatio は比率が有限の正数でない場合のエラーです。
	ErrInvalidRatio = errors.New("invalid aspect ratio")
	// ErrDecode は画像のデコードに失敗した場合のエラーです。
	ErrDecode = errors.New("image decode failed")
	// ErrUnsupportedFormat はエンコード先として扱えない MIME タイプです。
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrCanvasTooLarge はパディング後のキャンバスが画素数上限を超える場合のエラーです。
	ErrCanvasTooLarge = errors.New("padded canvas exceeds pixel limit")
)

// CanvasTooLargeError は上限を超えたキャンバス寸法を保持します。
// errors.Is(err, ErrCanvasTooLarge) で判定できます。
type CanvasTooLargeError struct {
	Canvas domain.Dimensions
	Limit  int64
}

func (e *CanvasTooLargeError) Error() string {
	return fmt.Sprintf("%s: %dx%d (%d px > %d px)",
		ErrCanvasTooLarge, e.Canvas.Width, e.Canvas.Height, e.Canvas.Pixels(), e.Limit)
}

func (e *CanvasTooLargeError) Is(target error) bool {
	return target == ErrCanvasTooLarge
}
