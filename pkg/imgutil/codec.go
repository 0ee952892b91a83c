package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWebP = "image/webp"
	MimeGIF  = "image/gif"

	// JPEGQuality は JPEG へ再エンコードする際の品質です。
	JPEGQuality = 95
)

var formatMimeTypes = map[string]string{
	"png":  MimePNG,
	"jpeg": MimeJPEG,
	"gif":  MimeGIF,
	"webp": MimeWebP,
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// DecodeDimensions はヘッダのみを読み、画像の寸法と MIME タイプを返します。
func DecodeDimensions(data []byte) (domain.Dimensions, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.Dimensions{}, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	dims := domain.Dimensions{Width: cfg.Width, Height: cfg.Height}
	if !dims.Valid() {
		return dims, "", fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cfg.Width, cfg.Height)
	}
	return dims, mimeFromFormat(format, data), nil
}

// Decode は画像全体をデコードします。EXIF の向き補正は行いません（画素を動かさないため）。
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	return img, nil
}

// Encode は MIME タイプに応じて img を書き出します。
func Encode(w io.Writer, img image.Image, mimeType string) error {
	var err error
	switch mimeType {
	case MimePNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case MimeJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	return nil
}

// ReencodableMimeType は再エンコードでそのまま保持できる MIME タイプならそれを、
// それ以外（WebP など）はロスレスの PNG を返します。
func ReencodableMimeType(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case MimePNG:
		return MimePNG
	case MimeJPEG, "image/jpg":
		return MimeJPEG
	default:
		return MimePNG
	}
}

// NewSource はバイト列から SourceImage を作成します。
func NewSource(name string, data []byte) (domain.SourceImage, error) {
	dims, mimeType, err := DecodeDimensions(data)
	if err != nil {
		return domain.SourceImage{}, fmt.Errorf("%s: %w", name, err)
	}
	return domain.SourceImage{
		Name:       name,
		Data:       data,
		MimeType:   mimeType,
		Dimensions: dims,
	}, nil
}

// LoadSource はローカルファイルから SourceImage を読み込みます。
func LoadSource(path string) (domain.SourceImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceImage{}, fmt.Errorf("画像ファイルの読み込みに失敗しました: %w", err)
	}
	return NewSource(filepath.Base(path), data)
}

func mimeFromFormat(format string, data []byte) string {
	if m, ok := formatMimeTypes[format]; ok {
		return m
	}
	return http.DetectContentType(data)
}
