package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/imgutil"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// mockGenerator は generateFunc が未設定なら送られてきた画像をそのまま生成結果として返す。
type mockGenerator struct {
	generateFunc func(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error)
	describeFunc func(ctx context.Context, req domain.DescribeRequest) (*domain.ImageResponse, error)

	lastGenerate domain.ImageGenerationRequest
	lastDescribe domain.DescribeRequest
}

func (m *mockGenerator) GenerateImage(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	m.lastGenerate = req
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	resp := &domain.ImageResponse{Model: "mock-image"}
	for _, img := range req.Images {
		resp.Images = append(resp.Images, domain.GeneratedImage{Data: img.Data, MimeType: img.MimeType})
	}
	return resp, nil
}

func (m *mockGenerator) DescribeImage(ctx context.Context, req domain.DescribeRequest) (*domain.ImageResponse, error) {
	m.lastDescribe = req
	if m.describeFunc != nil {
		return m.describeFunc(ctx, req)
	}
	return &domain.ImageResponse{Model: "mock-text", Texts: []string{"## 1) Prompt"}}, nil
}

// --- Helpers ---

func patternColor(x, y int) color.NRGBA {
	return color.NRGBA{R: uint8(40 + (x*5)%200), G: uint8(40 + (y*9)%200), B: 128, A: 255}
}

func createPatternPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, patternColor(x, y))
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func createSource(t *testing.T, w, h int) domain.SourceImage {
	t.Helper()
	src, err := imgutil.NewSource("source.png", createPatternPNG(t, w, h))
	require.NoError(t, err)
	return src
}

func newTestSession(t *testing.T, gen *mockGenerator) *Session {
	t.Helper()
	s, err := NewSession(gen, Options{})
	require.NoError(t, err)
	return s
}

func decodeAt(t *testing.T, data []byte, x, y int) color.NRGBA {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return color.NRGBAModel.Convert(img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)).(color.NRGBA)
}
