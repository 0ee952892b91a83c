package generator

import (
	"context"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"google.golang.org/genai"
)

// ContentGenerator は generateContent を呼び出すための最小インターフェースです。
// *genai.Models がこれを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageGenerator はパイプライン層が利用する統合窓口です。
type ImageGenerator interface {
	// GenerateImage はプロンプトと入力画像から画像を生成します。
	GenerateImage(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error)
	// DescribeImage は入力画像から再現用のプロンプトを反推します。
	DescribeImage(ctx context.Context, req domain.DescribeRequest) (*domain.ImageResponse, error)
}
