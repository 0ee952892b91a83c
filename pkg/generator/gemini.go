package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/utils"
	"google.golang.org/genai"
)

// ErrNoImages は反推モードで入力画像が1枚もない場合のエラーです。
var ErrNoImages = errors.New("describe mode requires at least one image")

// GeminiGenerator は、画像生成(GenerateImage)と
// 画像からのプロンプト反推(DescribeImage)の両方を担当する統合ジェネレーターです。
type GeminiGenerator struct {
	imgCore       *GeminiImageCore
	aiClient      ContentGenerator
	generateModel string
	describeModel string
}

// NewGeminiGenerator は GeminiGenerator を初期化します。モデル名が空の場合はデフォルトを使います。
func NewGeminiGenerator(aiClient ContentGenerator, generateModel, describeModel string) (*GeminiGenerator, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (ContentGenerator) is required")
	}
	if generateModel == "" {
		generateModel = DefaultGenerateModel
	}
	if describeModel == "" {
		describeModel = DefaultDescribeModel
	}

	return &GeminiGenerator{
		imgCore:       &GeminiImageCore{},
		aiClient:      aiClient,
		generateModel: generateModel,
		describeModel: describeModel,
	}, nil
}

// ModelFor はタスクモードに対応するモデル名を返します。
func (g *GeminiGenerator) ModelFor(mode domain.TaskMode) string {
	if mode == domain.TaskDescribe {
		return g.describeModel
	}
	return g.generateModel
}

// GenerateImage はプロンプトと入力画像（送信順）から画像生成を行います。
func (g *GeminiGenerator) GenerateImage(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	for i, img := range req.Images {
		imgPart := g.imgCore.toPart(img.Data, img.MimeType)
		if imgPart == nil {
			slog.WarnContext(ctx, "入力画像をパーツに変換できなかったためスキップします", "index", i)
			continue
		}
		parts = append(parts, imgPart)
	}

	slog.InfoContext(ctx, "Geminiに画像生成をリクエストします",
		"model", g.generateModel,
		"parts", len(parts),
		"aspect_ratio", req.AspectRatio,
		"image_size", req.ImageSize)

	out, raw, err := g.generateInternal(ctx, g.generateModel, parts, g.imgCore.generateConfig(req))
	if err != nil {
		return nil, fmt.Errorf("Gemini画像生成エラー: %w", err)
	}
	logImages(ctx, "画像生成レスポンスを受信しました", out.Images)

	return &domain.ImageResponse{
		Model:    g.generateModel,
		Texts:    out.Texts,
		Images:   out.Images,
		UsedSeed: utils.DereferenceSeed(req.Seed),
		Raw:      raw,
	}, nil
}

// DescribeImage は入力画像から再現用の詳細なプロンプトを反推します。
// 指示文はユーザーテキストより前に置きます。
func (g *GeminiGenerator) DescribeImage(ctx context.Context, req domain.DescribeRequest) (*domain.ImageResponse, error) {
	if len(req.Images) == 0 {
		return nil, ErrNoImages
	}

	parts := []*genai.Part{{Text: BuildDescribeDirective(req.Target, req.Hint, g.generateModel)}}
	for i, img := range req.Images {
		imgPart := g.imgCore.toPart(img.Data, img.MimeType)
		if imgPart == nil {
			slog.WarnContext(ctx, "参照画像の読み込みに失敗しました", "index", i, "name", img.Name)
			continue
		}
		parts = append(parts, imgPart)
	}
	if len(parts) == 1 {
		return nil, ErrNoImages
	}

	cfg := &genai.GenerateContentConfig{}
	system := DefaultDescribeSystemPrompt
	if sp := strings.TrimSpace(req.SystemPrompt); sp != "" {
		system = sp + "\n\n" + DefaultDescribeSystemPrompt
	}
	cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)

	slog.InfoContext(ctx, "Geminiにプロンプト反推をリクエストします",
		"model", g.describeModel, "images", len(parts)-1, "target", req.Target)

	out, raw, err := g.generateInternal(ctx, g.describeModel, parts, cfg)
	if err != nil {
		return nil, fmt.Errorf("Geminiプロンプト反推エラー: %w", err)
	}

	return &domain.ImageResponse{
		Model:  g.describeModel,
		Texts:  out.Texts,
		Images: out.Images,
		Raw:    raw,
	}, nil
}

// generateInternal はリクエスト、通信、解析を一括で行うヘルパーです。
func (g *GeminiGenerator) generateInternal(ctx context.Context, model string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (*ImageOutput, *genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.aiClient.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, nil, err // ラップは呼び出し元で行う
	}

	out, err := g.imgCore.parseToResponse(resp)
	if err != nil {
		return nil, resp, err
	}
	return out, resp, nil
}
