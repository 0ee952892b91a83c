package generator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/utils"
	"google.golang.org/genai"
)

// NewGenAIClient は ClientConfig から genai クライアントを作成します。
func NewGenAIClient(ctx context.Context, cfg ClientConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := genai.HTTPOptions{}
	if host := strings.TrimRight(strings.TrimSpace(cfg.Host), "/"); host != "" && host != DefaultHost {
		opts.BaseURL = host + "/"
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		opts.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return client, nil
}

// GeminiImageCore はリクエストパーツの組み立てとレスポンス解析を担う共通ロジックです。
type GeminiImageCore struct{}

// toPart はバイト列を genai.Part (InlineData) に変換します。
// mimeType が空の場合は内容から判定し、画像でなければ nil を返します。
func (c *GeminiImageCore) toPart(data []byte, mimeType string) *genai.Part {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Warn("MIMEタイプが画像ではないためPartに変換できませんでした", "detected_mime_type", mimeType)
		return nil
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     data,
		},
	}
}

// generateConfig は生成モード用の GenerateContentConfig を組み立てます。
func (c *GeminiImageCore) generateConfig(req domain.ImageGenerationRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
		Temperature:        req.Temperature,
		TopP:               req.TopP,
		Seed:               seedToPtrInt32(req.Seed),
	}
	if sp := strings.TrimSpace(req.SystemPrompt); sp != "" {
		cfg.SystemInstruction = genai.NewContentFromText(sp, genai.RoleUser)
	}
	if req.AspectRatio != "" || req.ImageSize != "" {
		cfg.ImageConfig = &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		}
	}
	return cfg
}

// parseToResponse は Gemini のレスポンスからテキストと画像を取り出します。
func (c *GeminiImageCore) parseToResponse(resp *genai.GenerateContentResponse) (*ImageOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("プロンプトがブロックされました (BlockReason: %s)", resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	// 現在の仕様では、Geminiからの最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]
	out := &ImageOutput{}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if strings.TrimSpace(part.Text) != "" {
				out.Texts = append(out.Texts, part.Text)
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = defaultImageMimeType
				}
				out.Images = append(out.Images, domain.GeneratedImage{
					Data:     part.InlineData.Data,
					MimeType: mimeType,
				})
			}
		}
	}

	if len(out.Texts) > 0 || len(out.Images) > 0 {
		return out, nil
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("生成が異常終了しました (FinishReason: %s)", candidate.FinishReason)
	}
	return nil, fmt.Errorf("レスポンスにテキストも画像も含まれていませんでした")
}

func logImages(ctx context.Context, msg string, images []domain.GeneratedImage) {
	var total int
	for _, img := range images {
		total += len(img.Data)
	}
	slog.InfoContext(ctx, msg, "images", len(images), "size", utils.HumanBytes(int64(total)))
}
