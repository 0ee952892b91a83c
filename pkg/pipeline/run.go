package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

// GenerateInput は生成モードのリクエスト内容です。
type GenerateInput struct {
	Prompt       string
	SystemPrompt string
	AspectRatio  string
	ImageSize    string
	KeepRatio    bool
	Temperature  *float32
	TopP         *float32
	Seed         *int64
	// References は元画像の後ろに加工せず送る追加の参照画像です。
	References []domain.SourceImage
}

// DescribeInput は反推モードのリクエスト内容です。
type DescribeInput struct {
	Hint         string
	SystemPrompt string
	Target       domain.DescribeTarget
	References   []domain.SourceImage
}

// Result は1回のリクエストの結果です。
type Result struct {
	RunID    string
	Mode     domain.TaskMode
	Model    string
	Texts    []string
	Images   []domain.ImageResult
	UsedSeed int64
	Raw      any
	// Outbound は生成モードで元画像を送った場合の準備結果です。
	Outbound *Outbound
}

// Generate は元画像（設定されていれば）を準備して画像生成を行い、生成画像を元比率へクロップします。
func (s *Session) Generate(ctx context.Context, in GenerateInput) (*Result, error) {
	release, err := s.BeginRequest()
	if err != nil {
		return nil, err
	}
	defer release()

	runID := uuid.NewString()
	req := domain.ImageGenerationRequest{
		Prompt:       in.Prompt,
		SystemPrompt: in.SystemPrompt,
		AspectRatio:  in.AspectRatio,
		ImageSize:    in.ImageSize,
		Temperature:  in.Temperature,
		TopP:         in.TopP,
		Seed:         in.Seed,
	}

	var out *Outbound
	if src, epoch, ok := s.snapshot(); ok {
		out, err = s.prepare(ctx, src, epoch, PrepareOptions{RequestedRatio: in.AspectRatio, KeepRatio: in.KeepRatio})
		if err != nil {
			return nil, err
		}
		req.Images = append(req.Images, out.Image)
		req.AspectRatio = out.AspectRatio
		req.SystemPrompt = out.SystemPrompt(in.SystemPrompt)
	}
	for _, ref := range in.References {
		req.Images = append(req.Images, unmodified(ref, ""))
	}

	slog.InfoContext(ctx, "生成リクエストを開始します",
		"run_id", runID,
		"images", len(req.Images),
		"aspect_ratio", req.AspectRatio,
		"padded", out != nil && out.Padded)

	resp, err := s.gen.GenerateImage(ctx, req)
	if err != nil {
		return nil, err
	}

	images, err := s.Finish(ctx, out, resp.Images)
	if errors.Is(err, ErrStalePreparation) {
		slog.WarnContext(ctx, StaleCropWarning, "run_id", runID)
		images = make([]domain.ImageResult, 0, len(resp.Images))
		for _, img := range resp.Images {
			images = append(images, domain.ImageResult{Original: img, Warning: StaleCropWarning})
		}
	} else if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "生成リクエストが完了しました",
		"run_id", runID, "images", len(images), "texts", len(resp.Texts))

	return &Result{
		RunID:    runID,
		Mode:     domain.TaskGenerate,
		Model:    resp.Model,
		Texts:    resp.Texts,
		Images:   images,
		UsedSeed: resp.UsedSeed,
		Raw:      resp.Raw,
		Outbound: out,
	}, nil
}

// Describe は元画像と参照画像から再現用プロンプトを反推します。画像は加工せずに送ります。
func (s *Session) Describe(ctx context.Context, in DescribeInput) (*Result, error) {
	release, err := s.BeginRequest()
	if err != nil {
		return nil, err
	}
	defer release()

	runID := uuid.NewString()
	req := domain.DescribeRequest{
		Hint:         in.Hint,
		SystemPrompt: in.SystemPrompt,
		Target:       in.Target,
	}
	if src, ok := s.Source(); ok {
		req.Images = append(req.Images, src)
	}
	req.Images = append(req.Images, in.References...)

	slog.InfoContext(ctx, "反推リクエストを開始します",
		"run_id", runID, "images", len(req.Images), "target", in.Target)

	resp, err := s.gen.DescribeImage(ctx, req)
	if err != nil {
		return nil, err
	}

	images, err := s.Finish(ctx, nil, resp.Images)
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:  runID,
		Mode:   domain.TaskDescribe,
		Model:  resp.Model,
		Texts:  resp.Texts,
		Images: images,
		Raw:    resp.Raw,
	}, nil
}
