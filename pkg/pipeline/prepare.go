package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-aspect-kit/pkg/aspect"
	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/imgutil"
	"github.com/shouni/gemini-aspect-kit/pkg/utils"
)

// ProtectedRegionInstruction はパディングを適用した画像を送る際にシステムプロンプトの先頭へ付与する指示です。
const ProtectedRegionInstruction = `The input image contains solid black bars (#000000) that were added only to fit the requested aspect ratio.
These black bars are a protected region. Leave every pixel of them pure black (#000000).
Do not extend the scene into the black bars, and do not draw into, recolor, texture or stylize them.
Apply the requested changes only to the non-black image content inside the bars.`

// PrepareOptions は送信画像の準備方法を指定します。
type PrepareOptions struct {
	// RequestedRatio はユーザーが指定したアスペクト比です。空の場合は元画像に最も近い比率を選びます。
	RequestedRatio string
	// KeepRatio が true の場合、パディングと元比率へのクロップを行います。
	KeepRatio bool
}

// Outbound はリクエストに載せる画像と、レスポンス受信後のクロップに必要な情報です。
type Outbound struct {
	// Image は送信する画像です。パディング不要の場合は元画像のバイト列そのものです。
	Image domain.PreparedImage
	// AspectRatio は imageConfig.aspectRatio に指定する比率です。空の場合は指定しません。
	AspectRatio string
	// Instruction はシステムプロンプトの先頭に付与する指示です。
	Instruction string
	// CropRatio は生成画像をクロップする比率（元画像の比率）です。0 の場合はクロップしません。
	CropRatio float64
	// Padded はパディングが適用されたかどうかです。
	Padded bool

	epoch uint64
}

// SystemPrompt はユーザーのシステムプロンプトに Instruction を前置したものを返します。
func (o *Outbound) SystemPrompt(user string) string {
	user = strings.TrimSpace(user)
	if o == nil || o.Instruction == "" {
		return user
	}
	if user == "" {
		return o.Instruction
	}
	return o.Instruction + "\n\n" + user
}

// Prepare は現在の元画像から送信用の Outbound を作成します。
//
// KeepRatio が有効な場合、元比率と送信比率が十分に近ければパディングを省略し、
// そうでなければ送信比率のキャンバスへ黒帯でパディングします。
// 寸法が不正な場合は元画像をそのまま送り、クロップも行いません。
// キャンバスが上限を超える場合は imgutil.ErrCanvasTooLarge を返し、送信を中止します。
func (s *Session) Prepare(ctx context.Context, opts PrepareOptions) (*Outbound, error) {
	src, epoch, ok := s.snapshot()
	if !ok {
		return nil, ErrNoSource
	}
	return s.prepare(ctx, src, epoch, opts)
}

// prepare は取得済みのスナップショットから送信内容を組み立てます。
func (s *Session) prepare(ctx context.Context, src domain.SourceImage, epoch uint64, opts PrepareOptions) (*Outbound, error) {
	requested := strings.TrimSpace(opts.RequestedRatio)
	if requested != "" && !aspect.IsSupported(requested) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRatio, requested)
	}

	out := &Outbound{
		Image:       unmodified(src, requested),
		AspectRatio: requested,
		epoch:       epoch,
	}
	if !opts.KeepRatio {
		return out, nil
	}

	if !src.Dimensions.Valid() {
		slog.WarnContext(ctx, "元画像の寸法が不正なため、パディングせずにそのまま送信します",
			"name", src.Name, "width", src.Dimensions.Width, "height", src.Dimensions.Height)
		return out, nil
	}

	original := src.Dimensions.Ratio()
	target := requested
	if target == "" {
		target = s.matcher.Closest(original).Ratio
	}
	ratio, err := aspect.Parse(target)
	if err != nil {
		return nil, err
	}
	out.AspectRatio = target
	out.Image.AspectRatio = target
	out.CropRatio = original

	if s.matcher.IsClose(original, ratio.Value()) {
		slog.InfoContext(ctx, "元画像の比率が送信比率に十分近いため、パディングを省略します",
			"original", fmt.Sprintf("%.4f", original), "aspect_ratio", target)
		return out, nil
	}

	prepared, err := s.padder.Pad(ctx, src, ratio.Value())
	switch {
	case errors.Is(err, imgutil.ErrCanvasTooLarge):
		return nil, fmt.Errorf("%s を %s にパディングできません: %w", src.Name, target, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case err != nil:
		slog.WarnContext(ctx, "パディングに失敗したため、元画像をそのまま送信します", "name", src.Name, "error", err)
		out.CropRatio = 0
		return out, nil
	case prepared == nil:
		return out, nil
	}

	prepared.AspectRatio = target
	out.Image = *prepared
	out.Padded = true
	out.Instruction = ProtectedRegionInstruction

	slog.InfoContext(ctx, "元画像を黒帯でパディングしました",
		"aspect_ratio", target,
		"canvas", fmt.Sprintf("%dx%d", prepared.Dimensions.Width, prepared.Dimensions.Height),
		"offset", fmt.Sprintf("%d,%d", prepared.Offset.X, prepared.Offset.Y),
		"size", utils.HumanBytes(int64(len(prepared.Data))))
	return out, nil
}

// Finish は生成画像を Outbound に記録された元比率へクロップし、結果として保持します。
// Outbound が古い元画像に由来する場合は ErrStalePreparation を返します。
// 個々のクロップ失敗は致命的ではなく、Warning を付けて生成画像をそのまま返します。
func (s *Session) Finish(ctx context.Context, out *Outbound, images []domain.GeneratedImage) ([]domain.ImageResult, error) {
	if out != nil && !s.current(out.epoch) {
		return nil, ErrStalePreparation
	}

	results := make([]domain.ImageResult, 0, len(images))
	for i, img := range images {
		r := domain.ImageResult{Original: img}
		if out != nil && out.CropRatio > 0 {
			cropped, err := imgutil.Crop(ctx, img, out.CropRatio)
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, err
			case err != nil:
				slog.WarnContext(ctx, CropFailedWarning, "index", i, "error", err)
				r.Warning = CropFailedWarning
			default:
				r.Cropped = cropped
			}
		}
		results = append(results, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if out != nil && s.epoch != out.epoch {
		return nil, ErrStalePreparation
	}
	s.results = results
	return append([]domain.ImageResult(nil), results...), nil
}

func unmodified(src domain.SourceImage, ratio string) domain.PreparedImage {
	return domain.PreparedImage{
		Data:        src.Data,
		MimeType:    src.MimeType,
		Dimensions:  src.Dimensions,
		AspectRatio: ratio,
	}
}
