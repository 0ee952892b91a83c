package commands

import (
	"context"
	"fmt"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/generator"
	"github.com/shouni/gemini-aspect-kit/pkg/imgutil"
	"github.com/shouni/gemini-aspect-kit/pkg/pipeline"
	"github.com/shouni/gemini-aspect-kit/pkg/render"
)

// newGeneratorFunc はテストで差し替えられるジェネレーターの生成関数です。
var newGeneratorFunc = func(ctx context.Context, o *rootOptions, generateModel, describeModel string) (generator.ImageGenerator, error) {
	client, err := generator.NewGenAIClient(ctx, o.cfg.ClientConfig())
	if err != nil {
		return nil, err
	}
	return generator.NewGeminiGenerator(client.Models, generateModel, describeModel)
}

// newSession は設定からジェネレーターと Session を組み立て、先頭の画像を元画像として設定します。
// 2枚目以降は参照画像として返します。
func (o *rootOptions) newSession(ctx context.Context, model string, mode domain.TaskMode, paths []string) (*pipeline.Session, []domain.SourceImage, error) {
	generateModel, describeModel := o.cfg.Models.Generate, o.cfg.Models.Describe
	if model != "" {
		if mode == domain.TaskDescribe {
			describeModel = model
		} else {
			generateModel = model
		}
	}

	gen, err := newGeneratorFunc(ctx, o, generateModel, describeModel)
	if err != nil {
		return nil, nil, err
	}
	session, err := pipeline.NewSession(gen, pipeline.Options{
		Tolerance:       o.cfg.Pipeline.Tolerance,
		MaxCanvasPixels: o.cfg.Pipeline.MaxCanvasPixels,
	})
	if err != nil {
		return nil, nil, err
	}

	sources, err := loadSources(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(sources) == 0 {
		return session, nil, nil
	}
	session.SetSource(sources[0])
	return session, sources[1:], nil
}

func (o *rootOptions) writer() *render.Writer {
	return &render.Writer{Dir: o.cfg.Output.Dir, DumpRaw: o.cfg.Output.DumpRaw}
}

func loadSources(paths []string) ([]domain.SourceImage, error) {
	sources := make([]domain.SourceImage, 0, len(paths))
	for _, p := range paths {
		src, err := imgutil.LoadSource(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
