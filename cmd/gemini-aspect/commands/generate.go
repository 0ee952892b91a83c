package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/pipeline"
)

type generateOptions struct {
	images      []string
	prompt      string
	system      string
	aspect      string
	size        string
	model       string
	keepRatio   bool
	temperature float32
	topP        float32
	seed        int64
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate images (the first --image is padded and cropped back to its ratio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.prompt == "" {
				return fmt.Errorf("--prompt is required")
			}
			in := opts.input(cmd, root)

			session, refs, err := root.newSession(cmd.Context(), opts.model, domain.TaskGenerate, opts.images)
			if err != nil {
				return err
			}
			in.References = refs

			res, err := session.Generate(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printResult(cmd, root, res)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.images, "image", "i", nil, "input image (repeatable; the first one is the source)")
	f.StringVarP(&opts.prompt, "prompt", "p", "", "prompt text")
	f.StringVar(&opts.system, "system", "", "system prompt")
	f.StringVar(&opts.aspect, "aspect", "", "output aspect ratio (1:1, 2:3, 3:2, 3:4, 4:3, 4:5, 5:4, 9:16, 16:9, 21:9)")
	f.StringVar(&opts.size, "size", "", "output image size (1K, 2K, 4K)")
	f.StringVar(&opts.model, "model", "", "image model (overrides config)")
	f.BoolVar(&opts.keepRatio, "keep-ratio", true, "pad the source to a supported ratio and crop results back")
	f.Float32Var(&opts.temperature, "temperature", 0, "sampling temperature")
	f.Float32Var(&opts.topP, "top-p", 0, "nucleus sampling topP")
	f.Int64Var(&opts.seed, "seed", 0, "random seed")
	return cmd
}

// input はフラグから GenerateInput を組み立てます。指定されなかった数値フラグは送りません。
func (o *generateOptions) input(cmd *cobra.Command, root *rootOptions) pipeline.GenerateInput {
	in := pipeline.GenerateInput{
		Prompt:       o.prompt,
		SystemPrompt: o.system,
		AspectRatio:  o.aspect,
		ImageSize:    o.size,
		KeepRatio:    root.cfg.Pipeline.KeepsRatio(),
	}
	f := cmd.Flags()
	if f.Changed("keep-ratio") {
		in.KeepRatio = o.keepRatio
	}
	if f.Changed("temperature") {
		v := o.temperature
		in.Temperature = &v
	}
	if f.Changed("top-p") {
		v := o.topP
		in.TopP = &v
	}
	if f.Changed("seed") {
		v := o.seed
		in.Seed = &v
	}
	return in
}
