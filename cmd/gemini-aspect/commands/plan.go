package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-aspect-kit/pkg/aspect"
	"github.com/shouni/gemini-aspect-kit/pkg/imgutil"
	"github.com/shouni/gemini-aspect-kit/pkg/pipeline"
)

func newPlanCmd(root *rootOptions) *cobra.Command {
	var (
		image     string
		requested string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the ratio match and pad/crop geometry for an image without calling the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if image == "" {
				return fmt.Errorf("--image is required")
			}
			src, err := imgutil.LoadSource(image)
			if err != nil {
				return err
			}

			matcher := aspect.Matcher{Tolerance: root.cfg.Pipeline.Tolerance}
			original := src.Dimensions.Ratio()
			match := matcher.Closest(original)

			target := requested
			if target == "" {
				target = match.Ratio
			}
			if !aspect.IsSupported(target) {
				return fmt.Errorf("%w: %q", pipeline.ErrUnsupportedRatio, target)
			}
			ratio, err := aspect.Parse(target)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source:   %dx%d (%.4f)\n", src.Dimensions.Width, src.Dimensions.Height, original)
			fmt.Fprintf(w, "closest:  %s (diff %.4f)\n", match.Ratio, match.Diff)
			fmt.Fprintf(w, "target:   %s\n", target)

			if matcher.IsClose(original, ratio.Value()) {
				fmt.Fprintln(w, "padding:  skipped (close enough)")
				return nil
			}

			padder := imgutil.Padder{MaxPixels: root.cfg.Pipeline.MaxCanvasPixels}
			plan, ok, err := padder.Plan(src.Dimensions, ratio.Value())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(w, "padding:  none")
				return nil
			}
			fmt.Fprintf(w, "padding:  canvas %dx%d, offset (%d,%d)\n",
				plan.Canvas.Width, plan.Canvas.Height, plan.Offset.X, plan.Offset.Y)

			rect, _, err := imgutil.PlanCrop(plan.Canvas, original)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "crop:     %dx%d at (%d,%d)\n", rect.Dx(), rect.Dy(), rect.Min.X, rect.Min.Y)
			return nil
		},
	}

	cmd.Flags().StringVarP(&image, "image", "i", "", "source image")
	cmd.Flags().StringVar(&requested, "aspect", "", "requested aspect ratio (default: closest supported)")
	return cmd
}
