package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/pipeline"
)

var describeTargets = []domain.DescribeTarget{
	domain.DescribeFull,
	domain.DescribeBackground,
	domain.DescribePerson,
	domain.DescribeStyle,
	domain.DescribeRendering,
}

func newDescribeCmd(root *rootOptions) *cobra.Command {
	var (
		images []string
		hint   string
		system string
		target string
		model  string
	)

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Reverse-engineer a detailed reproduction prompt from images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(images) == 0 {
				return fmt.Errorf("at least one --image is required")
			}
			t, err := parseTarget(target)
			if err != nil {
				return err
			}

			session, refs, err := root.newSession(cmd.Context(), model, domain.TaskDescribe, images)
			if err != nil {
				return err
			}
			res, err := session.Describe(cmd.Context(), pipeline.DescribeInput{
				Hint:         hint,
				SystemPrompt: system,
				Target:       t,
				References:   refs,
			})
			if err != nil {
				return err
			}
			return printResult(cmd, root, res)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&images, "image", "i", nil, "reference image (repeatable)")
	f.StringVarP(&hint, "prompt", "p", "", "additional request for the description")
	f.StringVar(&system, "system", "", "extra system prompt (prepended to the default)")
	f.StringVar(&target, "target", string(domain.DescribeFull), "focus: full, background, person, style, rendering")
	f.StringVar(&model, "model", "", "text model (overrides config)")
	return cmd
}

func parseTarget(s string) (domain.DescribeTarget, error) {
	for _, t := range describeTargets {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown --target %q", s)
}
