package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-aspect-kit/pkg/pipeline"
)

func printResult(cmd *cobra.Command, root *rootOptions, res *pipeline.Result) error {
	out, err := root.writer().Write(res)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, img := range res.Images {
		if img.Warning != "" {
			fmt.Fprintf(w, "warning: %s\n", img.Warning)
		}
	}
	if out.Text != "" {
		fmt.Fprintln(w, out.Text)
	}
	for _, p := range out.Images {
		fmt.Fprintln(w, p)
	}
	if out.Raw != "" {
		fmt.Fprintln(w, out.Raw)
	}
	if out.Text == "" && len(out.Images) == 0 {
		fmt.Fprintln(w, "no output")
	}
	return nil
}
