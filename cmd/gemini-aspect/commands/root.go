package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shouni/gemini-aspect-kit/pkg/config"
)

// rootOptions はすべてのサブコマンドで共有するフラグと読み込み済み設定です。
type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
	outDir     string
	dumpRaw    bool

	cfg *config.Config
}

// NewRootCmd は gemini-aspect のルートコマンドを作成します。
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gemini-aspect",
		Short: "Gemini image generation that keeps the source aspect ratio",
		Long: `gemini-aspect - Gemini image generation with aspect-ratio preservation.

The source image is padded with black bars to the closest supported ratio
(or the ratio given by --aspect) before it is sent, and every generated
image is center-cropped back to the source ratio afterwards. Both the
cropped and the original outputs are written to the output directory.

Configuration is layered: defaults, --config YAML file, .env file,
then environment variables (GEMINI_API_KEY, GEMINI_API_HOST, ...).

Examples:
  gemini-aspect generate -i photo.jpg -p "turn this into a watercolor"
  gemini-aspect generate -i square.png --aspect 21:9 -p "extend the scene"
  gemini-aspect describe -i ref.png --target style
  gemini-aspect plan -i square.png --aspect 21:9`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(cmd.ErrOrStderr(), opts.verbose)
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", "", ".env file (default: ./.env if present)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.StringVarP(&opts.outDir, "out", "o", "", "output directory (overrides config)")
	flags.BoolVar(&opts.dumpRaw, "dump-raw", false, "also write the raw API response as JSON")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newDescribeCmd(opts),
		newPlanCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{ConfigPath: o.configPath, EnvFile: o.envFile})
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	if cmd.Flags().Changed("out") {
		cfg.Output.Dir = o.outDir
	}
	if o.dumpRaw {
		cfg.Output.DumpRaw = true
	}
	o.cfg = cfg
	return nil
}

func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
