package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/shouni/gemini-aspect-kit/pkg/aspect"
	"github.com/shouni/gemini-aspect-kit/pkg/generator"
	"github.com/shouni/gemini-aspect-kit/pkg/imgutil"
)

// 環境変数名
const (
	EnvAPIKey          = "GEMINI_API_KEY"
	EnvGoogleAPIKey    = "GOOGLE_API_KEY"
	EnvAPIHost         = "GEMINI_API_HOST"
	EnvTimeout         = "GEMINI_TIMEOUT"
	EnvImageModel      = "GEMINI_IMAGE_MODEL"
	EnvTextModel       = "GEMINI_TEXT_MODEL"
	EnvOutputDir       = "GEMINI_OUTPUT_DIR"
	EnvTolerance       = "GEMINI_ASPECT_TOLERANCE"
	EnvMaxCanvasPixels = "GEMINI_MAX_CANVAS_PIXELS"
)

// DefaultOutputDir は結果ファイルの既定の出力先です。
const DefaultOutputDir = "output"

// Config はアプリケーション全体の設定です。
type Config struct {
	API      API      `yaml:"api"`
	Models   Models   `yaml:"models"`
	Pipeline Pipeline `yaml:"pipeline"`
	Output   Output   `yaml:"output"`
}

// API は Gemini API への接続設定です。
type API struct {
	Key     string        `yaml:"key,omitempty"`
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

// Models はタスクごとのモデル名です。
type Models struct {
	Generate string `yaml:"generate"`
	Describe string `yaml:"describe"`
}

// Pipeline はパディング・クロップのポリシー値です。
type Pipeline struct {
	KeepRatio       *bool   `yaml:"keep_ratio,omitempty"`
	Tolerance       float64 `yaml:"tolerance"`
	MaxCanvasPixels int64   `yaml:"max_canvas_pixels"`
}

// KeepsRatio は元比率の維持が有効かどうかを返します。未設定の場合は有効です。
func (p Pipeline) KeepsRatio() bool {
	return p.KeepRatio == nil || *p.KeepRatio
}

// Output は結果の書き出し設定です。
type Output struct {
	Dir     string `yaml:"dir"`
	DumpRaw bool   `yaml:"dump_raw"`
}

// LoadOptions は Load の入力です。
type LoadOptions struct {
	// ConfigPath は YAML 設定ファイルのパスです。空の場合は読み込みません。
	ConfigPath string
	// EnvFile は .env ファイルのパスです。空の場合はカレントディレクトリの .env を（あれば）読み込みます。
	EnvFile string
}

// Default はデフォルト値で埋めた Config を返します。
func Default() *Config {
	keepRatio := true
	return &Config{
		API: API{
			Host:    generator.DefaultHost,
			Timeout: generator.DefaultTimeout,
		},
		Models: Models{
			Generate: generator.DefaultGenerateModel,
			Describe: generator.DefaultDescribeModel,
		},
		Pipeline: Pipeline{
			KeepRatio:       &keepRatio,
			Tolerance:       aspect.CloseTolerance,
			MaxCanvasPixels: imgutil.MaxCanvasPixels,
		},
		Output: Output{Dir: DefaultOutputDir},
	}
}

// Load はデフォルト値、YAML ファイル、.env と環境変数の順に設定を重ねて読み込みます。
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if opts.ConfigPath != "" {
		fileCfg, err := readFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.merge(fileCfg)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の範囲を検証します。API キーの有無はクライアント作成時に検証します。
func (c *Config) Validate() error {
	if c.Pipeline.Tolerance <= 0 || c.Pipeline.Tolerance >= 1 {
		return fmt.Errorf("pipeline.tolerance must be in (0, 1): %v", c.Pipeline.Tolerance)
	}
	if c.Pipeline.MaxCanvasPixels <= 0 {
		return fmt.Errorf("pipeline.max_canvas_pixels must be positive: %d", c.Pipeline.MaxCanvasPixels)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive: %s", c.API.Timeout)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required")
	}
	return nil
}

// ClientConfig は generator 用の接続設定を返します。
func (c *Config) ClientConfig() generator.ClientConfig {
	return generator.ClientConfig{
		APIKey:  c.API.Key,
		Host:    c.API.Host,
		Timeout: c.API.Timeout,
	}
}

// Save は設定を YAML として書き出します。API キーは書き出しません。
func (c *Config) Save(path string) error {
	out := *c
	out.API.Key = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// merge は src のゼロ値でない項目で c を上書きします。
func (c *Config) merge(src *Config) {
	setString(&c.API.Key, src.API.Key)
	setString(&c.API.Host, src.API.Host)
	if src.API.Timeout > 0 {
		c.API.Timeout = src.API.Timeout
	}
	setString(&c.Models.Generate, src.Models.Generate)
	setString(&c.Models.Describe, src.Models.Describe)
	if src.Pipeline.KeepRatio != nil {
		v := *src.Pipeline.KeepRatio
		c.Pipeline.KeepRatio = &v
	}
	if src.Pipeline.Tolerance != 0 {
		c.Pipeline.Tolerance = src.Pipeline.Tolerance
	}
	if src.Pipeline.MaxCanvasPixels != 0 {
		c.Pipeline.MaxCanvasPixels = src.Pipeline.MaxCanvasPixels
	}
	setString(&c.Output.Dir, src.Output.Dir)
	c.Output.DumpRaw = c.Output.DumpRaw || src.Output.DumpRaw
}

func (c *Config) applyEnv() error {
	setString(&c.API.Key, getEnv(EnvGoogleAPIKey))
	setString(&c.API.Key, getEnv(EnvAPIKey))
	setString(&c.API.Host, getEnv(EnvAPIHost))
	setString(&c.Models.Generate, getEnv(EnvImageModel))
	setString(&c.Models.Describe, getEnv(EnvTextModel))
	setString(&c.Output.Dir, getEnv(EnvOutputDir))

	if v := getEnv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		c.API.Timeout = d
	}
	if v := getEnv(EnvTolerance); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTolerance, err)
		}
		c.Pipeline.Tolerance = f
	}
	if v := getEnv(EnvMaxCanvasPixels); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxCanvasPixels, err)
		}
		c.Pipeline.MaxCanvasPixels = n
	}
	return nil
}

func getEnv(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
