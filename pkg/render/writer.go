package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/pipeline"
	"github.com/shouni/gemini-aspect-kit/pkg/utils"
)

// TextSeparator は複数のテキストパーツを連結する区切りです。
const TextSeparator = "\n\n---\n\n"

const (
	suffixCropped  = "_cropped"
	suffixOriginal = "_original"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Writer はリクエスト結果をファイルとして書き出します。
type Writer struct {
	// Dir は出力先ディレクトリです。存在しない場合は作成します。
	Dir string
	// DumpRaw が true の場合、run ID と生のレスポンスを JSON で保存します。
	DumpRaw bool
	// Now はタイムスタンプの取得に使います。nil の場合は time.Now です。
	Now func() time.Time
}

// Output は書き出したファイルのパスです。
type Output struct {
	Text   string
	Images []string
	Raw    string
}

// rawDump は生レスポンスの保存形式です。
type rawDump struct {
	RunID    string `json:"run_id"`
	Mode     string `json:"mode,omitempty"`
	Model    string `json:"model"`
	Response any    `json:"response"`
}

// Write は結果を Dir に書き出します。
// クロップ済みの画像は _cropped と _original の2ファイルとして保存されます。
func (w *Writer) Write(res *pipeline.Result) (*Output, error) {
	if res == nil {
		return nil, fmt.Errorf("result is required")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}

	base := fmt.Sprintf("gemini3_%s_%s", sanitize(res.Model), TimestampTag(w.now()))
	out := &Output{}

	if text := JoinTexts(res.Texts); text != "" {
		path := filepath.Join(w.Dir, base+".md")
		if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
			return nil, fmt.Errorf("テキストの書き込みに失敗しました: %w", err)
		}
		out.Text = path
	}

	for i, img := range res.Images {
		paths, err := w.writeImage(base, i, img)
		if err != nil {
			return nil, err
		}
		out.Images = append(out.Images, paths...)
	}

	if w.DumpRaw && res.Raw != nil {
		dump := rawDump{RunID: res.RunID, Mode: string(res.Mode), Model: res.Model, Response: res.Raw}
		data, err := json.MarshalIndent(dump, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("レスポンスのJSON変換に失敗しました: %w", err)
		}
		path := filepath.Join(w.Dir, base+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("レスポンスの書き込みに失敗しました: %w", err)
		}
		out.Raw = path
	}

	slog.Info("結果を書き出しました", "run_id", res.RunID, "dir", w.Dir, "images", len(out.Images), "text", out.Text != "")
	return out, nil
}

func (w *Writer) writeImage(base string, idx int, r domain.ImageResult) ([]string, error) {
	stem := fmt.Sprintf("%s_%02d", base, idx+1)
	if r.Warning != "" {
		slog.Warn(r.Warning, "index", idx+1)
	}

	if r.Cropped == nil || !r.Cropped.Cropped {
		path, err := w.writeFile(stem, r.Original.MimeType, r.Original.Data)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	cropped, err := w.writeFile(stem+suffixCropped, r.Cropped.MimeType, r.Cropped.Data)
	if err != nil {
		return nil, err
	}
	original, err := w.writeFile(stem+suffixOriginal, r.Original.MimeType, r.Original.Data)
	if err != nil {
		return nil, err
	}
	return []string{cropped, original}, nil
}

func (w *Writer) writeFile(stem, mimeType string, data []byte) (string, error) {
	path := filepath.Join(w.Dir, stem+"."+Extension(mimeType))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("画像の書き込みに失敗しました: %w", err)
	}
	slog.Debug("画像を保存しました", "path", path, "size", utils.HumanBytes(int64(len(data))))
	return path, nil
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// JoinTexts は空でないテキストを TextSeparator で連結します。
func JoinTexts(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, TextSeparator)
}

// TimestampTag はファイル名用の YYYYMMDD_HHMMSS 形式のタグを返します。
func TimestampTag(t time.Time) string {
	return t.Format("20060102_150405")
}

// Extension は MIME タイプから拡張子を決めます。
func Extension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "png"):
		return "png"
	case strings.Contains(mimeType, "jpeg"), strings.Contains(mimeType, "jpg"):
		return "jpg"
	case strings.Contains(mimeType, "webp"):
		return "webp"
	default:
		return "bin"
	}
}

func sanitize(model string) string {
	s := unsafeChars.ReplaceAllString(model, "-")
	if s == "" {
		return "model"
	}
	return s
}
