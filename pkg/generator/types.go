package generator

import (
	"time"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

const (
	// DefaultGenerateModel は画像生成に使うモデルです。
	DefaultGenerateModel = "gemini-3-pro-image-preview"
	// DefaultDescribeModel は反推（画像→プロンプト）に使うテキストモデルです。
	DefaultDescribeModel = "gemini-3-pro-preview"
	// DefaultHost は Gemini API のエンドポイントです。
	DefaultHost = "https://generativelanguage.googleapis.com"
	// DefaultTimeout はリクエスト全体のタイムアウトです。
	DefaultTimeout = 5 * time.Minute

	// defaultImageMimeType はレスポンスの MIME が空のときに使う値です。
	defaultImageMimeType = "image/png"
)

// ClientConfig は genai クライアントの接続設定です。
type ClientConfig struct {
	APIKey  string
	Host    string
	Timeout time.Duration
}

// ImageOutput は Core の内部解析結果
type ImageOutput struct {
	Texts  []string
	Images []domain.GeneratedImage
}
