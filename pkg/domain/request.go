package domain

// TaskMode はリクエストの種類です。
type TaskMode string

const (
	// TaskGenerate は画像生成（gemini-3-pro-image-preview）です。
	TaskGenerate TaskMode = "generate"
	// TaskDescribe は画像からプロンプトを反推するモード（gemini-3-pro-preview）です。
	TaskDescribe TaskMode = "describe"
)

// DescribeTarget は反推時に重点を置く観点です。
type DescribeTarget string

const (
	DescribeFull       DescribeTarget = "full"
	DescribeBackground DescribeTarget = "background"
	DescribePerson     DescribeTarget = "person"
	DescribeStyle      DescribeTarget = "style"
	DescribeRendering  DescribeTarget = "rendering"
)

// ImageGenerationRequest は単一の画像生成要求です。
// Images は送信順に InlineData として Prompt の後ろに追加されます。
type ImageGenerationRequest struct {
	Prompt       string
	SystemPrompt string
	Images       []PreparedImage
	AspectRatio  string
	ImageSize    string
	Temperature  *float32
	TopP         *float32
	Seed         *int64
}

// DescribeRequest は画像からプロンプトを反推する要求です。
type DescribeRequest struct {
	Hint         string
	SystemPrompt string
	Target       DescribeTarget
	Images       []SourceImage
}

// ImageResponse は API から返ったテキストと画像の集合です。
type ImageResponse struct {
	Model    string
	Texts    []string
	Images   []GeneratedImage
	UsedSeed int64 // 戻り値は情報欠落を防ぐため int64
	Raw      any   // 生レスポンス（JSON ダンプ用）
}
