package pipeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/gemini-aspect-kit/pkg/aspect"
	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/generator"
	"github.com/shouni/gemini-aspect-kit/pkg/imgutil"
)

// Options は Session のポリシー値です。ゼロ値の項目はデフォルトが使われます。
type Options struct {
	// Tolerance は「十分に近い」とみなす相対差の閾値です。
	Tolerance float64
	// MaxCanvasPixels はパディング後キャンバスの画素数上限です。
	MaxCanvasPixels int64
}

// Session は1つの元画像と、そこから派生する準備結果・生成結果のライフサイクルを管理します。
// 元画像が差し替えられると epoch が進み、それ以前の Outbound は無効になります。
type Session struct {
	gen     generator.ImageGenerator
	matcher aspect.Matcher
	padder  imgutil.Padder

	mu       sync.Mutex
	source   *domain.SourceImage
	epoch    uint64
	inFlight bool
	results  []domain.ImageResult
}

// NewSession は Session を初期化します。
func NewSession(gen generator.ImageGenerator, opts Options) (*Session, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &Session{
		gen:     gen,
		matcher: aspect.Matcher{Tolerance: opts.Tolerance},
		padder:  imgutil.Padder{MaxPixels: opts.MaxCanvasPixels},
	}, nil
}

// SetSource は元画像を設定します。以前の準備結果と生成結果は破棄されます。
func (s *Session) SetSource(src domain.SourceImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = &src
	s.supersedeLocked()
	slog.Debug("元画像を設定しました", "name", src.Name,
		"width", src.Dimensions.Width, "height", src.Dimensions.Height)
}

// Clear は元画像を取り除きます。以前の準備結果と生成結果は破棄されます。
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = nil
	s.supersedeLocked()
}

func (s *Session) supersedeLocked() {
	s.epoch++
	s.results = nil
}

// Source は現在の元画像を返します。
func (s *Session) Source() (domain.SourceImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return domain.SourceImage{}, false
	}
	return *s.source, true
}

// Results は直近のリクエストで得られた結果を返します。
func (s *Session) Results() []domain.ImageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ImageResult(nil), s.results...)
}

// BeginRequest はリクエストの開始を宣言し、前回の結果を破棄します。
// 進行中のリクエストがある場合は ErrRequestInFlight を返します。
// 返された関数でリクエストの終了を通知してください。
func (s *Session) BeginRequest() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return nil, ErrRequestInFlight
	}
	s.inFlight = true
	s.results = nil

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.inFlight = false
			s.mu.Unlock()
		})
	}, nil
}

func (s *Session) snapshot() (domain.SourceImage, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return domain.SourceImage{}, s.epoch, false
	}
	return *s.source, s.epoch, true
}

func (s *Session) current(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == epoch
}
