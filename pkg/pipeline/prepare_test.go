package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
	"github.com/shouni/gemini-aspect-kit/pkg/imgutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare_NoSource(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	_, err := s.Prepare(context.Background(), PrepareOptions{KeepRatio: true})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestPrepare_UnsupportedRatio(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	s.SetSource(domain.SourceImage{Data: []byte("x"), Dimensions: domain.Dimensions{Width: 10, Height: 10}})
	_, err := s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "7:5", KeepRatio: true})
	assert.ErrorIs(t, err, ErrUnsupportedRatio)
}

func TestPrepare_CloseEnoughSkipsPadding(t *testing.T) {
	// 4000x3000 は 4:3 と一致するのでバイト列をそのまま送る
	s := newTestSession(t, &mockGenerator{})
	src := domain.SourceImage{
		Name:       "photo.jpg",
		Data:       []byte("original-bytes"),
		MimeType:   "image/jpeg",
		Dimensions: domain.Dimensions{Width: 4000, Height: 3000},
	}
	s.SetSource(src)

	out, err := s.Prepare(context.Background(), PrepareOptions{KeepRatio: true})
	require.NoError(t, err)
	assert.Equal(t, "4:3", out.AspectRatio)
	assert.False(t, out.Padded)
	assert.Empty(t, out.Instruction)
	assert.Equal(t, src.Data, out.Image.Data)
	assert.Equal(t, "image/jpeg", out.Image.MimeType)
	assert.InDelta(t, 4.0/3.0, out.CropRatio, 1e-12)

	t.Run("許容差内のわずかなずれもパディングしない", func(t *testing.T) {
		s.SetSource(domain.SourceImage{Data: []byte("x"), Dimensions: domain.Dimensions{Width: 1000, Height: 1010}})
		out, err := s.Prepare(context.Background(), PrepareOptions{KeepRatio: true})
		require.NoError(t, err)
		assert.Equal(t, "1:1", out.AspectRatio)
		assert.False(t, out.Padded)
	})
}

func TestPrepare_PadsToRequestedRatio(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	s.SetSource(createSource(t, 1000, 1000))

	out, err := s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "21:9", KeepRatio: true})
	require.NoError(t, err)

	assert.True(t, out.Padded)
	assert.Equal(t, "21:9", out.AspectRatio)
	assert.Equal(t, "21:9", out.Image.AspectRatio)
	assert.Equal(t, imgutil.MimePNG, out.Image.MimeType)
	assert.Equal(t, domain.Dimensions{Width: 2333, Height: 1000}, out.Image.Dimensions)
	assert.Equal(t, 667, out.Image.Offset.X)
	assert.Equal(t, 0, out.Image.Offset.Y)
	assert.Equal(t, 1.0, out.CropRatio)
	assert.Equal(t, ProtectedRegionInstruction, out.Instruction)

	// 左端は黒、中央は元画像
	assert.Equal(t, uint8(0), decodeAt(t, out.Image.Data, 0, 500).R)
	assert.Equal(t, patternColor(0, 0), decodeAt(t, out.Image.Data, 667, 0))
}

func TestPrepare_KeepRatioDisabled(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	src := createSource(t, 100, 100)
	s.SetSource(src)

	out, err := s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "16:9"})
	require.NoError(t, err)
	assert.False(t, out.Padded)
	assert.Equal(t, "16:9", out.AspectRatio)
	assert.Zero(t, out.CropRatio)
	assert.Equal(t, src.Data, out.Image.Data)
}

func TestPrepare_InvalidDimensionsFallsBack(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	s.SetSource(domain.SourceImage{Name: "broken", Data: []byte("opaque")})

	out, err := s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "1:1", KeepRatio: true})
	require.NoError(t, err)
	assert.False(t, out.Padded)
	assert.Zero(t, out.CropRatio)
	assert.Equal(t, []byte("opaque"), out.Image.Data)
}

func TestPrepare_DecodeFailureFallsBack(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	s.SetSource(domain.SourceImage{Name: "lying", Data: []byte("not an image"), Dimensions: domain.Dimensions{Width: 100, Height: 50}})

	out, err := s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "1:1", KeepRatio: true})
	require.NoError(t, err)
	assert.False(t, out.Padded)
	assert.Zero(t, out.CropRatio)
	assert.Equal(t, []byte("not an image"), out.Image.Data)
}

func TestPrepare_CanvasTooLargeAborts(t *testing.T) {
	s := newTestSession(t, &mockGenerator{})
	s.SetSource(domain.SourceImage{Name: "strip", Data: []byte("never decoded"), Dimensions: domain.Dimensions{Width: 10, Height: 100000}})

	_, err := s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "21:9", KeepRatio: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, imgutil.ErrCanvasTooLarge)
	assert.NotErrorIs(t, err, imgutil.ErrDecode)

	t.Run("上限は Options で変更できる", func(t *testing.T) {
		s, err := NewSession(&mockGenerator{}, Options{MaxCanvasPixels: 100})
		require.NoError(t, err)
		s.SetSource(domain.SourceImage{Data: []byte("x"), Dimensions: domain.Dimensions{Width: 10, Height: 20}})
		_, err = s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "1:1", KeepRatio: true})
		assert.ErrorIs(t, err, imgutil.ErrCanvasTooLarge)
	})
}

func TestPrepare_ToleranceOption(t *testing.T) {
	s, err := NewSession(&mockGenerator{}, Options{Tolerance: 0.2})
	require.NoError(t, err)
	s.SetSource(domain.SourceImage{Data: []byte("x"), Dimensions: domain.Dimensions{Width: 1100, Height: 1000}})

	out, err := s.Prepare(context.Background(), PrepareOptions{RequestedRatio: "1:1", KeepRatio: true})
	require.NoError(t, err)
	assert.False(t, out.Padded)
}

func TestPrepare_UsesTakenSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, &mockGenerator{})
	s.SetSource(createSource(t, 40, 20))

	src, epoch, ok := s.snapshot()
	require.True(t, ok)
	s.Clear()

	t.Run("スナップショット取得後にクリアされても準備は完了する", func(t *testing.T) {
		out, err := s.prepare(ctx, src, epoch, PrepareOptions{RequestedRatio: "1:1", KeepRatio: true})
		require.NoError(t, err)
		assert.True(t, out.Padded)
		assert.Equal(t, domain.Dimensions{Width: 40, Height: 40}, out.Image.Dimensions)

		_, err = s.Finish(ctx, out, []domain.GeneratedImage{{Data: out.Image.Data, MimeType: imgutil.MimePNG}})
		assert.ErrorIs(t, err, ErrStalePreparation)
	})
}

func TestProtectedRegionInstruction(t *testing.T) {
	text := strings.ToLower(ProtectedRegionInstruction)

	t.Run("黒帯を保護領域として純黒のまま残すよう指示する", func(t *testing.T) {
		assert.Contains(t, text, "black bars")
		assert.Contains(t, text, "protected region")
		assert.Contains(t, text, "#000000")
		assert.Contains(t, text, "pure black")
	})

	t.Run("黒帯への描き込み・延長・着色・スタイル化を禁止する", func(t *testing.T) {
		for _, verb := range []string{"extend", "draw into", "recolor", "stylize"} {
			assert.Contains(t, text, verb)
		}
		assert.Contains(t, text, "do not")
	})

	t.Run("黒帯を埋めるような指示は含まない", func(t *testing.T) {
		for _, phrase := range []string{"fill those areas", "natural continuation", "never leave black"} {
			assert.NotContains(t, text, phrase)
		}
	})
}

func TestOutbound_SystemPrompt(t *testing.T) {
	var nilOut *Outbound
	assert.Equal(t, "user", nilOut.SystemPrompt(" user "))

	plain := &Outbound{}
	assert.Equal(t, "user", plain.SystemPrompt("user"))

	padded := &Outbound{Instruction: ProtectedRegionInstruction}
	assert.Equal(t, ProtectedRegionInstruction, padded.SystemPrompt(""))
	assert.Equal(t, ProtectedRegionInstruction+"\n\nuser", padded.SystemPrompt("user"))
}

func TestFinish(t *testing.T) {
	ctx := context.Background()

	t.Run("元画像が差し替えられた後の Outbound は使えない", func(t *testing.T) {
		s := newTestSession(t, &mockGenerator{})
		s.SetSource(createSource(t, 40, 20))
		out, err := s.Prepare(ctx, PrepareOptions{RequestedRatio: "1:1", KeepRatio: true})
		require.NoError(t, err)

		s.SetSource(createSource(t, 20, 40))
		_, err = s.Finish(ctx, out, []domain.GeneratedImage{{Data: out.Image.Data}})
		assert.ErrorIs(t, err, ErrStalePreparation)

		s.Clear()
		_, err = s.Finish(ctx, out, nil)
		assert.ErrorIs(t, err, ErrStalePreparation)
	})

	t.Run("クロップ失敗は警告付きで元の生成画像を返す", func(t *testing.T) {
		s := newTestSession(t, &mockGenerator{})
		s.SetSource(createSource(t, 40, 20))
		out, err := s.Prepare(ctx, PrepareOptions{RequestedRatio: "1:1", KeepRatio: true})
		require.NoError(t, err)

		broken := domain.GeneratedImage{Data: []byte("garbage"), MimeType: "image/png"}
		results, err := s.Finish(ctx, out, []domain.GeneratedImage{broken, {Data: out.Image.Data, MimeType: imgutil.MimePNG}})
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Nil(t, results[0].Cropped)
		assert.Equal(t, CropFailedWarning, results[0].Warning)
		assert.Equal(t, broken, results[0].Original)

		require.NotNil(t, results[1].Cropped)
		assert.True(t, results[1].Cropped.Cropped)
		assert.Equal(t, domain.Dimensions{Width: 40, Height: 20}, results[1].Cropped.Dimensions)
		assert.Empty(t, results[1].Warning)

		assert.Len(t, s.Results(), 2)
	})

	t.Run("Outbound なしはクロップしない", func(t *testing.T) {
		s := newTestSession(t, &mockGenerator{})
		results, err := s.Finish(ctx, nil, []domain.GeneratedImage{{Data: []byte("x")}})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Nil(t, results[0].Cropped)
		assert.Empty(t, results[0].Warning)
	})
}
