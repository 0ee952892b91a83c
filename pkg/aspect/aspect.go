package aspect

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CloseTolerance は「既にサポート比率とみなす」相対差のしきい値です。
// UI で経験的に決めた値なので、Matcher.Tolerance で上書きできます。
const CloseTolerance = 0.012

// SupportedRatios は imageConfig.aspectRatio に指定できる比率の一覧です。
// Closest の同率タイはこの並び順で先勝ちになります。
var SupportedRatios = []string{
	"1:1",
	"2:3",
	"3:2",
	"3:4",
	"4:3",
	"4:5",
	"5:4",
	"9:16",
	"16:9",
	"21:9",
}

// Ratio は "A:B" 形式の比率です。
type Ratio struct {
	Width  int
	Height int
}

// String は "A:B" 形式に戻します。
func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.Width, r.Height)
}

// Value は A/B の実数値です。
func (r Ratio) Value() float64 {
	return float64(r.Width) / float64(r.Height)
}

// Parse は "16:9" のような文字列を Ratio に変換します。
func Parse(s string) (Ratio, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Ratio{}, errors.New("aspect ratio must be in A:B form")
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Ratio{}, fmt.Errorf("width ratio is not an integer: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Ratio{}, fmt.Errorf("height ratio is not an integer: %w", err)
	}
	if w <= 0 || h <= 0 {
		return Ratio{}, fmt.Errorf("aspect ratio must be positive: %s", s)
	}
	return Ratio{Width: w, Height: h}, nil
}

// IsSupported は s がサポート比率の一覧に含まれるかを返します。
func IsSupported(s string) bool {
	for _, v := range SupportedRatios {
		if v == s {
			return true
		}
	}
	return false
}

// Match は Closest の結果です。
type Match struct {
	Ratio string
	Value float64
	Diff  float64
}

// Matcher はサポート比率への照合を行います。ゼロ値は CloseTolerance を使います。
type Matcher struct {
	Tolerance float64
}

// Closest は r に最も近いサポート比率を返します。
// r は有限の正数であることを呼び出し側が保証してください。
func (Matcher) Closest(r float64) Match {
	best := Match{Diff: math.Inf(1)}
	for _, s := range SupportedRatios {
		parsed, err := Parse(s)
		if err != nil {
			continue
		}
		v := parsed.Value()
		if d := math.Abs(v - r); d < best.Diff {
			best = Match{Ratio: s, Value: v, Diff: d}
		}
	}
	return best
}

// IsClose は original と candidate の相対差がしきい値未満かを返します。
func (m Matcher) IsClose(original, candidate float64) bool {
	if candidate <= 0 {
		return false
	}
	tol := m.Tolerance
	if tol <= 0 {
		tol = CloseTolerance
	}
	return math.Abs(original-candidate)/candidate < tol
}

// Closest はデフォルト Matcher の Closest です。
func Closest(r float64) Match {
	return Matcher{}.Closest(r)
}

// IsClose はデフォルト Matcher の IsClose です。
func IsClose(original, candidate float64) bool {
	return Matcher{}.IsClose(original, candidate)
}
