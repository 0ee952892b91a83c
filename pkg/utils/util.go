package utils

import (
	"fmt"
	"strconv"
)

// DereferenceSeed は、int64のポインタを安全にデリファレンスします。
// ポインタがnilの場合は0を返します。
func DereferenceSeed(seed *int64) int64 {
	if seed == nil {
		return 0
	}
	return *seed
}

var byteUnits = []string{"B", "KB", "MB", "GB"}

// HumanBytes はバイト数を 1024 基数の読みやすい表記に変換します。
// 10 未満の値（B 以外）だけ小数点以下 1 桁を表示します。
func HumanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	prec := 1
	if v >= 10 || i == 0 {
		prec = 0
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(v, 'f', prec, 64), byteUnits[i])
}
