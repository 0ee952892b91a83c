package domain

import "image"

// Dimensions は画像の幅と高さ（ピクセル）です。
type Dimensions struct {
	Width  int
	Height int
}

// Valid は幅と高さがともに正の値かを返します。
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// Ratio は幅/高さの比率を返します。不正な寸法の場合は 0 を返します。
func (d Dimensions) Ratio() float64 {
	if !d.Valid() {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// Pixels は総ピクセル数です。
func (d Dimensions) Pixels() int64 {
	return int64(d.Width) * int64(d.Height)
}

// SourceImage はユーザーが指定した入力画像です。読み込み後は変更しません。
type SourceImage struct {
	Name       string
	Data       []byte
	MimeType   string
	Dimensions Dimensions
}

// PreparedImage は実際に API へ送信する画像です。
// Padded が false の場合、Data は SourceImage のバイト列そのものです。
type PreparedImage struct {
	Data        []byte
	MimeType    string
	Dimensions  Dimensions
	AspectRatio string      // imageConfig.aspectRatio に載せるサポート比率 ("16:9" など)
	Padded      bool        // 黒帯パディングを適用したか
	Offset      image.Point // パディング後のキャンバス上での元画像の左上位置
}

// GeneratedImage は API のレスポンスに含まれていた画像です。
type GeneratedImage struct {
	Data     []byte
	MimeType string
}

// CroppedImage は GeneratedImage を元画像の比率に中央クロップした結果です。
// Cropped が false の場合は比率が既に一致しており、Data は生成画像そのものです。
type CroppedImage struct {
	Data       []byte
	MimeType   string
	Dimensions Dimensions
	Cropped    bool
}

// ImageResult は描画側に渡す1枚分の成果物です。
// Cropped が nil の場合はクロップ未要求、または失敗して Original のみを表示します。
type ImageResult struct {
	Original GeneratedImage
	Cropped  *CroppedImage
	Warning  string
}
