package pipeline

import "errors"

var (
	// ErrNoSource は元画像が設定されていない状態で準備を要求した場合のエラーです。
	ErrNoSource = errors.New("no source image")
	// ErrStalePreparation は元画像が差し替え・クリアされた後に古い準備結果を使おうとした場合のエラーです。
	ErrStalePreparation = errors.New("prepared image belongs to a replaced or cleared source")
	// ErrRequestInFlight は同じ Session で別のリクエストが進行中の場合のエラーです。
	ErrRequestInFlight = errors.New("another request is already in flight")
	// ErrUnsupportedRatio はサポート外のアスペクト比が指定された場合のエラーです。
	ErrUnsupportedRatio = errors.New("unsupported aspect ratio")
)

// CropFailedWarning はクロップに失敗し、生成画像をそのまま表示する際の警告文です。
const CropFailedWarning = "crop failed, showing original output"

// StaleCropWarning はリクエスト中に元画像が差し替えられたためクロップを行わなかった際の警告文です。
const StaleCropWarning = "source image changed during the request, showing original output"
