package domain

import (
	"fmt"
	"strings"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
)

// ImageAsset はアップロードされた画像のバイト列と宣言された MIME タイプです。
// 1リクエストの間だけ保持され、エンコード後は破棄されます。
type ImageAsset struct {
	Data     []byte
	MIMEType string
}

// Size は画像のバイト長を返します。
func (a ImageAsset) Size() int {
	return len(a.Data)
}

// IsSupportedMIMEType は JPEG か PNG の場合に true を返します。
func IsSupportedMIMEType(mimeType string) bool {
	return mimeType == MIMETypeJPEG || mimeType == MIMETypePNG
}

// VibeDescription はキャプションのトーンを決めるユーザー入力です。
type VibeDescription string

// Trimmed は前後の空白を取り除いた文字列を返します。正規化はこれだけです。
func (v VibeDescription) Trimmed() string {
	return strings.TrimSpace(string(v))
}

// InlineData は base64 化された画像パーツです。
type InlineData struct {
	MIMEType string
	Data     string
}

// CaptionRequest は API に送る2パーツ構成のリクエストです。
// Instruction が先、Image が後の順序で送信されます。
type CaptionRequest struct {
	Instruction string
	Image       InlineData
}

// Caption は生成されたキャプションです。
type Caption struct {
	Text    string
	Options []CaptionOption
}

// CaptionOption はモデルが提案した候補の1つです。
type CaptionOption struct {
	Label string
	Text  string
}

// ValidateInput は画像とバイブの両方が揃っているかを検証します。
// 不足している場合は KindMissingInput の CaptionError を返します。
func ValidateInput(image ImageAsset, vibe VibeDescription) error {
	if image.Size() == 0 {
		return &CaptionError{Kind: KindMissingInput, Detail: "image is empty"}
	}
	if !IsSupportedMIMEType(image.MIMEType) {
		return &CaptionError{Kind: KindMissingInput, Detail: fmt.Sprintf("unsupported mime type: %q", image.MIMEType)}
	}
	if vibe.Trimmed() == "" {
		return &CaptionError{Kind: KindMissingInput, Detail: "vibe description is empty"}
	}
	return nil
}
