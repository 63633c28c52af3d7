package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

// NormalizeMIMEType は宣言された MIME タイプを小文字化し、パラメータを除去します。
// ブラウザが送ってくる image/jpg や image/pjpeg は image/jpeg に揃えます。
func NormalizeMIMEType(declared string) string {
	mt := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	switch mt {
	case "image/jpg", "image/pjpeg":
		return domain.MIMETypeJPEG
	}
	return mt
}

// DetectMIMEType はバイト列の先頭から MIME タイプを推定します。
func DetectMIMEType(data []byte) string {
	return NormalizeMIMEType(http.DetectContentType(data))
}

// ResolveMIMEType は宣言値を優先し、未対応なら内容から推定した値を採用します。
// どちらも JPEG/PNG でなければエラーを返します。
func ResolveMIMEType(data []byte, declared string) (string, error) {
	if mt := NormalizeMIMEType(declared); domain.IsSupportedMIMEType(mt) {
		return mt, nil
	}
	detected := DetectMIMEType(data)
	if domain.IsSupportedMIMEType(detected) {
		return detected, nil
	}
	return "", fmt.Errorf("unsupported image type: declared=%q detected=%q", declared, detected)
}

// Dimensions は画像をデコードせずにヘッダからサイズとフォーマットを読み取ります。
func Dimensions(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", err
	}
	return cfg.Width, cfg.Height, format, nil
}
