package utils

import (
	"fmt"
	"strings"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

// OptionMarker はモデルが複数案を列挙するときに使う区切り文字列です。
const OptionMarker = "Option"

// SplitOptions は生のモデル出力を OptionMarker で分割し、前後の空白を除いた
// 空でない断片に出現順で "Option 0", "Option 1", ... とラベルを付けます。
// マーカーを含まない場合は、入力全体を trim した1件だけを返します。
func SplitOptions(raw string) []domain.CaptionOption {
	segments := strings.Split(raw, OptionMarker)
	options := make([]domain.CaptionOption, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		options = append(options, domain.CaptionOption{
			Label: fmt.Sprintf("%s %d", OptionMarker, len(options)),
			Text:  seg,
		})
	}
	return options
}
