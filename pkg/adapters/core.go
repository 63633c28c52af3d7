package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

// VibePlaceholder はプロンプトテンプレート中でバイブ文字列に置換される箇所です。
const VibePlaceholder = "{{vibe}}"

// DefaultInstructionTemplate はキャプション生成の指示文です。
const DefaultInstructionTemplate = "Generate a short, catchy Instagram caption for this image. " +
	"Match this vibe: " + VibePlaceholder + ". " +
	"Keep it concise and include a few fitting emojis and hashtags."

// Captioner は CaptionRequest を外部 API に送信し、キャプション文字列を返すバックエンドです。
// 失敗時は domain.CaptionError を返します。
type Captioner interface {
	Caption(ctx context.Context, req *domain.CaptionRequest) (string, error)
}

// CaptionCore はリクエスト組み立てとレスポンス解析の共通ロジックを保持するコンポーネントです。
type CaptionCore struct {
	template string
}

// NewCaptionCore は指示文テンプレートを指定して CaptionCore を生成します。
// 空文字列の場合は DefaultInstructionTemplate を使います。
func NewCaptionCore(template string) *CaptionCore {
	if strings.TrimSpace(template) == "" {
		template = DefaultInstructionTemplate
	}
	return &CaptionCore{template: template}
}

// BuildRequest は画像とバイブから2パーツ構成のリクエストを組み立てます。
// 入力が不足している場合は KindMissingInput を返し、エンコードは行いません。
func (c *CaptionCore) BuildRequest(image domain.ImageAsset, vibe domain.VibeDescription) (*domain.CaptionRequest, error) {
	if err := domain.ValidateInput(image, vibe); err != nil {
		return nil, err
	}
	return &domain.CaptionRequest{
		Instruction: c.BuildInstruction(vibe),
		Image: domain.InlineData{
			MIMEType: image.MIMEType,
			Data:     EncodeImage(image.Data),
		},
	}, nil
}

// BuildInstruction はテンプレートにバイブ文字列をエスケープせずに埋め込みます。
// テンプレートにプレースホルダが無い場合は末尾に追記します。
func (c *CaptionCore) BuildInstruction(vibe domain.VibeDescription) string {
	text := vibe.Trimmed()
	if !strings.Contains(c.template, VibePlaceholder) {
		return c.template + "\nVibe: " + text
	}
	return strings.ReplaceAll(c.template, VibePlaceholder, text)
}

// EncodeImage は標準アルファベット・改行なしの base64 に変換します。
func EncodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// --- wire format ---

type generateRequest struct {
	Contents []wireContent `json:"contents"`
}

type wireContent struct {
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inline_data,omitempty"`
}

type wireInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// MarshalRequest は CaptionRequest を generateContent の JSON ボディに変換します。
func MarshalRequest(req *domain.CaptionRequest) ([]byte, error) {
	body := generateRequest{
		Contents: []wireContent{{
			Parts: []wirePart{
				{Text: req.Instruction},
				{InlineData: &wireInlineData{MIMEType: req.Image.MIMEType, Data: req.Image.Data}},
			},
		}},
	}
	return json.Marshal(body)
}

// ParseResponse は 200 応答のボディから最初の候補・最初のパーツのテキストを取り出します。
// 構造が欠けている場合やテキストが空の場合は panic せず KindMalformedResponse を返します。
func ParseResponse(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.NewMalformedResponse("invalid json: "+err.Error(), body)
	}
	// 最初の候補 (Candidate) のみを利用する。
	if len(resp.Candidates) == 0 {
		return "", domain.NewMalformedResponse("no candidates", body)
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", domain.NewMalformedResponse("no content parts", body)
	}
	text := content.Parts[0].Text
	if text == nil || *text == "" {
		return "", domain.NewMalformedResponse("first part has no text", body)
	}
	return *text, nil
}
