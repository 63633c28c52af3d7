package adapters

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shouni/insta-caption-kit/pkg/domain"
	"google.golang.org/genai"
)

// ContentGenerator は genai.Models のうち、このアダプターが利用するメソッドだけを切り出したものです。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAICaptioner は google.golang.org/genai SDK 経由でキャプションを生成するバックエンドです。
type GenAICaptioner struct {
	models ContentGenerator
	model  string
}

// NewGenAICaptioner は依存関係を注入してアダプターのインスタンスを作成する。
func NewGenAICaptioner(models ContentGenerator, model string) (*GenAICaptioner, error) {
	if models == nil {
		return nil, fmt.Errorf("models (ContentGenerator) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &GenAICaptioner{models: models, model: model}, nil
}

// NewGenAIClient は Gemini API バックエンド向けの genai.Client を生成します。
// baseURL が空なら SDK の既定値を使います。
func NewGenAIClient(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

// Caption はテキストパーツと画像パーツをこの順序で SDK に渡し、1回だけ生成を実行します。
func (g *GenAICaptioner) Caption(ctx context.Context, req *domain.CaptionRequest) (string, error) {
	data, err := base64.StdEncoding.DecodeString(req.Image.Data)
	if err != nil {
		return "", fmt.Errorf("画像データのデコードに失敗しました: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Instruction),
		genai.NewPartFromBytes(data, req.Image.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	slog.InfoContext(ctx, "Geminiにキャプション生成をリクエストします", "model", g.model, "mime_type", req.Image.MIMEType)
	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", classifySDKError(err)
	}
	return parseSDKResponse(resp)
}

func classifySDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewAPIFailure(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return domain.NewAPIFailure(apiErrPtr.Code, apiErrPtr.Message)
	}
	return domain.NewTransportFailure(err)
}

func parseSDKResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", domain.NewMalformedResponse("no candidates", nil)
	}

	// Geminiからの最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]
	if candidate.Content != nil && len(candidate.Content.Parts) > 0 && candidate.Content.Parts[0].Text != "" {
		return candidate.Content.Parts[0].Text, nil
	}

	// 安全フィルター等によるブロックの確認
	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
	default:
		return "", domain.NewMalformedResponse(fmt.Sprintf("generation stopped (FinishReason: %s)", candidate.FinishReason), nil)
	}
	return "", domain.NewMalformedResponse("first part has no text", nil)
}
