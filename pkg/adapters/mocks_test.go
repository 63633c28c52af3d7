package adapters

import (
	"context"
	"net/http"

	"google.golang.org/genai"
)

// mockContentGenerator は ContentGenerator インターフェースのテスト用モックなのだ。
type mockContentGenerator struct {
	generateFunc func(model string, contents []*genai.Content) (*genai.GenerateContentResponse, error)
	calls        int
}

func (m *mockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(model, contents)
	}
	return nil, nil
}

// roundTripFunc は http.RoundTripper を関数で差し替えるためのヘルパーなのだ。
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}
