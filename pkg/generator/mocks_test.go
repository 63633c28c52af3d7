package generator

import (
	"context"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

// --- Mocks ---

type mockCaptioner struct {
	calls   int
	lastReq *domain.CaptionRequest
	text    string
	err     error
}

func (m *mockCaptioner) Caption(ctx context.Context, req *domain.CaptionRequest) (string, error) {
	m.calls++
	m.lastReq = req
	return m.text, m.err
}

type mockBuilder struct {
	buildFunc func(image domain.ImageAsset, vibe domain.VibeDescription) (*domain.CaptionRequest, error)
}

func (m *mockBuilder) BuildRequest(image domain.ImageAsset, vibe domain.VibeDescription) (*domain.CaptionRequest, error) {
	if m.buildFunc != nil {
		return m.buildFunc(image, vibe)
	}
	return &domain.CaptionRequest{}, nil
}
