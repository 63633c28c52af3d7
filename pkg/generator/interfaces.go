package generator

import (
	"context"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

// CaptionGenerator はプレゼンテーション層が利用する統合窓口です。
type CaptionGenerator interface {
	GenerateCaption(ctx context.Context, image domain.ImageAsset, vibe domain.VibeDescription) (*domain.Caption, error)
}

// RequestBuilder は入力を検証して API 向けリクエストを組み立てるためのインターフェースです。
type RequestBuilder interface {
	// BuildRequest は入力不足のとき domain.ErrMissingInput に一致するエラーを返します。
	BuildRequest(image domain.ImageAsset, vibe domain.VibeDescription) (*domain.CaptionRequest, error)
}
