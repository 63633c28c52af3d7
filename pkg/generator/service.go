package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/insta-caption-kit/pkg/adapters"
	"github.com/shouni/insta-caption-kit/pkg/domain"
	"github.com/shouni/insta-caption-kit/pkg/utils"
)

// CaptionService は画像とバイブからキャプションを1回の API 呼び出しで生成するサービスです。
type CaptionService struct {
	builder   RequestBuilder
	captioner adapters.Captioner
	opts      Options
}

// NewCaptionService は CaptionService を初期化するのだ。
func NewCaptionService(builder RequestBuilder, captioner adapters.Captioner, opts Options) (*CaptionService, error) {
	if builder == nil {
		return nil, fmt.Errorf("builder (RequestBuilder) is required")
	}
	if captioner == nil {
		return nil, fmt.Errorf("captioner (adapters.Captioner) is required")
	}
	return &CaptionService{
		builder:   builder,
		captioner: captioner,
		opts:      opts,
	}, nil
}

// GenerateCaption は入力を検証し、問題が無ければバックエンドを1回だけ呼び出します。
// 入力不足のときはネットワーク呼び出しを行わずに domain.ErrMissingInput を返します。
func (s *CaptionService) GenerateCaption(ctx context.Context, image domain.ImageAsset, vibe domain.VibeDescription) (*domain.Caption, error) {
	req, err := s.builder.BuildRequest(image, vibe)
	if err != nil {
		slog.WarnContext(ctx, "入力が不足しているためキャプション生成をスキップしました", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "キャプション生成リクエスト準備中", "mime_type", image.MIMEType, "image_bytes", image.Size())

	text, err := s.captioner.Caption(ctx, req)
	if err != nil {
		slog.WarnContext(ctx, "キャプション生成に失敗しました", "kind", domain.KindOf(err).String(), "error", err)
		return nil, fmt.Errorf("キャプション生成エラー: %w", err)
	}

	caption := &domain.Caption{Text: text}
	if s.opts.SplitOptions {
		caption.Options = utils.SplitOptions(text)
	}
	return caption, nil
}
