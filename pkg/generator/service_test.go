package generator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/insta-caption-kit/pkg/adapters"
	"github.com/shouni/insta-caption-kit/pkg/domain"
)

var (
	testJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	testPNG  = []byte("\x89PNG\r\n\x1a\n")
)

func TestNewCaptionService(t *testing.T) {
	t.Run("nilチェック: 依存関係が足りない場合はエラーを返すのだ", func(t *testing.T) {
		_, err := NewCaptionService(nil, &mockCaptioner{}, Options{})
		assert.Error(t, err)

		_, err = NewCaptionService(adapters.NewCaptionCore(""), nil, Options{})
		assert.Error(t, err)
	})
}

func TestCaptionService_GenerateCaption(t *testing.T) {
	ctx := context.Background()

	t.Run("入力不足ならネットワーク呼び出しをしないのだ", func(t *testing.T) {
		inputs := []struct {
			name  string
			image domain.ImageAsset
			vibe  domain.VibeDescription
		}{
			{"画像なし", domain.ImageAsset{}, "sunset"},
			{"空の画像", domain.ImageAsset{Data: []byte{}, MIMEType: domain.MIMETypeJPEG}, "sunset"},
			{"MIMEなし", domain.ImageAsset{Data: testJPEG}, "sunset"},
			{"バイブなし", domain.ImageAsset{Data: testJPEG, MIMEType: domain.MIMETypeJPEG}, ""},
			{"空白だけのバイブ", domain.ImageAsset{Data: testPNG, MIMEType: domain.MIMETypePNG}, "  \t"},
		}
		for _, in := range inputs {
			t.Run(in.name, func(t *testing.T) {
				captioner := &mockCaptioner{text: "never"}
				svc, err := NewCaptionService(adapters.NewCaptionCore(""), captioner, Options{})
				require.NoError(t, err)

				_, err = svc.GenerateCaption(ctx, in.image, in.vibe)

				assert.ErrorIs(t, err, domain.ErrMissingInput)
				assert.Equal(t, 0, captioner.calls)
			})
		}
	})

	t.Run("成功: キャプションが返り、Options は無効なら空", func(t *testing.T) {
		captioner := &mockCaptioner{text: "Sunny day! #beach #vibes"}
		svc, _ := NewCaptionService(adapters.NewCaptionCore(""), captioner, Options{})

		caption, err := svc.GenerateCaption(ctx, domain.ImageAsset{Data: testJPEG, MIMEType: domain.MIMETypeJPEG}, "beach")

		require.NoError(t, err)
		assert.Equal(t, "Sunny day! #beach #vibes", caption.Text)
		assert.Empty(t, caption.Options)
		assert.Equal(t, 1, captioner.calls)
		assert.Contains(t, captioner.lastReq.Instruction, "beach")
	})

	t.Run("成功: SplitOptions 有効時は候補が分割されるのだ", func(t *testing.T) {
		captioner := &mockCaptioner{text: "Option1: Hi! #a\nOption2: Yo! #b"}
		svc, _ := NewCaptionService(adapters.NewCaptionCore(""), captioner, Options{SplitOptions: true})

		caption, err := svc.GenerateCaption(ctx, domain.ImageAsset{Data: testPNG, MIMEType: domain.MIMETypePNG}, "fun")

		require.NoError(t, err)
		require.Len(t, caption.Options, 2)
		assert.Equal(t, "Option 0", caption.Options[0].Label)
		assert.Equal(t, "1: Hi! #a", caption.Options[0].Text)
		assert.Equal(t, "Option 1", caption.Options[1].Label)
	})

	t.Run("失敗: バックエンドのエラーは種別を保ったままラップされるのだ", func(t *testing.T) {
		captioner := &mockCaptioner{err: domain.NewAPIFailure(500, "boom")}
		svc, _ := NewCaptionService(&mockBuilder{}, captioner, Options{})

		_, err := svc.GenerateCaption(ctx, domain.ImageAsset{}, "")

		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "キャプション生成エラー"), "error should contain context message: %v", err)
		assert.ErrorIs(t, err, domain.ErrAPIFailure)
	})

	t.Run("失敗: ビルダーのエラーはそのまま返す", func(t *testing.T) {
		expected := errors.New("builder error")
		captioner := &mockCaptioner{}
		svc, _ := NewCaptionService(&mockBuilder{buildFunc: func(domain.ImageAsset, domain.VibeDescription) (*domain.CaptionRequest, error) {
			return nil, expected
		}}, captioner, Options{})

		_, err := svc.GenerateCaption(ctx, domain.ImageAsset{}, "")

		assert.ErrorIs(t, err, expected)
		assert.Equal(t, 0, captioner.calls)
	})
}

// REST バックエンドと組み合わせたときの振る舞いをスタブサーバーで確認するのだ。
func TestCaptionService_WithRESTBackend(t *testing.T) {
	ctx := context.Background()
	image := domain.ImageAsset{Data: testJPEG, MIMEType: domain.MIMETypeJPEG}

	newService := func(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*CaptionService, *int32) {
		t.Helper()
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			handler(w, r)
		}))
		t.Cleanup(srv.Close)

		client := srv.Client()
		client.Timeout = timeout
		rest, err := adapters.NewRESTCaptioner(srv.URL, "test-key", client)
		require.NoError(t, err)
		svc, err := NewCaptionService(adapters.NewCaptionCore(""), rest, Options{SplitOptions: true})
		require.NoError(t, err)
		return svc, &hits
	}

	t.Run("正常な応答", func(t *testing.T) {
		svc, hits := newService(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Sunny day! #beach #vibes"}]}}]}`)
		}, time.Second)

		caption, err := svc.GenerateCaption(ctx, image, "beach")

		require.NoError(t, err)
		assert.Equal(t, "Sunny day! #beach #vibes", caption.Text)
		require.Len(t, caption.Options, 1)
		assert.Equal(t, "Sunny day! #beach #vibes", caption.Options[0].Text)
		assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	})

	t.Run("403", func(t *testing.T) {
		svc, hits := newService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":"bad key"}`)
		}, time.Second)

		_, err := svc.GenerateCaption(ctx, image, "beach")

		var ce *domain.CaptionError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, domain.KindAPIFailure, ce.Kind)
		assert.Equal(t, 403, ce.StatusCode)
		assert.Equal(t, `{"error":"bad key"}`, ce.Body)
		assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	})

	t.Run("空オブジェクト", func(t *testing.T) {
		svc, _ := newService(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		}, time.Second)

		_, err := svc.GenerateCaption(ctx, image, "beach")
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("タイムアウト", func(t *testing.T) {
		svc, hits := newService(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}, 100*time.Millisecond)

		start := time.Now()
		_, err := svc.GenerateCaption(ctx, image, "beach")

		assert.ErrorIs(t, err, domain.ErrTransportFailure)
		assert.Less(t, time.Since(start), time.Second)
		assert.EqualValues(t, 1, atomic.LoadInt32(hits))
	})
}
