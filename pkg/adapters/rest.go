package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

const (
	// APIKeyHeader は API キーを渡すヘッダです。クエリパラメータは使いません。
	APIKeyHeader = "X-goog-api-key"
	// DefaultTimeout は HTTP クライアントが未指定のときのタイムアウトです。
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 10 * 1024 * 1024
)

// HTTPClient は HTTP リクエストを実行するためのインターフェースです。
// httpkit.Client の Do はリトライせず生の *http.Response を返すため、そのまま満たします。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTCaptioner は generateContent エンドポイントに JSON を直接 POST するバックエンドです。
type RESTCaptioner struct {
	httpClient HTTPClient
	endpoint   string
	apiKey     string
}

// NewRESTCaptioner は依存関係を注入して RESTCaptioner を初期化します。
// httpClient が nil の場合は DefaultTimeout を持つ httpkit.Client を使います。
func NewRESTCaptioner(endpoint, apiKey string, httpClient HTTPClient) (*RESTCaptioner, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}
	if httpClient == nil {
		httpClient = httpkit.New(DefaultTimeout)
	}
	return &RESTCaptioner{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
	}, nil
}

// Caption はリクエストを1回だけ送信します。リトライは行いません。
func (r *RESTCaptioner) Caption(ctx context.Context, req *domain.CaptionRequest) (string, error) {
	payload, err := MarshalRequest(req)
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(APIKeyHeader, r.apiKey)

	start := time.Now()
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		slog.WarnContext(ctx, "キャプションAPIへの通信に失敗しました", "error", err, "elapsed", time.Since(start))
		return "", domain.NewTransportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.NewTransportFailure(err)
	}

	slog.InfoContext(ctx, "キャプションAPIが応答しました", "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewAPIFailure(resp.StatusCode, string(body))
	}
	return ParseResponse(body)
}
