package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shouni/insta-caption-kit/pkg/adapters"
	"github.com/shouni/insta-caption-kit/pkg/domain"
	"github.com/shouni/insta-caption-kit/pkg/generator"
	"github.com/shouni/insta-caption-kit/pkg/imgutil"
)

const (
	requestIDHeader = "X-Request-ID"
	// multipartOverhead は画像以外のフォーム部分（境界・ヘッダ・バイブ）のための余裕です。
	multipartOverhead = 1 << 20
)

// errImageTooLarge は画像が maxUploadBytes を超えた場合のエラーです。
var errImageTooLarge = errors.New("image exceeds upload limit")

// CaptionHandler はアップロードフォームとキャプション API を提供します。
type CaptionHandler struct {
	generator      generator.CaptionGenerator
	maxUploadBytes int64
}

// NewCaptionHandler は生成サービスと画像サイズ上限を受け取って CaptionHandler を初期化します。
func NewCaptionHandler(gen generator.CaptionGenerator, maxUploadBytes int64) (*CaptionHandler, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("maxUploadBytes must be positive")
	}
	return &CaptionHandler{generator: gen, maxUploadBytes: maxUploadBytes}, nil
}

// Router はルートを設定した mux.Router を返します。
func (h *CaptionHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/caption", h.HandleCaption).Methods(http.MethodPost)
	r.HandleFunc("/api/caption", h.HandleAPICaption).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	return r
}

// HandleIndex は空のアップロードフォームを表示します。
func (h *CaptionHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, PageView{})
}

// HandleHealth はヘルスチェック用に "ok" を返します。
func (h *CaptionHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// HandleCaption はフォーム送信を処理し、結果を埋め込んだページを返します。
func (h *CaptionHandler) HandleCaption(w http.ResponseWriter, r *http.Request) {
	requestID := h.requestID(w)
	view := PageView{RequestID: requestID}

	image, vibe, err := h.readInput(w, r)
	if err != nil {
		slog.WarnContext(r.Context(), "フォームの読み込みに失敗しました", "request_id", requestID, "error", err)
		view.Notice = &Notice{Level: LevelError, Message: err.Error()}
		h.render(w, inputStatus(err), view)
		return
	}
	view.Vibe = string(vibe)
	if image.Size() > 0 {
		view.PreviewURI = previewURI(image)
	}

	caption, err := h.generator.GenerateCaption(r.Context(), image, vibe)
	if err != nil {
		notice := NoticeFor(err)
		view.Notice = &notice
		h.render(w, http.StatusOK, view)
		return
	}

	slog.InfoContext(r.Context(), "キャプションを生成しました", "request_id", requestID, "options", len(caption.Options))
	view.Caption = caption
	h.render(w, http.StatusOK, view)
}

type apiOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type apiError struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
}

type apiResponse struct {
	RequestID string      `json:"request_id"`
	Caption   string      `json:"caption,omitempty"`
	Options   []apiOption `json:"options,omitempty"`
	Error     *apiError   `json:"error,omitempty"`
}

// HandleAPICaption はフォームと同じ入力を受け取り、結果を JSON で返します。
func (h *CaptionHandler) HandleAPICaption(w http.ResponseWriter, r *http.Request) {
	requestID := h.requestID(w)
	resp := apiResponse{RequestID: requestID}

	image, vibe, err := h.readInput(w, r)
	if err != nil {
		resp.Error = &apiError{Kind: "bad_request", Message: err.Error()}
		writeJSON(w, inputStatus(err), resp)
		return
	}

	caption, err := h.generator.GenerateCaption(r.Context(), image, vibe)
	if err != nil {
		notice := NoticeFor(err)
		ae := &apiError{Kind: domain.KindOf(err).String(), Message: notice.Message}
		var ce *domain.CaptionError
		if errors.As(err, &ce) {
			ae.StatusCode = ce.StatusCode
			ae.Body = ce.Body
		}
		resp.Error = ae
		writeJSON(w, statusFor(err), resp)
		return
	}

	resp.Caption = caption.Text
	for _, opt := range caption.Options {
		resp.Options = append(resp.Options, apiOption{Label: opt.Label, Text: opt.Text})
	}
	writeJSON(w, http.StatusOK, resp)
}

// readInput は multipart フォームから画像とバイブを取り出します。
// 画像が無い場合は空の ImageAsset を返し、判定はサービス側に任せます。
func (h *CaptionHandler) readInput(w http.ResponseWriter, r *http.Request) (domain.ImageAsset, domain.VibeDescription, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return domain.ImageAsset{}, "", fmt.Errorf("invalid upload: %w", err)
	}
	vibe := domain.VibeDescription(r.FormValue("vibe"))

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return domain.ImageAsset{}, vibe, nil
		}
		return domain.ImageAsset{}, vibe, fmt.Errorf("invalid upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return domain.ImageAsset{}, vibe, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return domain.ImageAsset{}, vibe, fmt.Errorf("%w: %d bytes (limit %d)", errImageTooLarge, header.Size, h.maxUploadBytes)
	}

	declared := header.Header.Get("Content-Type")
	mimeType, err := imgutil.ResolveMIMEType(data, declared)
	if err != nil {
		slog.WarnContext(r.Context(), "未対応の画像形式です", "filename", header.Filename, "error", err)
		mimeType = imgutil.NormalizeMIMEType(declared)
	} else if width, height, format, err := imgutil.Dimensions(data); err == nil {
		slog.InfoContext(r.Context(), "画像を受け付けました", "filename", header.Filename, "format", format, "width", width, "height", height, "bytes", len(data))
	}

	return domain.ImageAsset{Data: data, MIMEType: mimeType}, vibe, nil
}

// inputStatus は readInput のエラーを HTTP ステータスに変換します。
func inputStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, errImageTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *CaptionHandler) requestID(w http.ResponseWriter) string {
	id := uuid.NewString()
	w.Header().Set(requestIDHeader, id)
	return id
}

func (h *CaptionHandler) render(w http.ResponseWriter, status int, view PageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		slog.Error("テンプレートの描画に失敗しました", "error", err)
	}
}

func previewURI(image domain.ImageAsset) template.URL {
	return template.URL("data:" + image.MIMEType + ";base64," + adapters.EncodeImage(image.Data))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSONレスポンスの書き込みに失敗しました", "error", err)
	}
}
