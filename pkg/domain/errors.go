package domain

import (
	"errors"
	"fmt"
)

// ErrorKind はキャプション生成失敗の分類です。
type ErrorKind int

const (
	KindMissingInput ErrorKind = iota + 1
	KindTransportFailure
	KindAPIFailure
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingInput:
		return "missing_input"
	case KindTransportFailure:
		return "transport_failure"
	case KindAPIFailure:
		return "api_failure"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// errors.Is で種別判定するための番兵エラーです。
var (
	ErrMissingInput      = &CaptionError{Kind: KindMissingInput}
	ErrTransportFailure  = &CaptionError{Kind: KindTransportFailure}
	ErrAPIFailure        = &CaptionError{Kind: KindAPIFailure}
	ErrMalformedResponse = &CaptionError{Kind: KindMalformedResponse}
)

// CaptionError は GenerateCaption が返す分類済みエラーです。
// どの種別も現在の呼び出しに対して終端的で、内部でリトライされることはありません。
type CaptionError struct {
	Kind ErrorKind
	// StatusCode と Body は KindAPIFailure のときのみ設定されます。
	StatusCode int
	// Body は KindMalformedResponse のとき、診断用に生レスポンスを保持します。
	Body   string
	Detail string
	Err    error
}

func (e *CaptionError) Error() string {
	switch e.Kind {
	case KindAPIFailure:
		return fmt.Sprintf("caption api failure: %d: %s", e.StatusCode, e.Body)
	case KindTransportFailure:
		return fmt.Sprintf("caption transport failure: %s", e.detail())
	case KindMalformedResponse:
		return "caption response malformed: " + e.detail()
	case KindMissingInput:
		return "caption input missing: " + e.detail()
	default:
		return "caption error: " + e.detail()
	}
}

func (e *CaptionError) detail() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *CaptionError) Unwrap() error {
	return e.Err
}

// Is は Kind が一致する CaptionError を同一とみなします。
func (e *CaptionError) Is(target error) bool {
	var t *CaptionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf は err に含まれる CaptionError の種別を返します。該当しなければ 0 です。
func KindOf(err error) ErrorKind {
	var ce *CaptionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// NewTransportFailure は通信層のエラーを KindTransportFailure に包みます。
func NewTransportFailure(err error) *CaptionError {
	return &CaptionError{Kind: KindTransportFailure, Detail: err.Error(), Err: err}
}

// NewAPIFailure は非200応答を表すエラーを作ります。Body はそのまま保持します。
func NewAPIFailure(statusCode int, body string) *CaptionError {
	return &CaptionError{Kind: KindAPIFailure, StatusCode: statusCode, Body: body}
}

// NewMalformedResponse は期待した構造が応答に無い場合のエラーを作ります。
func NewMalformedResponse(detail string, raw []byte) *CaptionError {
	return &CaptionError{Kind: KindMalformedResponse, Detail: detail, Body: string(raw)}
}
