package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

const (
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice はユーザーに表示するメッセージです。
type Notice struct {
	Level   string
	Message string
	// Raw は MalformedResponse のときの診断用生レスポンスです。
	Raw string
}

// NoticeFor はエラー種別ごとに異なるユーザー向けメッセージを返します。
func NoticeFor(err error) Notice {
	var ce *domain.CaptionError
	if !errors.As(err, &ce) {
		return Notice{Level: LevelError, Message: "Something went wrong: " + err.Error()}
	}
	switch ce.Kind {
	case domain.KindMissingInput:
		return Notice{Level: LevelWarning, Message: "Please upload a JPEG or PNG image and describe the vibe."}
	case domain.KindTransportFailure:
		return Notice{Level: LevelError, Message: "Could not reach the caption service: " + ce.Detail}
	case domain.KindAPIFailure:
		return Notice{Level: LevelError, Message: fmt.Sprintf("Caption generation failed. %d: %s", ce.StatusCode, ce.Body)}
	case domain.KindMalformedResponse:
		return Notice{Level: LevelError, Message: "Could not generate a caption.", Raw: ce.Body}
	default:
		return Notice{Level: LevelError, Message: "Something went wrong: " + err.Error()}
	}
}

// statusFor は JSON API で返す HTTP ステータスです。
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindMissingInput:
		return http.StatusBadRequest
	case domain.KindTransportFailure:
		return http.StatusGatewayTimeout
	case domain.KindAPIFailure, domain.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
