package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/httperr"
)

// Errors는 하위 단계가 반환한 에러를 {"message": ...} JSON 응답으로 바꿉니다.
// 응답 헤더가 이미 전송되었다면 에러를 그대로 반환합니다.
func Errors() core.Middleware {
	return func(next core.Handler) core.Handler {
		return func(ctx core.Context) error {
			err := next(ctx)
			if err == nil {
				return nil
			}
			if ctx.Response().HasStarted() {
				return err
			}
			return WriteError(ctx, err)
		}
	}
}

// WriteError는 HTTPError면 그 상태 코드를, 아니면 500을 사용합니다.
func WriteError(ctx core.Context, err error) error {
	status := http.StatusInternalServerError
	message := err.Error()

	// HTTPError면 상태 코드를 추출한다.
	var httpErr *httperr.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Status
		message = httpErr.Message
	}

	if status >= http.StatusInternalServerError {
		slog.Error("[Bridge] 요청 처리 실패", "trace_id", ctx.TraceIdentifier(), "err", err)
	}

	return JSON(ctx, status, map[string]any{
		"message": message,
	})
}
