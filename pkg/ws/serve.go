package ws

import (
	"context"
	"errors"
	"log/slog"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/event/publish"
)

// Serve는 현재 요청을 WebSocket으로 전환하고 연결이 닫힐 때까지 메시지 루프를 돌립니다.
// 메시지마다 수집된 도메인 이벤트는 요청 범위 컨테이너의 core.EventPublisher로 내보냅니다.
func Serve(ctx core.Context, subprotocol string, handler HandlerFunc) error {
	reqCtx := ctx.Context()

	conn, err := ctx.WebSockets().Accept(reqCtx, subprotocol)
	if err != nil {
		return err
	}
	defer conn.Close(core.CloseNormalClosure, "")

	path := ctx.Request().Path()
	sender := &connSender{ctx: reqCtx, conn: conn}
	logger := loggerFrom(ctx.Services())

	// 연결당 루프
	for {
		msgType, payload, err := conn.ReadMessage(reqCtx)
		if err != nil {
			var closeErr *core.CloseError
			if errors.As(err, &closeErr) {
				logger.Debug("[WS] 연결 종료", "conn", conn.ID(), "code", closeErr.Code)
			} else {
				logger.Info("[WS] 연결 종료", "conn", conn.ID(), "err", err)
			}
			return nil
		}

		eventBus := publish.NewEventBus()
		msg := NewMessage(reqCtx, conn.ID(), path, msgType, payload, eventBus, sender)

		if err := handler(msg); err != nil {
			logger.Warn("[WS] 핸들러 실패", "conn", conn.ID(), "err", err)
			_ = conn.Close(core.CloseInternalServErr, "handler error")
			return err
		}

		publishEvents(reqCtx, ctx.Services(), logger, eventBus)
	}
}

// loggerFrom은 정의 컨테이너에 등록된 로거를 찾고, 없으면 기본 로거를 씁니다.
func loggerFrom(services core.Container) *slog.Logger {
	if services == nil {
		return slog.Default()
	}
	logger, err := core.Resolve[*slog.Logger](services)
	if err != nil || logger == nil {
		return slog.Default()
	}
	return logger
}

func publishEvents(ctx context.Context, services core.Container, logger *slog.Logger, bus core.EventBus) {
	events := bus.Drain()
	if len(events) == 0 || services == nil {
		return
	}
	publisher, err := core.Resolve[core.EventPublisher](services)
	if err != nil {
		logger.Debug("[WS] EventPublisher가 없어 이벤트를 버립니다", "count", len(events))
		return
	}
	for _, event := range events {
		if err := publisher.Publish(ctx, event); err != nil {
			logger.Warn("[WS] 이벤트 발행 실패", "event", event.Name(), "err", err)
		}
	}
}
