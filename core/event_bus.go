package core

import (
	"context"

	"github.com/NARUBROWN/bridge/pkg/event/publish"
)

// EventBus는 도메인 이벤트를 수집했다가 실행 후 한 번에 방출하기 위한 최소 계약입니다.
type EventBus interface {
	Publish(events ...publish.DomainEvent)
	Drain() []publish.DomainEvent
}

// EventPublisher는 요청이 끝난 뒤 수집된 이벤트를 외부 브로커로 내보냅니다.
// 정의의 컨테이너에 등록되어 있을 때만 사용됩니다.
type EventPublisher interface {
	Publish(ctx context.Context, event publish.DomainEvent) error
}
