package publish

import (
	"sync"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/event/publish"
)

// EventBus는 core 패키지의 계약을 그대로 노출합니다.
type EventBus = core.EventBus

// Bus는 요청 하나 동안 도메인 이벤트를 모아두는 기본 구현입니다.
// 핸들러 goroutine과 호스트 goroutine이 함께 접근하므로 잠금을 사용합니다.
type Bus struct {
	mu     sync.Mutex
	events []publish.DomainEvent
}

func NewEventBus() *Bus {
	return &Bus{}
}

func (b *Bus) Publish(events ...publish.DomainEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
}

// Drain은 모인 이벤트를 반환하고 버스를 비웁니다.
func (b *Bus) Drain() []publish.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	out := b.events
	b.events = nil
	return out
}

// Reset은 풀 반환 전에 남은 이벤트를 버립니다.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
