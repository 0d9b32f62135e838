package consumer

import (
	"context"
	"sync"

	"github.com/NARUBROWN/bridge/core"
)

// Handler는 메시지 하나를 처리합니다. bus에 모은 이벤트는 성공한 경우에만 발행됩니다.
type Handler func(ctx context.Context, msg Message, bus core.EventBus) error

type Registration struct {
	Topic   string
	Handler Handler
}

type Registry struct {
	mu            sync.RWMutex
	registrations []Registration
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(topic string, handler Handler) {
	if topic == "" {
		panic("consumer: topic이 빈 값일 수 없습니다")
	}
	if handler == nil {
		panic("consumer: handler가 nil일 수 없습니다")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, Registration{Topic: topic, Handler: handler})
}

func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cpy := make([]Registration, len(r.registrations))
	copy(cpy, r.registrations)
	return cpy
}
