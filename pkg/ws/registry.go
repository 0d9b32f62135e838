package ws

import (
	"sync"

	"github.com/NARUBROWN/bridge/core"
)

// HandlerFunc는 메시지 하나를 처리합니다. 에러를 반환하면 연결을 1011로 닫습니다.
type HandlerFunc func(msg *Message) error

type Registration struct {
	Path        string
	Subprotocol string
	Handler     HandlerFunc
}

// Registry는 경로별 WebSocket 핸들러 목록입니다.
type Registry struct {
	mu            sync.RWMutex
	registrations []Registration
}

func NewRegistry() *Registry {
	return &Registry{
		registrations: make([]Registration, 0),
	}
}

// Register는 subprotocol 없이 경로에 핸들러를 등록합니다.
func (r *Registry) Register(path string, handler HandlerFunc) {
	r.RegisterProtocol(path, "", handler)
}

// RegisterProtocol은 클라이언트가 subprotocol을 요청했을 때만 그 값으로 응답합니다.
func (r *Registry) RegisterProtocol(path string, subprotocol string, handler HandlerFunc) {
	if path == "" {
		panic("ws: path가 빈 값일 수 없습니다")
	}
	if handler == nil {
		panic("ws: handler가 nil일 수 없습니다")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, Registration{
		Path:        path,
		Subprotocol: subprotocol,
		Handler:     handler,
	})
}

func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cpy := make([]Registration, len(r.registrations))
	copy(cpy, r.registrations)
	return cpy
}

func (r *Registry) lookup(path string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.registrations {
		if reg.Path == path {
			return reg, true
		}
	}
	return Registration{}, false
}

// Middleware는 등록된 경로로 들어온 업그레이드 요청을 받아 연결이 끝날 때까지 처리합니다.
// 그 밖의 요청은 다음 단계로 넘깁니다.
func (r *Registry) Middleware() core.Middleware {
	return func(next core.Handler) core.Handler {
		return func(ctx core.Context) error {
			if !ctx.WebSockets().IsWebSocketRequest() {
				return next(ctx)
			}
			reg, ok := r.lookup(ctx.Request().Path())
			if !ok {
				return next(ctx)
			}
			return Serve(ctx, negotiate(reg.Subprotocol, ctx.WebSockets().RequestedProtocols()), reg.Handler)
		}
	}
}

func negotiate(offered string, requested []string) string {
	if offered == "" {
		return ""
	}
	for _, p := range requested {
		if p == offered {
			return offered
		}
	}
	return ""
}
