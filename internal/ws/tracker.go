package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/NARUBROWN/bridge/core"
)

// Tracker는 코디네이터 하나가 연 WebSocket 연결을 추적하고 종료 시 모두 닫습니다.
type Tracker struct {
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
	connMu   sync.Mutex
	conns    map[string]*Conn
	observer Observer
	logger   *slog.Logger
}

// Observer는 연결이 추적되거나 해제될 때 호출됩니다.
type Observer interface {
	WebSocketOpened()
	WebSocketClosed()
}

// SetObserver는 연결을 추적하기 전에 한 번 호출해야 합니다.
func (t *Tracker) SetObserver(observer Observer) {
	t.observer = observer
}

// SetLogger도 연결을 추적하기 전에 호출해야 합니다. nil은 무시합니다.
func (t *Tracker) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

func (t *Tracker) Logger() *slog.Logger {
	return t.logger
}

func NewTracker() *Tracker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Tracker{
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[string]*Conn),
		logger: slog.Default(),
	}
}

func (t *Tracker) Stopped() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

func (t *Tracker) Len() int {
	t.connMu.Lock()
	defer t.connMu.Unlock()
	return len(t.conns)
}

// Stop은 열린 연결에 1001 close 프레임을 보내고 닫습니다.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()

		t.connMu.Lock()
		conns := make(map[string]*Conn, len(t.conns))
		for id, conn := range t.conns {
			conns[id] = conn
		}
		t.connMu.Unlock()

		for _, conn := range conns {
			_ = conn.Close(core.CloseGoingAway, "server shutting down")
		}

		t.logger.Info("[WS] WebSocket 연결을 모두 닫았습니다.", "count", len(conns))
	})
}

// Track은 종료가 시작된 뒤에는 false를 반환합니다.
func (t *Tracker) Track(conn *Conn) bool {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	select {
	case <-t.ctx.Done():
		return false
	default:
		t.conns[conn.ID()] = conn
		if t.observer != nil {
			t.observer.WebSocketOpened()
		}
		return true
	}
}

func (t *Tracker) Untrack(connID string) {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if _, ok := t.conns[connID]; !ok {
		return
	}
	delete(t.conns, connID)
	if t.observer != nil {
		t.observer.WebSocketClosed()
	}
}
