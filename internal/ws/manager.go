package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

// ErrShuttingDown은 코디네이터가 종료 중일 때 Accept가 반환합니다.
var ErrShuttingDown = errors.New("ws: WebSocket 런타임이 종료 중입니다")

// Manager는 레거시 요청 하나를 WebSocket 연결로 전환합니다.
// 풀에 담긴 Context와 함께 재사용되므로 Bind와 Reset을 거칩니다.
type Manager struct {
	lctx    legacy.Context
	tracker *Tracker
}

func (m *Manager) Bind(lctx legacy.Context, tracker *Tracker) {
	m.lctx = lctx
	m.tracker = tracker
}

func (m *Manager) Reset() {
	m.lctx = nil
	m.tracker = nil
}

func (m *Manager) IsWebSocketRequest() bool {
	return m.lctx != nil && m.lctx.IsWebSocketRequest()
}

func (m *Manager) RequestedProtocols() []string {
	if m.lctx == nil {
		return nil
	}
	return parseProtocols(m.lctx.Request().Headers().Values("Sec-WebSocket-Protocol"))
}

// Accept는 101 응답을 직접 작성하고 호스트에서 원시 연결을 넘겨받습니다.
// 전제 조건 검사는 모두 헤더를 쓰기 전에 끝납니다.
func (m *Manager) Accept(ctx context.Context, subprotocol string) (core.WebSocket, error) {
	if !m.IsWebSocketRequest() {
		return nil, &core.InvalidHandshakeError{Reason: "WebSocket 업그레이드 요청이 아닙니다"}
	}

	req := m.lctx.Request()
	key := req.Headers().Get("Sec-WebSocket-Key")
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	upgrader, ok := m.lctx.(legacy.RawUpgrader)
	if !ok || !upgrader.SupportsRawUpgrade() {
		return nil, &core.UnsupportedHostError{Host: fmt.Sprintf("%T", m.lctx)}
	}

	if m.tracker != nil && m.tracker.Stopped() {
		return nil, ErrShuttingDown
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := m.lctx.Response()
	resp.SetBufferOutput(false)
	resp.Headers().Del("Content-Type")
	resp.Headers().Del("Content-Length")
	resp.Clear()

	resp.SetStatusCode(http.StatusSwitchingProtocols)
	resp.Headers().Set("Upgrade", "websocket")
	resp.Headers().Set("Connection", "Upgrade")
	resp.Headers().Set("Sec-WebSocket-Accept", AcceptKey(key))
	if subprotocol != "" {
		resp.Headers().Set("Sec-WebSocket-Protocol", subprotocol)
	}
	if err := resp.Flush(); err != nil {
		return nil, fmt.Errorf("ws: 101 응답 전송 실패: %w", err)
	}

	netConn, rw, err := upgrader.TakeRawConnection()
	if err != nil {
		return nil, fmt.Errorf("ws: 원시 연결을 가져오지 못했습니다: %w", err)
	}

	conn := newConn(newConnID(), subprotocol, netConn, rw, m.tracker)
	if m.tracker != nil && !m.tracker.Track(conn) {
		_ = conn.Close(core.CloseGoingAway, "server shutting down")
		return nil, ErrShuttingDown
	}

	m.logger().Debug("[WS] 연결 수립", "conn", conn.ID(), "path", req.Path(), "subprotocol", subprotocol)
	return conn, nil
}

func (m *Manager) logger() *slog.Logger {
	if m.tracker != nil {
		return m.tracker.Logger()
	}
	return slog.Default()
}
