package core

import (
	"context"
	"fmt"
)

type MessageType int

// 메시지 타입 값은 RFC 6455 opcode와 같습니다.
const (
	TextMessage   MessageType = 1
	BinaryMessage MessageType = 2
)

// 자주 쓰는 close 코드
const (
	CloseNormalClosure   = 1000
	CloseGoingAway       = 1001
	CloseInternalServErr = 1011
)

// WebSocket은 업그레이드된 연결 위의 양방향 메시지 스트림입니다.
type WebSocket interface {
	ID() string
	Subprotocol() string
	ReadMessage(ctx context.Context) (MessageType, []byte, error)
	WriteMessage(ctx context.Context, messageType MessageType, data []byte) error
	Close(code int, reason string) error
}

type WebSocketManager interface {
	IsWebSocketRequest() bool
	RequestedProtocols() []string
	// Accept는 현재 요청을 WebSocket 연결로 전환합니다.
	Accept(ctx context.Context, subprotocol string) (WebSocket, error)
}

// CloseError는 상대방이 close 프레임을 보냈을 때 ReadMessage가 반환합니다.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("websocket: close %d %s", e.Code, e.Reason)
}
