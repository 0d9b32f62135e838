package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NARUBROWN/bridge/core"
)

// Message는 수신한 메시지 하나의 처리 단위입니다. 메시지마다 새 이벤트 버스를 가집니다.
type Message struct {
	ctx         context.Context
	connID      string
	path        string
	messageType core.MessageType
	payload     []byte
	eventBus    core.EventBus
	store       map[string]any
}

func NewMessage(ctx context.Context, connID string, path string, messageType core.MessageType, payload []byte, eventBus core.EventBus, sender Sender) *Message {
	if sender != nil {
		ctx = WithSender(ctx, sender)
	}

	return &Message{
		ctx:         ctx,
		connID:      connID,
		path:        path,
		messageType: messageType,
		payload:     payload,
		eventBus:    eventBus,
		store:       make(map[string]any),
	}
}

func (m *Message) ConnID() string {
	return m.connID
}

func (m *Message) Context() context.Context {
	return m.ctx
}

func (m *Message) EventBus() core.EventBus {
	return m.eventBus
}

func (m *Message) Get(key string) (any, bool) {
	v, ok := m.store[key]
	return v, ok
}

func (m *Message) MessageType() core.MessageType {
	return m.messageType
}

func (m *Message) Path() string {
	return m.path
}

func (m *Message) Payload() []byte {
	return m.payload
}

func (m *Message) Set(key string, value any) {
	m.store[key] = value
}

// Reply는 같은 연결로 메시지를 보냅니다.
func (m *Message) Reply(messageType core.MessageType, data []byte) error {
	return Send(m.ctx, messageType, data)
}

// Decode는 payload를 JSON으로 역직렬화합니다.
func (m *Message) Decode(v any) error {
	if len(m.payload) == 0 {
		return fmt.Errorf("Payload가 비어있어 DTO를 생성할 수 없습니다")
	}
	if err := json.Unmarshal(m.payload, v); err != nil {
		return fmt.Errorf("DTO 역직렬화 실패: %w", err)
	}
	return nil
}
