package ws

import (
	"context"

	"github.com/NARUBROWN/bridge/core"
)

type senderKeyType struct{}

var SenderKey = senderKeyType{}

type Sender interface {
	Send(messageType core.MessageType, data []byte) error
}

func WithSender(ctx context.Context, sender Sender) context.Context {
	return context.WithValue(ctx, SenderKey, sender)
}

// Send는 ctx에 연결된 Sender가 없으면 아무것도 하지 않습니다.
func Send(ctx context.Context, messageType core.MessageType, data []byte) error {
	sender, ok := ctx.Value(SenderKey).(Sender)
	if !ok || sender == nil {
		return nil
	}
	return sender.Send(messageType, data)
}

type connSender struct {
	ctx  context.Context
	conn core.WebSocket
}

func (s *connSender) Send(messageType core.MessageType, data []byte) error {
	return s.conn.WriteMessage(s.ctx, messageType, data)
}
