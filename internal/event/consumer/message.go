package consumer

import "context"

// Message는 브로커에서 읽은 이벤트 하나입니다.
// 핸들러가 성공하면 Ack, 실패하면 Nack가 호출됩니다.
type Message struct {
	EventName string
	Payload   []byte

	ack  func() error
	nack func() error
}

func NewMessage(eventName string, payload []byte, ack func() error, nack func() error) Message {
	return Message{
		EventName: eventName,
		Payload:   payload,
		ack:       ack,
		nack:      nack,
	}
}

func (m Message) Ack() error {
	if m.ack == nil {
		return nil
	}
	return m.ack()
}

func (m Message) Nack() error {
	if m.nack == nil {
		return nil
	}
	return m.nack()
}

type Reader interface {
	Read(ctx context.Context) (Message, error)
	Close() error
}

// RunnerFactory는 등록 하나에 대한 Reader를 만듭니다.
type RunnerFactory interface {
	Build(reg Registration) (Reader, error)
}
