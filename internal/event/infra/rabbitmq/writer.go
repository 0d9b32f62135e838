package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/NARUBROWN/bridge/pkg/boot"
	"github.com/NARUBROWN/bridge/pkg/event/publish"
	"github.com/rabbitmq/amqp091-go"
)

var ErrNotConnected = errors.New("rabbitmq: 발행기가 연결되지 않았습니다")

// Writer는 도메인 이벤트를 topic exchange로 발행합니다.
// Start에서 연결하므로 브로커 장애는 백그라운드 시작 실패로 드러납니다.
type Writer struct {
	url        string
	exchange   string
	routingKey string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewRabbitMqWriter(opts boot.RabbitMqOptions) (*Writer, error) {
	if opts.URL == "" {
		return nil, errors.New("RabbitMQ URL이 설정되지 않았습니다")
	}
	if opts.Write == nil || opts.Write.Exchange == "" {
		return nil, errors.New("RabbitMQ Write exchange가 설정되지 않았습니다")
	}

	return &Writer{
		url:        opts.URL,
		exchange:   opts.Write.Exchange,
		routingKey: opts.Write.RoutingKey,
	}, nil
}

func (w *Writer) Start(ctx context.Context) error {
	conn, err := amqp091.Dial(w.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	err = declareExchange(ch, w.exchange)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	w.mu.Lock()
	w.conn = conn
	w.channel = ch
	w.mu.Unlock()

	slog.Info("[RabbitMQ][Write] 이벤트 발행기 초기화 완료", "exchange", w.exchange)
	return nil
}

// RoutingKey는 설정된 routing key가 없으면 이벤트 이름을 사용합니다.
func (w *Writer) RoutingKey(eventName string) string {
	if w.routingKey != "" {
		return w.routingKey
	}
	return eventName
}

func (w *Writer) Publish(ctx context.Context, event publish.DomainEvent) error {
	w.mu.Lock()
	ch := w.channel
	w.mu.Unlock()
	if ch == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		w.exchange,
		w.RoutingKey(event.Name()),
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        payload,
			Timestamp:   event.OccurredAt(),
			Type:        event.Name(),
		},
	)
}

func (w *Writer) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.channel != nil {
		_ = w.channel.Close()
		w.channel = nil
	}
	if w.conn != nil {
		err := w.conn.Close()
		w.conn = nil
		return err
	}
	return nil
}

func declareExchange(ch *amqp091.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}
