package rabbitmq

import (
	"context"
	"errors"

	"github.com/NARUBROWN/bridge/internal/event/consumer"
	"github.com/NARUBROWN/bridge/pkg/boot"
	"github.com/rabbitmq/amqp091-go"
)

var ErrDeliveryClosed = errors.New("rabbitmq: 전달 채널이 닫혔습니다")

// Reader는 routing key 하나로 exchange에 바인딩된 큐를 소비합니다.
type Reader struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	deliveries <-chan amqp091.Delivery
}

func NewRabbitMqReader(opts boot.RabbitMqOptions, routingKey string) (*Reader, error) {
	if err := validateRead(opts, routingKey); err != nil {
		return nil, err
	}

	conn, err := amqp091.Dial(opts.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	deliveries, err := bindAndConsume(ch, opts.Read, routingKey)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Reader{
		conn:       conn,
		channel:    ch,
		deliveries: deliveries,
	}, nil
}

func validateRead(opts boot.RabbitMqOptions, routingKey string) error {
	if opts.URL == "" {
		return errors.New("RabbitMQ URL이 설정되지 않았습니다")
	}
	if opts.Read == nil || opts.Read.Exchange == "" {
		return errors.New("RabbitMQ Read exchange가 설정되지 않았습니다")
	}
	if routingKey == "" {
		return errors.New("RabbitMQ routing key가 비어 있습니다")
	}
	return nil
}

func bindAndConsume(ch *amqp091.Channel, read *boot.RabbitMqReadOptions, routingKey string) (<-chan amqp091.Delivery, error) {
	if err := declareExchange(ch, read.Exchange); err != nil {
		return nil, err
	}

	// 큐 이름이 없으면 연결 전용 임시 큐
	exclusive := read.Queue == ""
	q, err := ch.QueueDeclare(read.Queue, !exclusive, exclusive, exclusive, false, nil)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(q.Name, routingKey, read.Exchange, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(q.Name, "", false, exclusive, false, false, nil)
}

func (r *Reader) Read(ctx context.Context) (consumer.Message, error) {
	select {
	case <-ctx.Done():
		return consumer.Message{}, ctx.Err()
	case d, ok := <-r.deliveries:
		if !ok {
			return consumer.Message{}, ErrDeliveryClosed
		}
		eventName := d.Type
		if eventName == "" {
			eventName = d.RoutingKey
		}
		return consumer.NewMessage(
			eventName,
			d.Body,
			func() error { return d.Ack(false) },
			func() error { return d.Nack(false, true) },
		), nil
	}
}

func (r *Reader) Close() error {
	_ = r.channel.Close()
	return r.conn.Close()
}

type RunnerFactory struct {
	opts boot.RabbitMqOptions
}

func NewRunnerFactory(opts boot.RabbitMqOptions) *RunnerFactory {
	return &RunnerFactory{opts: opts}
}

// Build는 등록 토픽을 routing key로 바인딩한 Reader를 만듭니다. 연결 실패는 그대로 반환합니다.
func (f *RunnerFactory) Build(registration consumer.Registration) (consumer.Reader, error) {
	return NewRabbitMqReader(f.opts, registration.Topic)
}
