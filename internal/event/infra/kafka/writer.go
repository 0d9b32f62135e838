package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/NARUBROWN/bridge/pkg/boot"
	"github.com/NARUBROWN/bridge/pkg/event/publish"
	"github.com/segmentio/kafka-go"
)

// 메시지 헤더에 담는 이벤트 이름 키
const eventHeader = "event"

// Writer는 요청이 끝난 뒤 모인 도메인 이벤트를 "<TopicPrefix><이벤트 이름>" 토픽으로 보냅니다.
// core.EventPublisher이자 core.HostedService입니다.
type Writer struct {
	writer      *kafka.Writer
	topicPrefix string
}

func NewKafkaWriter(opts boot.KafkaOptions) (*Writer, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("Kafka Brokers가 설정되지 않았습니다")
	}
	if opts.Write == nil {
		return nil, errors.New("Kafka Write 옵션이 설정되지 않았습니다")
	}

	return &Writer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(opts.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           opts.Write.WriteTimeout,
			BatchTimeout:           opts.Write.BatchTimeout,
		},
		topicPrefix: opts.Write.TopicPrefix,
	}, nil
}

func (w *Writer) Topic(eventName string) string {
	return w.topicPrefix + eventName
}

func (w *Writer) Publish(ctx context.Context, event publish.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("이벤트 직렬화 실패 (%s): %w", event.Name(), err)
	}

	return w.writer.WriteMessages(ctx, kafka.Message{
		Topic:   w.Topic(event.Name()),
		Key:     []byte(event.Name()),
		Value:   payload,
		Time:    event.OccurredAt(),
		Headers: []kafka.Header{{Key: eventHeader, Value: []byte(event.Name())}},
	})
}

// Start는 연결을 미리 열지 않습니다. kafka.Writer는 첫 발행 때 연결합니다.
func (w *Writer) Start(ctx context.Context) error {
	slog.Info("[Kafka][Write] 이벤트 발행기 초기화 완료", "topic_prefix", w.topicPrefix)
	return nil
}

func (w *Writer) Stop(ctx context.Context) error {
	return w.writer.Close()
}
