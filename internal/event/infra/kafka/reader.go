package kafka

import (
	"context"
	"errors"

	"github.com/NARUBROWN/bridge/internal/event/consumer"
	"github.com/NARUBROWN/bridge/pkg/boot"
	"github.com/segmentio/kafka-go"
)

type Reader struct {
	reader *kafka.Reader
	opts   boot.KafkaOptions
}

func NewKafkaReader(topic string, opts boot.KafkaOptions) (*Reader, error) {
	if err := validateRead(topic, opts); err != nil {
		return nil, err
	}

	startOffset := kafka.LastOffset
	if opts.Read.FromOldest {
		startOffset = kafka.FirstOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     opts.Brokers,
		Topic:       topic,
		GroupID:     opts.Read.GroupID,
		StartOffset: startOffset,
		MaxWait:     opts.Read.MaxWait,
	})

	return &Reader{
		reader: reader,
		opts:   opts,
	}, nil
}

func validateRead(topic string, opts boot.KafkaOptions) error {
	switch {
	case len(opts.Brokers) == 0:
		return errors.New("Kafka Brokers가 설정되지 않았습니다")
	case opts.Read == nil:
		return errors.New("Kafka Read 옵션이 설정되지 않았습니다")
	case opts.Read.GroupID == "":
		return errors.New("Kafka Read GroupID가 비어 있습니다")
	case topic == "":
		return errors.New("Kafka topic이 비어 있습니다")
	}
	return nil
}

// Read는 오프셋을 커밋하지 않습니다. 핸들러가 성공해 Ack가 호출될 때 커밋합니다.
func (r *Reader) Read(ctx context.Context) (consumer.Message, error) {
	m, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return consumer.Message{}, err
	}

	eventName := m.Topic
	for _, h := range m.Headers {
		if h.Key == eventHeader {
			eventName = string(h.Value)
			break
		}
	}

	ack := func() error {
		return r.reader.CommitMessages(context.WithoutCancel(ctx), m)
	}
	return consumer.NewMessage(eventName, m.Value, ack, nil), nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

type RunnerFactory struct {
	opts boot.KafkaOptions
}

func NewRunnerFactory(opts boot.KafkaOptions) *RunnerFactory {
	return &RunnerFactory{opts: opts}
}

// Build는 등록 토픽 앞에 Write.TopicPrefix를 붙이지 않습니다. 등록 토픽이 실제 토픽 이름입니다.
func (f *RunnerFactory) Build(registration consumer.Registration) (consumer.Reader, error) {
	return NewKafkaReader(registration.Topic, f.opts)
}
