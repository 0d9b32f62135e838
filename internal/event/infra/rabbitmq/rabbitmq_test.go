package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NARUBROWN/bridge/internal/event/consumer"
	"github.com/NARUBROWN/bridge/pkg/boot"
)

type orderCreated struct{}

func (orderCreated) Name() string          { return "order.created" }
func (orderCreated) OccurredAt() time.Time { return time.Time{} }

func TestNewRabbitMqWriter_ValidatesOptions(t *testing.T) {
	if _, err := NewRabbitMqWriter(boot.RabbitMqOptions{Write: &boot.RabbitMqWriteOptions{Exchange: "x"}}); err == nil {
		t.Fatal("URL이 없으면 에러여야 합니다")
	}
	if _, err := NewRabbitMqWriter(boot.RabbitMqOptions{URL: "amqp://localhost"}); err == nil {
		t.Fatal("Write 옵션이 없으면 에러여야 합니다")
	}
}

func TestWriter_RoutingKeyFallsBackToEventName(t *testing.T) {
	w, err := NewRabbitMqWriter(boot.RabbitMqOptions{
		URL:   "amqp://localhost",
		Write: &boot.RabbitMqWriteOptions{Exchange: "bridge.events"},
	})
	if err != nil {
		t.Fatalf("Writer 생성 실패: %v", err)
	}
	if got := w.RoutingKey("order.created"); got != "order.created" {
		t.Fatalf("routing key가 잘못되었습니다: %s", got)
	}

	fixed, _ := NewRabbitMqWriter(boot.RabbitMqOptions{
		URL:   "amqp://localhost",
		Write: &boot.RabbitMqWriteOptions{Exchange: "bridge.events", RoutingKey: "all"},
	})
	if got := fixed.RoutingKey("order.created"); got != "all" {
		t.Fatalf("설정된 routing key를 사용해야 합니다: %s", got)
	}
}

func TestWriter_PublishBeforeStart(t *testing.T) {
	w, err := NewRabbitMqWriter(boot.RabbitMqOptions{
		URL:   "amqp://localhost",
		Write: &boot.RabbitMqWriteOptions{Exchange: "bridge.events"},
	})
	if err != nil {
		t.Fatalf("Writer 생성 실패: %v", err)
	}

	if err := w.Publish(context.Background(), orderCreated{}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("시작 전 발행은 ErrNotConnected여야 합니다: %v", err)
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("시작하지 않은 Writer의 Stop은 에러가 없어야 합니다: %v", err)
	}
}

func TestValidateRead(t *testing.T) {
	valid := boot.RabbitMqOptions{URL: "amqp://localhost", Read: &boot.RabbitMqReadOptions{Exchange: "bridge.events"}}
	if err := validateRead(valid, "order.created"); err != nil {
		t.Fatalf("올바른 옵션이 거부되었습니다: %v", err)
	}
	if err := validateRead(valid, ""); err == nil {
		t.Fatal("routing key가 없으면 에러여야 합니다")
	}
	if err := validateRead(boot.RabbitMqOptions{URL: "amqp://localhost"}, "order.created"); err == nil {
		t.Fatal("Read 옵션이 없으면 에러여야 합니다")
	}
	if _, err := NewRunnerFactory(boot.RabbitMqOptions{}).Build(consumer.Registration{Topic: "order.created"}); err == nil {
		t.Fatal("URL 없이 Reader를 만들면 안 됩니다")
	}
}
