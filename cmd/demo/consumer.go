package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/NARUBROWN/bridge"
	"github.com/NARUBROWN/bridge/core"
)

type OrderConsumer struct{}

func NewOrderConsumer() *OrderConsumer {
	return &OrderConsumer{}
}

// OnOrderCreated는 주문 이벤트를 받아 재고 예약 이벤트를 발행합니다.
func (c *OrderConsumer) OnOrderCreated(ctx context.Context, msg bridge.ConsumerMessage, bus core.EventBus) error {
	var event OrderCreated
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return err
	}

	slog.Info("[Event Consumer] 이벤트 수신", "event", msg.EventName, "order_id", event.OrderID)
	bus.Publish(StockReserved{OrderID: event.OrderID, At: time.Now()})
	return nil
}
