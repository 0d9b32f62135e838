package main

import (
	"strconv"
	"time"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/bind"
	"github.com/NARUBROWN/bridge/pkg/httperr"
	"github.com/NARUBROWN/bridge/pkg/httpx"
	"github.com/NARUBROWN/bridge/pkg/query"
	"github.com/NARUBROWN/bridge/pkg/routing"
	"github.com/NARUBROWN/bridge/pkg/ws"
)

type CounterController struct {
	counter *Counter
}

func NewCounterController(counter *Counter) *CounterController {
	return &CounterController{counter: counter}
}

type CounterView struct {
	Value int64 `json:"value"`
}

func (c *CounterController) Get(ctx core.Context) error {
	return httpx.JSON(ctx, 200, CounterView{Value: c.counter.Value()})
}

// Increment는 ?by= 만큼 카운터를 올립니다. 기본값은 1입니다.
func (c *CounterController) Increment(ctx core.Context) error {
	by := query.FromContext(ctx).Int("by", 1)
	if by <= 0 {
		return httperr.BadRequest("by는 양수여야 합니다")
	}
	return httpx.JSON(ctx, 200, CounterView{Value: c.counter.Add(by)})
}

type CreateOrderRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}

type OrderAccepted struct {
	OrderID  int64 `json:"order_id"`
	Quantity int   `json:"quantity"`
}

// CreateOrder는 주문 접수 이벤트를 발행합니다. 이벤트는 응답이 끝난 뒤 브로커로 나갑니다.
func (c *CounterController) CreateOrder(ctx core.Context) error {
	id, err := strconv.ParseInt(routing.Param(ctx, "id"), 10, 64)
	if err != nil {
		return httperr.BadRequest("주문 ID가 올바르지 않습니다")
	}

	var req CreateOrderRequest
	if err := bind.Body(ctx, &req); err != nil {
		return err
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	ctx.EventBus().Publish(OrderCreated{OrderID: id, At: time.Now()})
	return httpx.Write(ctx, httpx.Response[OrderAccepted]{
		Body:    OrderAccepted{OrderID: id, Quantity: req.Quantity},
		Options: httpx.ResponseOptions{Status: 202},
	})
}

// EchoSocket은 받은 메시지를 그대로 돌려보냅니다.
func EchoSocket(msg *ws.Message) error {
	return msg.Reply(msg.MessageType(), msg.Payload())
}
