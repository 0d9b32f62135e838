package main

import (
	"sync/atomic"

	"github.com/NARUBROWN/bridge"
	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/httpx"
	"github.com/NARUBROWN/bridge/pkg/routing"
	"github.com/NARUBROWN/bridge/pkg/ws"
)

// Counter는 두 정의가 같은 인스턴스를 공유하는 프로세스 단위 카운터입니다.
type Counter struct {
	value atomic.Int64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Add(delta int64) int64 {
	return c.value.Add(delta)
}

func (c *Counter) Value() int64 {
	return c.value.Load()
}

// counterDefinition은 prefix 아래에 카운터 API와 WebSocket 에코를 올립니다.
func counterDefinition(name string, prefix string, counter *Counter) *core.Definition {
	return &core.Definition{
		Name: name,
		ConfigureServices: func(services core.ServiceCollection) error {
			if err := services.AddInstance(counter); err != nil {
				return err
			}
			return services.AddSingleton(NewCounterController)
		},
		Configure: bridge.Inject(func(app core.PipelineBuilder, controller *CounterController) error {
			router := routing.NewRouter()
			router.Register("GET", prefix, controller.Get)
			router.Register("POST", prefix+"/increment", controller.Increment)
			router.Register("POST", prefix+"/orders/:id", controller.CreateOrder)

			sockets := ws.NewRegistry()
			sockets.Register(prefix+"/ws", EchoSocket)

			app.Use(httpx.Errors())
			app.Use(sockets.Middleware())
			app.Use(router.Middleware())
			return nil
		}),
	}
}
