package legacy

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/event/publish"
	"github.com/NARUBROWN/bridge/internal/latch"
	"github.com/NARUBROWN/bridge/internal/ws"
	"github.com/NARUBROWN/bridge/pkg/legacy"
	"github.com/google/uuid"
)

// Context는 레거시 요청 하나를 core.Context 표면으로 노출하는 풀링 대상 어댑터입니다.
//
// Acquire부터 Release까지 정확히 하나의 레거시 요청이 소유하며,
// 그 밖에서는 모든 필드가 비워져 있습니다.
type Context struct {
	lctx   legacy.Context
	reqCtx context.Context
	scope  core.Scope

	request    request
	response   response
	connection connection
	features   featureCollection
	session    session
	items      items
	websockets ws.Manager
	eventBus   publish.Bus

	traceID string

	// stackDone은 핸들러가 종단 마커에 도달했거나 응답 완료를 알렸을 때 열립니다.
	stackDone *latch.Latch
	// legacyDone은 레거시 호스트의 end-of-request에서 열립니다.
	legacyDone *latch.Latch

	// unhandled는 종단 핸들러에 도달하면 켜집니다. Items의 표식과 같은 의미입니다.
	unhandled atomic.Bool

	task    chan struct{}
	taskErr error
}

func newContext() *Context {
	c := &Context{}
	c.request.ctx = c
	c.response.ctx = c
	c.connection.ctx = c
	c.items.ctx = c
	c.features.init(c)
	return c
}

// Bind는 풀에서 꺼낸 어댑터를 레거시 요청과 요청 범위 서비스에 연결합니다.
func (c *Context) Bind(lctx legacy.Context, scope core.Scope, tracker *ws.Tracker) {
	c.lctx = lctx
	c.reqCtx = lctx.Context()
	c.scope = scope
	c.traceID = uuid.NewString()
	c.session.bind(lctx.Session())
	c.websockets.Bind(lctx, tracker)
	c.stackDone = latch.New()
	c.legacyDone = latch.New()
}

// Reset은 모든 필드를 새로 만든 인스턴스와 같은 상태로 되돌립니다.
func (c *Context) Reset() {
	c.lctx = nil
	c.reqCtx = nil
	c.scope = nil
	c.request.reset()
	c.response.reset()
	c.connection.reset()
	c.features.reset()
	c.session.reset()
	c.websockets.Reset()
	c.eventBus.Reset()
	c.traceID = ""
	c.stackDone = nil
	c.legacyDone = nil
	c.unhandled.Store(false)
	c.task = nil
	c.taskErr = nil
}

func (c *Context) Legacy() legacy.Context {
	return c.lctx
}

func (c *Context) Context() context.Context {
	if c.reqCtx == nil {
		return context.Background()
	}
	return c.reqCtx
}

// SetContext는 핸들러에 전달할 요청 context를 교체합니다. Start 전에 호출해야 합니다.
func (c *Context) SetContext(ctx context.Context) {
	c.reqCtx = ctx
}

func (c *Context) Request() core.Request             { return &c.request }
func (c *Context) Response() core.Response           { return &c.response }
func (c *Context) Connection() core.ConnectionInfo   { return &c.connection }
func (c *Context) Features() core.Features           { return &c.features }
func (c *Context) Session() core.Session             { return &c.session }
func (c *Context) WebSockets() core.WebSocketManager { return &c.websockets }
func (c *Context) EventBus() core.EventBus           { return &c.eventBus }

// Items는 레거시 요청의 Items를 공유하되 모든 접근을 잠금으로 감쌉니다.
func (c *Context) Items() core.Items {
	if c.lctx == nil {
		return nil
	}
	return &c.items
}

func (c *Context) Services() core.Container {
	if c.scope == nil {
		return nil
	}
	return c.scope
}

func (c *Context) Scope() core.Scope {
	return c.scope
}

func (c *Context) TraceIdentifier() string {
	return c.traceID
}

func (c *Context) SetTraceIdentifier(id string) {
	c.traceID = id
}

func (c *Context) Abort() {
	if c.lctx != nil {
		c.lctx.Request().Abort()
	}
}

// FinishStack은 종단 핸들러에서 호출됩니다. 완료 신호를 올린 뒤
// 레거시 호스트가 자신의 요청 주기를 끝낼 때까지 기다립니다.
func (c *Context) FinishStack(ctx context.Context) error {
	c.unhandled.Store(true)
	c.stackDone.Release()
	<-c.legacyDone.Done()
	return nil
}

// CompleteResponse는 애플리케이션이 응답을 끝냈음을 알립니다.
func (c *Context) CompleteResponse() {
	if c.stackDone != nil {
		c.stackDone.Release()
	}
}

// Unhandled는 파이프라인의 어떤 미들웨어도 요청을 처리하지 않았는지 알려줍니다.
func (c *Context) Unhandled() bool {
	return c.unhandled.Load()
}

func (c *Context) StackDone() <-chan struct{} {
	return c.stackDone.Done()
}

// ReleaseLegacy는 레거시 호스트의 end-of-request를 알립니다.
func (c *Context) ReleaseLegacy() {
	c.legacyDone.Release()
}

// Start는 핸들러를 별도 goroutine에서 실행하고 그 작업을 기록합니다.
// 핸들러의 panic은 에러로 바뀌어 Wait에서 반환됩니다.
func (c *Context) Start(handler core.Handler) {
	done := make(chan struct{})
	c.task = done

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.taskErr = fmt.Errorf("bridge: 핸들러 panic: %v\n%s", r, debug.Stack())
			}
		}()
		c.taskErr = handler(c)
	}()
}

// TaskDone은 핸들러 goroutine이 끝나면 닫힙니다. 시작되지 않았다면 nil입니다.
func (c *Context) TaskDone() <-chan struct{} {
	return c.task
}

// Wait는 핸들러가 끝날 때까지 기다리고 그 에러를 반환합니다.
func (c *Context) Wait() error {
	if c.task == nil {
		return nil
	}
	<-c.task
	return c.taskErr
}
