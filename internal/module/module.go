// Package module은 레거시 호스트의 요청 이벤트와 비동기 파이프라인 실행을 맞물리게 합니다.
//
// pre-execution에서 파이프라인을 별도 goroutine으로 시작하고, 핸들러가 끝나거나
// 완료 신호를 올리면 호스트에 제어를 돌려줍니다. end-of-request에서는 호스트 쪽
// 완료 신호를 올린 뒤 핸들러를 기다리고, 요청 범위를 닫고, 어댑터를 풀에 돌려놓습니다.
// 두 신호는 어느 순서로 와도 됩니다.
package module

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/NARUBROWN/bridge/core"
	adapter "github.com/NARUBROWN/bridge/internal/adapter/legacy"
	"github.com/NARUBROWN/bridge/internal/async"
	"github.com/NARUBROWN/bridge/internal/lifecycle"
	"github.com/NARUBROWN/bridge/internal/metrics"
	"github.com/NARUBROWN/bridge/pkg/legacy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/NARUBROWN/bridge"

type requestState struct {
	coord   *lifecycle.Coordinator
	ctx     *adapter.Context
	span    trace.Span
	done    func(outcome string)
	outcome string
}

type Option func(*Module)

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(m *Module) {
		m.tracer = provider.Tracer(tracerName)
	}
}

// Module은 정의 하나를 레거시 호스트의 모듈이자 핸들러로 노출합니다.
type Module struct {
	def      *core.Definition
	registry *lifecycle.Registry
	tracer   trace.Tracer

	initOnce sync.Once

	// 요청 상태는 레거시 Items가 아니라 여기에 둡니다.
	// 응답 완료 뒤에도 실행 중인 핸들러가 Items를 쓸 수 있기 때문입니다.
	states sync.Map // legacy.Context -> *requestState
}

var (
	_ legacy.Module       = (*Module)(nil)
	_ legacy.AsyncHandler = (*Module)(nil)
)

func New(def *core.Definition, registry *lifecycle.Registry, opts ...Option) *Module {
	m := &Module{
		def:      def,
		registry: registry,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Definition() *core.Definition {
	return m.def
}

// Init은 호스트 이벤트를 한 번만 구독합니다.
func (m *Module) Init(app legacy.Application) error {
	if app == nil {
		return nil
	}
	m.initOnce.Do(func() {
		app.AddOnPreRequestHandlerExecute(m.ExecuteStack)
		app.AddOnEndRequest(m.FinishStack)
	})
	return nil
}

// ExecuteStack은 pre-execution 이벤트 핸들러입니다.
func (m *Module) ExecuteStack(lctx legacy.Context) error {
	coord, err := m.registry.GetOrCreate(m.def)
	if err != nil {
		return err
	}

	// 시작 실패는 로그로만 관찰되며 요청은 그대로 진행합니다.
	if err := coord.WaitStarted(lctx.Context()); err != nil {
		return err
	}

	if _, bound := m.states.Load(lctx); bound {
		return nil
	}

	reqCtx, span := m.tracer.Start(lctx.Context(), "bridge.request",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("bridge.definition", coord.Name()),
			attribute.String("http.request.method", lctx.Request().HTTPMethod()),
			attribute.String("url.path", lctx.Request().Path()),
		),
	)

	scope := coord.Container().CreateScope()
	c := coord.Pool().Acquire(lctx, scope, coord.Tracker())
	c.SetContext(reqCtx)

	state := &requestState{
		coord:   coord,
		ctx:     c,
		span:    span,
		done:    coord.Metrics().RequestStarted(coord.Name()),
		outcome: metrics.OutcomeHandled,
	}
	m.states.Store(lctx, state)

	c.Start(coord.Handler())

	select {
	case <-c.TaskDone():
	case <-c.StackDone():
	}

	if !c.Unhandled() {
		lctx.CompleteRequest()
		return nil
	}

	// 다음 단계가 없으면 브리지가 마지막 단계이므로 404로 끝냅니다.
	if next := lctx.Handler(); next == nil || next == legacy.Handler(m) {
		lctx.Response().SetStatusCode(http.StatusNotFound)
		state.outcome = metrics.OutcomeNotFound
		return nil
	}

	state.outcome = metrics.OutcomeDeferred
	return nil
}

// FinishStack은 end-of-request 이벤트 핸들러입니다. 어댑터가 연결되지 않은 요청이면 아무것도 하지 않습니다.
func (m *Module) FinishStack(lctx legacy.Context) error {
	value, ok := m.states.LoadAndDelete(lctx)
	if !ok {
		return nil
	}
	state := value.(*requestState)

	c := state.ctx
	c.ReleaseLegacy()
	handlerErr := c.Wait()

	cleanupCtx := context.WithoutCancel(lctx.Context())
	var errs []error
	if handlerErr != nil {
		errs = append(errs, handlerErr)
	}
	if err := c.Scope().Close(cleanupCtx); err != nil {
		errs = append(errs, fmt.Errorf("요청 범위 정리 실패: %w", err))
	}

	m.publishEvents(cleanupCtx, state.coord, c)

	err := errors.Join(errs...)
	m.finish(state, err)
	state.coord.Pool().Release(c)
	return err
}

func (m *Module) publishEvents(ctx context.Context, coord *lifecycle.Coordinator, c *adapter.Context) {
	events := c.EventBus().Drain()
	if len(events) == 0 {
		return
	}

	publisher, err := core.Resolve[core.EventPublisher](coord.Container())
	if err != nil {
		coord.Logger().Debug("[Event] 발행기가 없어 이벤트를 버립니다", "count", len(events), "error", err)
		return
	}

	for _, event := range events {
		if err := publisher.Publish(ctx, event); err != nil {
			coord.Logger().Error("[Event] 이벤트 발행 실패",
				"event", event.Name(),
				"trace_id", c.TraceIdentifier(),
				"error", err,
			)
		}
	}
}

func (m *Module) finish(state *requestState, err error) {
	outcome := state.outcome
	if err != nil {
		outcome = metrics.OutcomeError
		state.span.RecordError(err)
		state.span.SetStatus(codes.Error, err.Error())
		state.coord.Logger().Error("[Bridge] 요청 처리 실패",
			"definition", state.coord.Name(),
			"trace_id", state.ctx.TraceIdentifier(),
			"error", err,
		)
	}

	state.span.SetAttributes(
		attribute.String("bridge.outcome", outcome),
		attribute.Int("http.response.status_code", state.ctx.Legacy().Response().StatusCode()),
	)
	state.span.End()
	state.done(outcome)

	state.coord.Logger().Debug("[Bridge] 요청 종료", "definition", state.coord.Name(), "outcome", outcome)
}

// ProcessRequest는 실행 후 반드시 마무리 단계를 거칩니다.
func (m *Module) ProcessRequest(lctx legacy.Context) (err error) {
	defer func() {
		err = errors.Join(err, m.FinishStack(lctx))
	}()
	return m.ExecuteStack(lctx)
}

func (m *Module) IsReusable() bool {
	return true
}

func (m *Module) BeginProcessRequest(lctx legacy.Context, callback legacy.AsyncCallback, state any) legacy.AsyncResult {
	return async.Begin(func() error {
		return m.ProcessRequest(lctx)
	}, callback, state)
}

func (m *Module) EndProcessRequest(result legacy.AsyncResult) error {
	return async.End(result)
}
