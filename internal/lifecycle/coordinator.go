package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NARUBROWN/bridge/core"
	adapter "github.com/NARUBROWN/bridge/internal/adapter/legacy"
	"github.com/NARUBROWN/bridge/internal/container"
	"github.com/NARUBROWN/bridge/internal/metrics"
	"github.com/NARUBROWN/bridge/internal/pipeline"
	"github.com/NARUBROWN/bridge/internal/ws"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

const DefaultShutdownGracePeriod = 10 * time.Second

type Options struct {
	// ShutdownGracePeriod는 호스티드 서비스 Stop에 허용되는 시간입니다. 0이면 10초입니다.
	ShutdownGracePeriod time.Duration

	// Environment가 있으면 코디네이터가 호스트 종료 통지를 받도록 등록됩니다.
	Environment legacy.Environment

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// StartupFilters는 모든 정의에 적용되며 컨테이너에 등록된 필터보다 바깥쪽입니다.
	StartupFilters []core.StartupFilter

	// ConfigureServices는 정의의 ConfigureServices보다 먼저, 모든 정의에 대해 호출됩니다.
	ConfigureServices func(services core.ServiceCollection) error

	// WarmUpSingletons가 켜지면 파이프라인 구성 직후 모든 싱글톤을 만듭니다.
	// 생성 실패는 초기화 실패가 됩니다.
	WarmUpSingletons bool
}

func (o Options) withDefaults() Options {
	if o.ShutdownGracePeriod <= 0 {
		o.ShutdownGracePeriod = DefaultShutdownGracePeriod
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Coordinator는 정의 하나에 대해 만들어진 컨테이너, 합성된 핸들러,
// 백그라운드 시작 상태와 WebSocket 연결을 소유합니다.
type Coordinator struct {
	def     *core.Definition
	name    string
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	container *container.Container
	handler   core.Handler
	pool      *adapter.Pool
	tracker   *ws.Tracker

	runCtx    context.Context
	runCancel context.CancelFunc

	// started는 백그라운드 시작이 성공하든 실패하든 닫힙니다.
	started  chan struct{}
	startErr error

	mu       sync.Mutex
	running  []core.HostedService
	stopping bool

	shutdownOnce sync.Once
	shutdownErr  error
	closed       atomic.Bool
}

func build(def *core.Definition, opts Options) (coord *Coordinator, err error) {
	name := def.String()

	defer func() {
		if r := recover(); r != nil {
			coord = nil
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &core.InitializationError{Definition: name, Cause: err}
		}
	}()

	services := container.New()
	if opts.ConfigureServices != nil {
		if err := opts.ConfigureServices(services); err != nil {
			return nil, fmt.Errorf("공통 서비스 구성 실패: %w", err)
		}
	}
	if def.ConfigureServices != nil {
		if err := def.ConfigureServices(services); err != nil {
			return nil, fmt.Errorf("서비스 구성 실패: %w", err)
		}
	}

	if _, err := services.TryAddInstance(opts.Logger); err != nil {
		return nil, err
	}
	if opts.Metrics != nil {
		if _, err := services.TryAddInstance(opts.Metrics); err != nil {
			return nil, err
		}
	}
	services.Freeze()

	builder := pipeline.NewBuilder(services)
	builder.Properties()[pipeline.PropertyDefinition] = def

	configure := core.ConfigureFunc(func(app core.PipelineBuilder) error {
		if def.Configure == nil {
			return nil
		}
		return def.Configure(app)
	})

	filters := append(slices.Clone(opts.StartupFilters), services.StartupFilters()...)
	for i := len(filters) - 1; i >= 0; i-- {
		configure = filters[i].Configure(configure)
	}

	if err := configure(builder); err != nil {
		return nil, fmt.Errorf("파이프라인 구성 실패: %w", err)
	}

	if opts.WarmUpSingletons {
		types := services.SingletonTypes()
		if err := services.WarmUp(types); err != nil {
			return nil, fmt.Errorf("싱글톤 미리 생성 실패: %w", err)
		}
		opts.Logger.Debug("[Lifecycle] 싱글톤 미리 생성", "definition", name, "count", len(types))
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	coord = &Coordinator{
		def:       def,
		name:      name,
		opts:      opts,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		container: services,
		handler:   builder.Build(),
		pool:      adapter.NewPool(),
		tracker:   ws.NewTracker(),
		runCtx:    runCtx,
		runCancel: runCancel,
		started:   make(chan struct{}),
	}
	coord.tracker.SetLogger(opts.Logger)
	if opts.Metrics != nil {
		coord.tracker.SetObserver(opts.Metrics)
	}

	go coord.startHostedServices()

	if opts.Environment != nil {
		opts.Environment.RegisterObject(coord)
	}

	coord.logger.Info("[Lifecycle] 코디네이터 구성 완료", "definition", name)
	return coord, nil
}

// startHostedServices는 등록 순서대로 호스티드 서비스를 시작하고 첫 실패에서 멈춥니다.
func (c *Coordinator) startHostedServices() {
	defer close(c.started)

	services, err := c.container.HostedServices()
	if err != nil {
		c.failStartup(err)
		return
	}

	for _, svc := range services {
		if err := svc.Start(c.runCtx); err != nil {
			c.failStartup(fmt.Errorf("%T: %w", svc, err))
			return
		}

		c.mu.Lock()
		stopping := c.stopping
		if !stopping {
			c.running = append(c.running, svc)
		}
		c.mu.Unlock()

		// 종료가 이미 시작되었다면 방금 시작한 서비스는 여기서 정리합니다.
		if stopping {
			_ = svc.Stop(context.Background())
			return
		}
	}

	c.metrics.BackgroundStartup(c.name, nil)
	if len(services) > 0 {
		c.logger.Info("[Lifecycle] 호스티드 서비스 시작 완료", "definition", c.name, "count", len(services))
	}
}

func (c *Coordinator) failStartup(err error) {
	c.startErr = &core.BackgroundStartupError{Definition: c.name, Cause: err}
	c.metrics.BackgroundStartup(c.name, err)
	c.logger.Error("[Lifecycle] 백그라운드 시작 실패", "definition", c.name, "error", err)
}

func (c *Coordinator) Definition() *core.Definition {
	return c.def
}

func (c *Coordinator) Name() string {
	return c.name
}

func (c *Coordinator) Handler() core.Handler {
	return c.handler
}

func (c *Coordinator) Container() *container.Container {
	return c.container
}

func (c *Coordinator) Pool() *adapter.Pool {
	return c.pool
}

func (c *Coordinator) Tracker() *ws.Tracker {
	return c.tracker
}

func (c *Coordinator) Metrics() *metrics.Metrics {
	return c.metrics
}

func (c *Coordinator) Logger() *slog.Logger {
	return c.logger
}

// Started는 백그라운드 시작이 끝나면 닫힙니다.
func (c *Coordinator) Started() <-chan struct{} {
	return c.started
}

// StartErr는 시작이 끝나기 전이거나 성공했다면 nil입니다.
func (c *Coordinator) StartErr() error {
	select {
	case <-c.started:
		return c.startErr
	default:
		return nil
	}
}

// WaitStarted는 백그라운드 시작을 기다립니다. 시작 실패는 반환하지 않습니다.
func (c *Coordinator) WaitStarted(ctx context.Context) error {
	select {
	case <-c.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop은 호스트 환경의 종료 통지입니다.
func (c *Coordinator) Stop(immediate bool) {
	ctx := context.Background()
	if immediate {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}
	_ = c.Shutdown(ctx)
}

// Closed는 Shutdown이 시작되었는지 알려줍니다.
func (c *Coordinator) Closed() bool {
	return c.closed.Load()
}

// Shutdown은 여러 번, 동시에 호출해도 한 번만 정리합니다.
// 진행 중인 요청은 취소하지 않습니다.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.closed.Store(true)
		c.shutdownErr = c.shutdown(ctx)
	})
	return c.shutdownErr
}

func (c *Coordinator) shutdown(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, c.opts.ShutdownGracePeriod)
	defer cancel()

	c.runCancel()

	var errs []error
	if !isClosed(c.started) {
		select {
		case <-c.started:
		case <-stopCtx.Done():
			errs = append(errs, fmt.Errorf("백그라운드 시작을 기다리는 중 종료되었습니다: %w", stopCtx.Err()))
		}
	}

	c.mu.Lock()
	c.stopping = true
	running := c.running
	c.running = nil
	c.mu.Unlock()

	for i := len(running) - 1; i >= 0; i-- {
		if err := running[i].Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("%T 종료 실패: %w", running[i], err))
		}
	}

	c.tracker.Stop()

	if err := c.container.Close(stopCtx); err != nil {
		errs = append(errs, err)
	}

	if c.opts.Environment != nil {
		c.opts.Environment.UnregisterObject(c)
	}

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Error("[Lifecycle] 코디네이터 종료 중 에러", "definition", c.name, "error", err)
	} else {
		c.logger.Info("[Lifecycle] 코디네이터 종료 완료", "definition", c.name)
	}
	return err
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
