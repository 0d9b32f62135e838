package bridge

import (
	"log/slog"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/bootstrap"
	"github.com/NARUBROWN/bridge/internal/event/consumer"
	"github.com/NARUBROWN/bridge/pkg/boot"
	"github.com/NARUBROWN/bridge/pkg/legacy"
	"go.opentelemetry.io/otel/trace"
)

type Definition = core.Definition

// ConsumerHandler는 브로커에서 읽은 메시지 하나를 처리합니다.
// 에러를 반환하면 메시지는 재전달 대상으로 돌려집니다.
type ConsumerHandler = consumer.Handler

type ConsumerMessage = consumer.Message

type App interface {
	// 모든 요청의 pre-execution 단계에서 정의의 파이프라인을 실행합니다.
	Module(def *Definition)
	// prefix 경로의 요청을 정의의 파이프라인이 끝까지 처리합니다.
	Handler(prefix string, def *Definition)
	// prefix 경로에 호스트 고유 핸들러를 매핑합니다.
	LegacyHandler(prefix string, handler legacy.Handler)
	// 모든 정의에 적용할 시작 필터
	StartupFilter(filters ...core.StartupFilter)
	// 이벤트 소비자 등록
	Consumer(topic string, handler ConsumerHandler)
	Logger(logger *slog.Logger)
	TracerProvider(provider trace.TracerProvider)
	// 서버가 요청을 받기 직전에 전송 계층(http.Handler)을 전달합니다.
	Transport(fn func(any))
	// 실행
	Run(opts boot.Options) error
}

type app struct {
	modules        []*core.Definition
	handlers       []bootstrap.HandlerSpec
	filters        []core.StartupFilter
	consumers      *consumer.Registry
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	transport      func(any)
}

func New() App {
	return &app{consumers: consumer.NewRegistry()}
}

func (a *app) Module(def *Definition) {
	a.modules = append(a.modules, def)
}

func (a *app) Handler(prefix string, def *Definition) {
	a.handlers = append(a.handlers, bootstrap.HandlerSpec{
		Prefix:     prefix,
		Definition: def,
	})
}

func (a *app) LegacyHandler(prefix string, handler legacy.Handler) {
	a.handlers = append(a.handlers, bootstrap.HandlerSpec{
		Prefix: prefix,
		Legacy: handler,
	})
}

func (a *app) StartupFilter(filters ...core.StartupFilter) {
	a.filters = append(a.filters, filters...)
}

func (a *app) Consumer(topic string, handler ConsumerHandler) {
	a.consumers.Register(topic, handler)
}

func (a *app) Logger(logger *slog.Logger) {
	a.logger = logger
}

func (a *app) TracerProvider(provider trace.TracerProvider) {
	a.tracerProvider = provider
}

func (a *app) Transport(fn func(any)) {
	a.transport = fn
}

func (a *app) Run(opts boot.Options) error {
	internalConfig := bootstrap.Config{
		Address:                opts.Address,
		ApplicationPath:        opts.ApplicationPath,
		EnableGracefulShutdown: opts.EnableGracefulShutdown,
		ShutdownTimeout:        opts.ShutdownTimeout,
		GracePeriod:            opts.GracePeriod,
		WarmUpSingletons:       opts.WarmUpSingletons,
		Modules:                a.modules,
		Handlers:               a.handlers,
		StartupFilters:         a.filters,
		TracerProvider:         a.tracerProvider,
		Logger:                 a.logger,
		Kafka:                  opts.Kafka,
		RabbitMq:               opts.RabbitMq,
		Consumers:              a.consumers,
		Transport:              a.transport,
	}
	if opts.Metrics != nil {
		internalConfig.MetricsPath = opts.Metrics.Path
		if internalConfig.MetricsPath == "" {
			internalConfig.MetricsPath = "/metrics"
		}
	}

	return bootstrap.Run(internalConfig)
}
