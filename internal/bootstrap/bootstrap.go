package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NARUBROWN/bridge/core"
	httpEngine "github.com/NARUBROWN/bridge/internal/adapter/echo"
	"github.com/NARUBROWN/bridge/internal/event/consumer"
	"github.com/NARUBROWN/bridge/internal/event/infra/kafka"
	"github.com/NARUBROWN/bridge/internal/event/infra/rabbitmq"
	"github.com/NARUBROWN/bridge/internal/lifecycle"
	"github.com/NARUBROWN/bridge/internal/metrics"
	"github.com/NARUBROWN/bridge/internal/module"
	"github.com/NARUBROWN/bridge/pkg/boot"
	"github.com/NARUBROWN/bridge/pkg/legacy"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

const defaultShutdownTimeout = 15 * time.Second

// HandlerSpec은 경로 접두사에 매핑할 핸들러입니다.
// Legacy가 있으면 Definition 대신 호스트 고유 핸들러로 매핑합니다.
type HandlerSpec struct {
	Prefix     string
	Definition *core.Definition
	Legacy     legacy.Handler
}

type Config struct {
	Address                string
	ApplicationPath        string
	EnableGracefulShutdown bool
	ShutdownTimeout        time.Duration
	GracePeriod            time.Duration
	WarmUpSingletons       bool

	Modules        []*core.Definition
	Handlers       []HandlerSpec
	StartupFilters []core.StartupFilter

	// 비어 있으면 지표를 수집하지 않습니다.
	MetricsPath    string
	TracerProvider trace.TracerProvider
	Logger         *slog.Logger

	Kafka     *boot.KafkaOptions
	RabbitMq  *boot.RabbitMqOptions
	Consumers *consumer.Registry

	// Transport는 서버가 요청을 받기 직전에 Echo 인스턴스를 전달받습니다.
	Transport func(any)
}

func Run(config Config) error {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 지표
	promRegistry := prometheus.NewRegistry()
	var m *metrics.Metrics
	if config.MetricsPath != "" {
		m = metrics.New(promRegistry)
	}

	// 레거시 호스트
	host := httpEngine.NewAdapter(httpEngine.Options{
		ApplicationPath: config.ApplicationPath,
		Logger:          logger,
	})

	registry := lifecycle.NewRegistry(lifecycle.Options{
		ShutdownGracePeriod: config.GracePeriod,
		Environment:         host.Environment(),
		Logger:              logger,
		Metrics:             m,
		StartupFilters:      config.StartupFilters,
		ConfigureServices:   BrokerServices(config.Kafka, config.RabbitMq),
		WarmUpSingletons:    config.WarmUpSingletons,
	})

	var moduleOpts []module.Option
	if config.TracerProvider != nil {
		moduleOpts = append(moduleOpts, module.WithTracerProvider(config.TracerProvider))
	}

	// 모듈과 핸들러 등록
	for _, def := range config.Modules {
		if err := host.AddModule(module.New(def, registry, moduleOpts...)); err != nil {
			return err
		}
	}
	for _, spec := range config.Handlers {
		switch {
		case spec.Legacy != nil:
			host.MapHandler(spec.Prefix, spec.Legacy)
		case spec.Definition != nil:
			host.MapHandler(spec.Prefix, module.New(spec.Definition, registry, moduleOpts...))
		default:
			return fmt.Errorf("핸들러가 지정되지 않았습니다: %s", spec.Prefix)
		}
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if m != nil {
		e.GET(config.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	}
	host.Mount(e)

	// 이벤트 소비자
	runtime, err := startConsumers(config, logger)
	if err != nil {
		return err
	}

	ctx, stop := context.Background(), func() {}
	if config.EnableGracefulShutdown {
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	}
	defer stop()

	if config.Transport != nil {
		config.Transport(e)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("[Bridge] 서버 시작", "address", config.Address, "application_path", config.ApplicationPath)
		if err := e.Start(config.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("[Bridge] 종료 신호 수신")
	case err := <-serverErr:
		_ = stopConsumers(context.Background(), runtime)
		_ = registry.Shutdown(context.Background())
		return err
	}

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := e.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("서버 종료 실패: %w", err))
	}
	if err := stopConsumers(shutdownCtx, runtime); err != nil {
		errs = append(errs, fmt.Errorf("이벤트 소비자 종료 실패: %w", err))
	}
	if err := registry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("코디네이터 종료 실패: %w", err))
	}
	if shutdownCtx.Err() != nil {
		host.Shutdown(true)
	}

	logger.Info("[Bridge] 서버 종료")
	return errors.Join(errs...)
}

// BrokerServices는 설정된 브로커 발행기를 정의마다 호스티드 서비스로 등록합니다.
// 발행기는 core.EventPublisher로도 조회됩니다. 둘 다 설정되면 Kafka가 먼저 조회됩니다.
func BrokerServices(kafkaOpts *boot.KafkaOptions, rabbitOpts *boot.RabbitMqOptions) func(core.ServiceCollection) error {
	if kafkaOpts == nil && rabbitOpts == nil {
		return nil
	}

	return func(services core.ServiceCollection) error {
		if kafkaOpts != nil && kafkaOpts.Write != nil {
			opts := *kafkaOpts
			if err := services.AddHostedService(func() (*kafka.Writer, error) {
				return kafka.NewKafkaWriter(opts)
			}); err != nil {
				return err
			}
		}
		if rabbitOpts != nil && rabbitOpts.Write != nil {
			opts := *rabbitOpts
			if err := services.AddHostedService(func() (*rabbitmq.Writer, error) {
				return rabbitmq.NewRabbitMqWriter(opts)
			}); err != nil {
				return err
			}
		}
		return nil
	}
}

type consumerRuntime struct {
	runtime   *consumer.Runtime
	publisher core.HostedService
}

// startConsumers는 등록된 소비자를 설정된 브로커 하나에 연결해 시작합니다.
// 소비자가 발행한 이벤트는 같은 브로커의 발행기로 내보냅니다.
func startConsumers(config Config, logger *slog.Logger) (*consumerRuntime, error) {
	if config.Consumers == nil || len(config.Consumers.Registrations()) == 0 {
		return nil, nil
	}

	var (
		factory   consumer.RunnerFactory
		publisher interface {
			core.HostedService
			core.EventPublisher
		}
	)

	switch {
	case config.Kafka != nil && config.Kafka.Read != nil:
		factory = kafka.NewRunnerFactory(*config.Kafka)
		if config.Kafka.Write != nil {
			w, err := kafka.NewKafkaWriter(*config.Kafka)
			if err != nil {
				return nil, err
			}
			publisher = w
		}
	case config.RabbitMq != nil && config.RabbitMq.Read != nil:
		factory = rabbitmq.NewRunnerFactory(*config.RabbitMq)
		if config.RabbitMq.Write != nil {
			w, err := rabbitmq.NewRabbitMqWriter(*config.RabbitMq)
			if err != nil {
				return nil, err
			}
			publisher = w
		}
	default:
		return nil, errors.New("소비자가 등록되었지만 읽기 설정된 브로커가 없습니다")
	}

	ctx := context.Background()
	rt := &consumerRuntime{}
	var eventPublisher core.EventPublisher
	if publisher != nil {
		if err := publisher.Start(ctx); err != nil {
			return nil, fmt.Errorf("소비자 발행기 시작 실패: %w", err)
		}
		rt.publisher = publisher
		eventPublisher = publisher
	}

	rt.runtime = consumer.NewRuntime(config.Consumers, factory, eventPublisher)
	if err := rt.runtime.Start(ctx); err != nil {
		if rt.publisher != nil {
			_ = rt.publisher.Stop(ctx)
		}
		return nil, err
	}

	logger.Info("[Event Consumer] 소비자 시작", "count", len(config.Consumers.Registrations()))
	return rt, nil
}

func stopConsumers(ctx context.Context, rt *consumerRuntime) error {
	if rt == nil {
		return nil
	}
	err := rt.runtime.Stop(ctx)
	if rt.publisher != nil {
		err = errors.Join(err, rt.publisher.Stop(ctx))
	}
	return err
}
