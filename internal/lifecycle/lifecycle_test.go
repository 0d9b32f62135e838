package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/legacytest"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type firstService struct {
	rec      *recorder
	startErr error
}

func (s *firstService) Start(ctx context.Context) error {
	s.rec.add("start:first")
	return s.startErr
}

func (s *firstService) Stop(ctx context.Context) error {
	s.rec.add("stop:first")
	return nil
}

type secondService struct {
	rec *recorder
}

func (s *secondService) Start(ctx context.Context) error {
	s.rec.add("start:second")
	return nil
}

func (s *secondService) Stop(ctx context.Context) error {
	s.rec.add("stop:second")
	return nil
}

func recordingFilter(rec *recorder, name string) core.StartupFilter {
	return core.StartupFilterFunc(func(next core.ConfigureFunc) core.ConfigureFunc {
		return func(app core.PipelineBuilder) error {
			rec.add(name)
			return next(app)
		}
	})
}

func waitStarted(t *testing.T, coord *Coordinator) {
	t.Helper()
	select {
	case <-coord.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("백그라운드 시작이 끝나지 않았습니다")
	}
}

func TestRegistry_BuildsOncePerDefinition(t *testing.T) {
	var builds atomic.Int32
	def := &core.Definition{
		Name: "counter",
		ConfigureServices: func(services core.ServiceCollection) error {
			builds.Add(1)
			return nil
		},
	}

	registry := NewRegistry(Options{})
	defer registry.Reset()

	var wg sync.WaitGroup
	results := make([]*Coordinator, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			coord, err := registry.GetOrCreate(def)
			if err != nil {
				t.Errorf("GetOrCreate 실패: %v", err)
			}
			results[i] = coord
		}(i)
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Fatalf("정의는 한 번만 구성되어야 합니다. 실제: %d", builds.Load())
	}
	for _, coord := range results {
		if coord != results[0] {
			t.Fatal("모든 호출이 같은 코디네이터를 받아야 합니다")
		}
	}

	other, err := registry.GetOrCreate(&core.Definition{Name: "other"})
	if err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}
	if other == results[0] {
		t.Fatal("다른 정의는 다른 코디네이터를 가져야 합니다")
	}
}

func TestRegistry_StartupFiltersWrapInReverse(t *testing.T) {
	rec := &recorder{}
	def := &core.Definition{
		ConfigureServices: func(services core.ServiceCollection) error {
			services.AddStartupFilter(recordingFilter(rec, "container-1"))
			services.AddStartupFilter(recordingFilter(rec, "container-2"))
			return nil
		},
		Configure: func(app core.PipelineBuilder) error {
			rec.add("configure")
			return nil
		},
	}

	registry := NewRegistry(Options{
		StartupFilters: []core.StartupFilter{recordingFilter(rec, "global")},
	})
	defer registry.Reset()

	if _, err := registry.GetOrCreate(def); err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}

	expected := []string{"global", "container-1", "container-2", "configure"}
	if !reflect.DeepEqual(rec.list(), expected) {
		t.Fatalf("필터 적용 순서가 잘못되었습니다: %v", rec.list())
	}
}

func TestRegistry_InitializationErrorIsMemoized(t *testing.T) {
	var builds atomic.Int32
	cause := errors.New("설정 누락")
	def := &core.Definition{
		Name: "broken",
		ConfigureServices: func(services core.ServiceCollection) error {
			builds.Add(1)
			return cause
		},
	}

	registry := NewRegistry(Options{})
	defer registry.Reset()

	_, first := registry.GetOrCreate(def)
	_, second := registry.GetOrCreate(def)

	var initErr *core.InitializationError
	if !errors.As(first, &initErr) {
		t.Fatalf("InitializationError여야 합니다: %v", first)
	}
	if initErr.Definition != "broken" || !errors.Is(first, cause) {
		t.Fatalf("원인이 보존되어야 합니다: %v", first)
	}
	if first != second {
		t.Fatal("이후 호출에서도 같은 에러가 반환되어야 합니다")
	}
	if builds.Load() != 1 {
		t.Fatalf("실패한 구성은 다시 시도되지 않아야 합니다. 실제: %d", builds.Load())
	}
}

func TestRegistry_ConfigurePanicBecomesInitializationError(t *testing.T) {
	def := &core.Definition{
		Configure: func(app core.PipelineBuilder) error {
			panic("boom")
		},
	}

	registry := NewRegistry(Options{})
	defer registry.Reset()

	coord, err := registry.GetOrCreate(def)
	var initErr *core.InitializationError
	if coord != nil || !errors.As(err, &initErr) {
		t.Fatalf("panic은 InitializationError가 되어야 합니다: %v", err)
	}
}

func TestCoordinator_BackgroundStartupFailureIsObservable(t *testing.T) {
	rec := &recorder{}
	def := &core.Definition{
		ConfigureServices: func(services core.ServiceCollection) error {
			return services.AddHostedService(func() *firstService {
				return &firstService{rec: rec, startErr: errors.New("broker down")}
			})
		},
	}

	registry := NewRegistry(Options{})
	defer registry.Reset()

	coord, err := registry.GetOrCreate(def)
	if err != nil {
		t.Fatalf("시작 실패는 GetOrCreate에서 반환되지 않아야 합니다: %v", err)
	}
	waitStarted(t, coord)

	var startErr *core.BackgroundStartupError
	if !errors.As(coord.StartErr(), &startErr) {
		t.Fatalf("BackgroundStartupError가 기록되어야 합니다: %v", coord.StartErr())
	}
	if coord.Handler() == nil {
		t.Fatal("시작 실패와 관계없이 핸들러는 준비되어야 합니다")
	}
	if err := coord.WaitStarted(context.Background()); err != nil {
		t.Fatalf("WaitStarted는 시작 실패를 반환하지 않아야 합니다: %v", err)
	}
}

func TestCoordinator_ShutdownStopsInReverseOrderOnce(t *testing.T) {
	rec := &recorder{}
	env := legacytest.NewEnvironment()
	def := &core.Definition{
		ConfigureServices: func(services core.ServiceCollection) error {
			if err := services.AddHostedService(func() *firstService { return &firstService{rec: rec} }); err != nil {
				return err
			}
			return services.AddHostedService(func() *secondService { return &secondService{rec: rec} })
		},
	}

	registry := NewRegistry(Options{Environment: env})
	coord, err := registry.GetOrCreate(def)
	if err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}
	waitStarted(t, coord)

	if len(env.Objects()) != 1 {
		t.Fatalf("코디네이터가 호스트 환경에 등록되어야 합니다: %d", len(env.Objects()))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = coord.Shutdown(context.Background())
		}()
	}
	wg.Wait()

	expected := []string{"start:first", "start:second", "stop:second", "stop:first"}
	if !reflect.DeepEqual(rec.list(), expected) {
		t.Fatalf("시작/종료 순서가 잘못되었습니다: %v", rec.list())
	}
	if !coord.Tracker().Stopped() {
		t.Fatal("WebSocket 추적기가 종료되어야 합니다")
	}
	if len(env.Objects()) != 0 {
		t.Fatal("종료 후 호스트 환경에서 해제되어야 합니다")
	}
	if registry.Len() != 1 {
		t.Fatal("종료된 코디네이터도 레지스트리에 남아야 합니다")
	}

	// 종료 중 늦게 들어온 요청은 정의를 다시 구성하지 않습니다.
	late, err := registry.GetOrCreate(def)
	if late != nil || !errors.Is(err, ErrShutDown) {
		t.Fatalf("종료된 정의는 ErrShutDown이어야 합니다: %v", err)
	}
	if _, err := registry.GetOrCreate(def); !errors.Is(err, ErrShutDown) {
		t.Fatalf("이후 호출도 ErrShutDown이어야 합니다: %v", err)
	}
	if got := rec.list(); len(got) != len(expected) {
		t.Fatalf("호스티드 서비스가 다시 시작되면 안 됩니다: %v", got)
	}

	registry.Reset()
	rebuilt, err := registry.GetOrCreate(def)
	if err != nil || rebuilt == coord {
		t.Fatalf("Reset 이후에는 새 코디네이터가 만들어져야 합니다: %v", err)
	}
	registry.Reset()
}

func TestCoordinator_HostStopShutsDown(t *testing.T) {
	env := legacytest.NewEnvironment()
	registry := NewRegistry(Options{Environment: env})

	coord, err := registry.GetOrCreate(&core.Definition{Name: "stop"})
	if err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}
	waitStarted(t, coord)

	for _, obj := range env.Objects() {
		obj.Stop(true)
	}

	if !coord.Tracker().Stopped() || !coord.Closed() {
		t.Fatal("호스트 종료 통지로 코디네이터가 종료되어야 합니다")
	}
	if _, err := registry.GetOrCreate(&core.Definition{Name: "stop"}); err != nil {
		t.Fatalf("다른 정의 포인터는 새로 구성되어야 합니다: %v", err)
	}
	registry.Reset()
}

type blockingService struct {
	release chan struct{}
}

func (s *blockingService) Start(ctx context.Context) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *blockingService) Stop(ctx context.Context) error { return nil }

func TestCoordinator_StartedWaitsForHostedServices(t *testing.T) {
	svc := &blockingService{release: make(chan struct{})}
	def := &core.Definition{
		ConfigureServices: func(services core.ServiceCollection) error {
			return services.AddHostedService(func() *blockingService { return svc })
		},
	}

	registry := NewRegistry(Options{})
	defer registry.Reset()

	coord, err := registry.GetOrCreate(def)
	if err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := coord.WaitStarted(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("시작이 끝나기 전에는 기다려야 합니다: %v", err)
	}

	close(svc.release)
	waitStarted(t, coord)
	if coord.StartErr() != nil {
		t.Fatalf("시작 에러가 없어야 합니다: %v", coord.StartErr())
	}
}

func TestRegistry_RegistersBridgeDefaults(t *testing.T) {
	registry := NewRegistry(Options{})
	defer registry.Reset()

	coord, err := registry.GetOrCreate(&core.Definition{})
	if err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}

	if coord.Name() != "bridge" {
		t.Fatalf("이름 없는 정의의 기본 이름이 잘못되었습니다: %s", coord.Name())
	}
	if coord.Container() == nil || coord.Pool() == nil {
		t.Fatal("컨테이너와 풀이 준비되어야 합니다")
	}
	if _, err := core.Resolve[*slog.Logger](coord.Container()); err != nil {
		t.Fatalf("기본 로거가 등록되어야 합니다: %v", err)
	}
}

func TestRegistry_SharedServicesRegisteredBeforeDefinition(t *testing.T) {
	rec := &recorder{}
	registry := NewRegistry(Options{
		ConfigureServices: func(services core.ServiceCollection) error {
			rec.add("shared")
			return services.AddHostedService(func() *secondService { return &secondService{rec: rec} })
		},
	})
	defer registry.Reset()

	def := &core.Definition{
		ConfigureServices: func(services core.ServiceCollection) error {
			rec.add("definition")
			return nil
		},
	}

	coord, err := registry.GetOrCreate(def)
	if err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}
	waitStarted(t, coord)

	expected := []string{"shared", "definition", "start:second"}
	if !reflect.DeepEqual(rec.list(), expected) {
		t.Fatalf("공통 서비스 구성 순서가 잘못되었습니다: %v", rec.list())
	}
}

type warmed struct{}

func TestRegistry_WarmUpSingletonsBuildsBeforeFirstRequest(t *testing.T) {
	var built atomic.Int32
	def := &core.Definition{
		ConfigureServices: func(services core.ServiceCollection) error {
			return services.AddSingleton(func() *warmed {
				built.Add(1)
				return &warmed{}
			})
		},
	}

	lazy := NewRegistry(Options{})
	defer lazy.Reset()
	if _, err := lazy.GetOrCreate(def); err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}
	if built.Load() != 0 {
		t.Fatal("기본 설정에서는 싱글톤을 미리 만들지 않아야 합니다")
	}

	eager := NewRegistry(Options{WarmUpSingletons: true})
	defer eager.Reset()
	if _, err := eager.GetOrCreate(def); err != nil {
		t.Fatalf("GetOrCreate 실패: %v", err)
	}
	if built.Load() != 1 {
		t.Fatalf("싱글톤은 구성 중 한 번 만들어져야 합니다: %d", built.Load())
	}
}

func TestRegistry_WarmUpFailureIsInitializationError(t *testing.T) {
	cause := errors.New("연결 실패")
	def := &core.Definition{
		ConfigureServices: func(services core.ServiceCollection) error {
			return services.AddSingleton(func() (*warmed, error) { return nil, cause })
		},
	}

	registry := NewRegistry(Options{WarmUpSingletons: true})
	defer registry.Reset()

	_, err := registry.GetOrCreate(def)
	var initErr *core.InitializationError
	if !errors.As(err, &initErr) || !errors.Is(err, cause) {
		t.Fatalf("미리 생성 실패는 InitializationError여야 합니다: %v", err)
	}
}
