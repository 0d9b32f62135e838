package container

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/NARUBROWN/bridge/core"
)

type testRepo struct{}

type testService struct {
	repo *testRepo
}

type testHandler struct {
	svc *testService
}

type testIface interface {
	Name() string
}

type testImpl struct{}

func (t *testImpl) Name() string { return "impl" }

type cycleA struct {
	b *cycleB
}

type cycleB struct {
	a *cycleA
}

func TestAddSingleton_Validation(t *testing.T) {
	c := New()

	if err := c.AddSingleton(123); err == nil {
		t.Fatal("함수가 아닌 생성자에 대해 에러가 발생해야 합니다")
	}

	if err := c.AddSingleton(func() (*testRepo, *testService) { return nil, nil }); err == nil {
		t.Fatal("두 번째 반환값이 error가 아닌 생성자에 대해 에러가 발생해야 합니다")
	}

	if err := c.AddSingleton(func() {}); err == nil {
		t.Fatal("반환값이 없는 생성자에 대해 에러가 발생해야 합니다")
	}
}

func TestResolve_ResolvesDependenciesAndCachesInstance(t *testing.T) {
	c := New()

	repoCalls := 0
	svcCalls := 0
	handlerCalls := 0

	_ = c.AddSingleton(func() *testRepo {
		repoCalls++
		return &testRepo{}
	})
	_ = c.AddSingleton(func(r *testRepo) *testService {
		svcCalls++
		return &testService{repo: r}
	})
	_ = c.AddSingleton(func(s *testService) *testHandler {
		handlerCalls++
		return &testHandler{svc: s}
	})

	typeOfHandler := reflect.TypeOf(&testHandler{})
	first, err := c.Resolve(typeOfHandler)
	if err != nil {
		t.Fatalf("Resolve에 실패했습니다: %v", err)
	}
	second, err := c.Resolve(typeOfHandler)
	if err != nil {
		t.Fatalf("두 번째 Resolve에 실패했습니다: %v", err)
	}

	if first != second {
		t.Fatal("캐시된 싱글톤 인스턴스가 반환되어야 합니다")
	}
	if repoCalls != 1 || svcCalls != 1 || handlerCalls != 1 {
		t.Fatalf("생성자는 한 번씩만 호출되어야 합니다. 실제 repo=%d svc=%d handler=%d", repoCalls, svcCalls, handlerCalls)
	}
}

func TestResolve_InterfaceAssignableConstructor(t *testing.T) {
	c := New()
	_ = c.AddSingleton(func() *testImpl { return &testImpl{} })

	instance, err := c.Resolve(reflect.TypeOf((*testIface)(nil)).Elem())
	if err != nil {
		t.Fatalf("인터페이스 Resolve에 실패했습니다: %v", err)
	}

	iface, ok := instance.(testIface)
	if !ok {
		t.Fatalf("Resolve 결과는 인터페이스를 구현해야 합니다. 실제 타입: %T", instance)
	}
	if iface.Name() != "impl" {
		t.Fatalf("인터페이스 구현 결과가 예상과 다릅니다: %s", iface.Name())
	}
}

func TestResolve_NoConstructor(t *testing.T) {
	c := New()
	_, err := c.Resolve(reflect.TypeOf(&testRepo{}))
	if err == nil {
		t.Fatal("등록되지 않은 생성자에 대해 에러가 발생해야 합니다")
	}
	if !strings.Contains(err.Error(), "등록된 생성자가 없습니다") {
		t.Fatalf("예상하지 못한 에러입니다: %v", err)
	}
}

func TestResolve_CycleDetection(t *testing.T) {
	c := New()
	_ = c.AddSingleton(func(b *cycleB) *cycleA { return &cycleA{b: b} })
	_ = c.AddSingleton(func(a *cycleA) *cycleB { return &cycleB{a: a} })

	_, err := c.Resolve(reflect.TypeOf(&cycleA{}))
	if err == nil {
		t.Fatal("순환 의존성 감지 에러가 발생해야 합니다")
	}
	if !strings.Contains(err.Error(), "순환 의존성 감지") {
		t.Fatalf("예상하지 못한 에러입니다: %v", err)
	}
}

func TestWarmUp_DeduplicatesAndInitializesTypes(t *testing.T) {
	c := New()

	handlerCalls := 0
	_ = c.AddSingleton(func() *testRepo { return &testRepo{} })
	_ = c.AddSingleton(func(r *testRepo) *testService { return &testService{repo: r} })
	_ = c.AddSingleton(func(s *testService) *testHandler {
		handlerCalls++
		return &testHandler{svc: s}
	})

	typeOfHandler := reflect.TypeOf(&testHandler{})
	err := c.WarmUp([]reflect.Type{typeOfHandler, typeOfHandler})
	if err != nil {
		t.Fatalf("WarmUp에 실패했습니다: %v", err)
	}

	if handlerCalls != 1 {
		t.Fatalf("WarmUp은 타입별로 한 번만 초기화해야 합니다. 실제 호출 횟수: %d", handlerCalls)
	}
}

type closingRepo struct {
	closed *[]string
	name   string
}

func (r *closingRepo) Close() error {
	*r.closed = append(*r.closed, r.name)
	return nil
}

type requestState struct {
	repo *testRepo
}

func TestRegister_ConstructorWithError(t *testing.T) {
	c := New()
	_ = c.AddSingleton(func() (*testRepo, error) { return nil, errors.New("db down") })

	_, err := c.Resolve(reflect.TypeOf(&testRepo{}))
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("생성자 에러가 전달되어야 합니다: %v", err)
	}
}

func TestScope_ScopedInstancesArePerScope(t *testing.T) {
	c := New()
	_ = c.AddSingleton(func() *testRepo { return &testRepo{} })
	_ = c.AddScoped(func(r *testRepo) *requestState { return &requestState{repo: r} })

	s1 := c.CreateScope()
	s2 := c.CreateScope()

	a1, err := core.Resolve[*requestState](s1)
	if err != nil {
		t.Fatalf("scoped Resolve 실패: %v", err)
	}
	a2, _ := core.Resolve[*requestState](s1)
	b1, _ := core.Resolve[*requestState](s2)

	if a1 != a2 {
		t.Fatal("같은 범위에서는 같은 인스턴스여야 합니다")
	}
	if a1 == b1 {
		t.Fatal("다른 범위에서는 다른 인스턴스여야 합니다")
	}
	if a1.repo != b1.repo {
		t.Fatal("싱글톤 의존성은 범위 사이에서 공유되어야 합니다")
	}

	if _, err := c.Resolve(reflect.TypeOf(&requestState{})); err == nil {
		t.Fatal("루트 컨테이너에서 scoped 서비스를 조회하면 에러여야 합니다")
	}
}

func TestScope_CloseIsIdempotentAndReverseOrder(t *testing.T) {
	var closed []string

	c := New()
	_ = c.AddScoped(func() *closingRepo { return &closingRepo{closed: &closed, name: "first"} })
	_ = c.AddScoped(func(first *closingRepo) *testService { return &testService{} })

	s := c.CreateScope()
	if _, err := s.Resolve(reflect.TypeOf(&testService{})); err != nil {
		t.Fatalf("Resolve 실패: %v", err)
	}

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close 실패: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("두 번째 Close 실패: %v", err)
	}
	if len(closed) != 1 || closed[0] != "first" {
		t.Fatalf("범위 인스턴스는 한 번만 닫혀야 합니다: %v", closed)
	}
	if _, err := s.Resolve(reflect.TypeOf(&testService{})); err == nil {
		t.Fatal("닫힌 범위에서 Resolve는 실패해야 합니다")
	}
}

func TestContainer_ContainerParameterIsInjected(t *testing.T) {
	c := New()
	var got core.Container
	_ = c.AddScoped(func(sc core.Container) *requestState {
		got = sc
		return &requestState{}
	})

	s := c.CreateScope()
	if _, err := s.Resolve(reflect.TypeOf(&requestState{})); err != nil {
		t.Fatalf("Resolve 실패: %v", err)
	}
	if got != core.Container(s) {
		t.Fatal("scoped 생성자에는 현재 범위가 주입되어야 합니다")
	}
}

func TestContainer_FreezeBlocksRegistration(t *testing.T) {
	c := New()
	c.Freeze()

	if err := c.AddSingleton(func() *testRepo { return &testRepo{} }); !errors.Is(err, ErrFrozen) {
		t.Fatalf("Freeze 이후 등록은 ErrFrozen이어야 합니다: %v", err)
	}
}

func TestContainer_AddInstance(t *testing.T) {
	c := New()
	repo := &testRepo{}
	_ = c.AddInstance(repo)

	got, err := core.Resolve[*testRepo](c)
	if err != nil || got != repo {
		t.Fatalf("등록한 인스턴스가 반환되어야 합니다: %v", err)
	}
}

type testHosted struct{ started bool }

func (h *testHosted) Start(ctx context.Context) error { h.started = true; return nil }
func (h *testHosted) Stop(ctx context.Context) error  { return nil }

func TestContainer_HostedServices(t *testing.T) {
	c := New()

	if err := c.AddHostedService(func() *testRepo { return &testRepo{} }); err == nil {
		t.Fatal("HostedService를 구현하지 않은 타입은 거부되어야 합니다")
	}
	if err := c.AddHostedService(func() *testHosted { return &testHosted{} }); err != nil {
		t.Fatalf("호스티드 서비스 등록 실패: %v", err)
	}

	services, err := c.HostedServices()
	if err != nil {
		t.Fatalf("HostedServices 실패: %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("호스티드 서비스 개수가 잘못되었습니다: %d", len(services))
	}

	again, _ := core.Resolve[*testHosted](c)
	if services[0] != core.HostedService(again) {
		t.Fatal("호스티드 서비스는 싱글톤이어야 합니다")
	}
}

func TestContainer_CloseClosesSingletonsInReverseOrder(t *testing.T) {
	var closed []string

	type second struct{ *closingRepo }

	c := New()
	_ = c.AddSingleton(func() *closingRepo { return &closingRepo{closed: &closed, name: "first"} })
	_ = c.AddSingleton(func(f *closingRepo) *second {
		return &second{&closingRepo{closed: &closed, name: "second"}}
	})

	if _, err := c.Resolve(reflect.TypeOf(&second{})); err != nil {
		t.Fatalf("Resolve 실패: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close 실패: %v", err)
	}
	_ = c.Close(context.Background())

	expected := []string{"second", "first"}
	if !reflect.DeepEqual(closed, expected) {
		t.Fatalf("닫는 순서가 잘못되었습니다: %v", closed)
	}
}

func TestContainer_ConcurrentResolveBuildsOnce(t *testing.T) {
	c := New()
	var calls atomic.Int32
	_ = c.AddSingleton(func() *testRepo {
		calls.Add(1)
		return &testRepo{}
	})
	c.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Resolve(reflect.TypeOf(&testRepo{}))
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("싱글톤 생성자는 한 번만 호출되어야 합니다: %d", calls.Load())
	}
}

func TestContainer_TryAddInstanceKeepsExistingRegistration(t *testing.T) {
	c := New()
	mine := &testRepo{}
	_ = c.AddInstance(mine)

	added, err := c.TryAddInstance(&testRepo{})
	if err != nil {
		t.Fatalf("TryAddInstance 실패: %v", err)
	}
	if added {
		t.Fatal("이미 등록된 타입은 덮어쓰지 않아야 합니다")
	}

	got, _ := core.Resolve[*testRepo](c)
	if got != mine {
		t.Fatal("기존 인스턴스가 유지되어야 합니다")
	}
}

func TestSingletonTypes_SkipsScopedInRegistrationOrder(t *testing.T) {
	c := New()

	_ = c.AddSingleton(func() *testRepo { return &testRepo{} })
	_ = c.AddScoped(func() *testHandler { return &testHandler{} })
	_ = c.AddInstance(&testImpl{})

	got := c.SingletonTypes()
	want := []reflect.Type{reflect.TypeFor[*testRepo](), reflect.TypeFor[*testImpl]()}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("싱글톤 타입이 잘못되었습니다: %v", got)
	}
	if err := c.WarmUp(got); err != nil {
		t.Fatalf("WarmUp에 실패했습니다: %v", err)
	}
}
