package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sync"

	"github.com/NARUBROWN/bridge/core"
)

type lifetime int

const (
	singleton lifetime = iota
	scoped
)

func (l lifetime) String() string {
	if l == scoped {
		return "scoped"
	}
	return "singleton"
}

type registration struct {
	outType     reflect.Type
	constructor reflect.Value
	lifetime    lifetime
	hasError    bool
}

var (
	containerType = reflect.TypeFor[core.Container]()
	errorType     = reflect.TypeFor[error]()
)

// ErrFrozen은 Freeze 이후 등록을 시도하면 반환됩니다.
var ErrFrozen = errors.New("컨테이너가 이미 고정되었습니다")

// Container는 정의 하나의 싱글톤 컨테이너입니다. 요청 범위 서비스는 CreateScope로 만든 Scope가 소유합니다.
// Freeze 이후에는 등록이 막히고 조회만 동시에 일어납니다.
// 생성자 안에서 같은 컨테이너를 다시 조회하면 교착 상태가 되므로 의존성은 매개변수로 선언합니다.
type Container struct {
	mu            sync.Mutex
	registrations map[reflect.Type]*registration
	order         []reflect.Type
	instances     map[reflect.Type]any
	created       []any
	creating      map[reflect.Type]bool
	hosted        []reflect.Type
	filters       []core.StartupFilter
	frozen        bool
	closed        bool
}

func New() *Container {
	return &Container{
		registrations: make(map[reflect.Type]*registration),
		instances:     make(map[reflect.Type]any),
		creating:      make(map[reflect.Type]bool),
	}
}

func (c *Container) AddSingleton(constructor any) error {
	return c.register(constructor, singleton)
}

func (c *Container) AddScoped(constructor any) error {
	return c.register(constructor, scoped)
}

// AddInstance는 이미 만들어진 값을 동적 타입으로 등록합니다. 컨테이너가 닫혀도 Close하지 않습니다.
func (c *Container) AddInstance(instance any) error {
	if instance == nil {
		return errors.New("인스턴스는 nil일 수 없습니다")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrFrozen
	}

	t := reflect.TypeOf(instance)
	value := reflect.ValueOf(instance)
	c.addLocked(&registration{
		outType:     t,
		constructor: reflect.ValueOf(func() any { return value.Interface() }),
		lifetime:    singleton,
	})
	c.instances[t] = instance
	return nil
}

// TryAddInstance는 같은 타입의 등록이 아직 없을 때만 인스턴스를 등록합니다.
func (c *Container) TryAddInstance(instance any) (bool, error) {
	if instance == nil {
		return false, errors.New("인스턴스는 nil일 수 없습니다")
	}

	c.mu.Lock()
	_, exists := c.registrations[reflect.TypeOf(instance)]
	c.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, c.AddInstance(instance)
}

// AddHostedService는 싱글톤으로 등록하고 백그라운드 시작 대상에 추가합니다.
func (c *Container) AddHostedService(constructor any) error {
	typ := reflect.TypeOf(constructor)
	if typ == nil || typ.Kind() != reflect.Func || typ.NumOut() == 0 {
		return errors.New("생성자는 함수여야 합니다")
	}
	outType := typ.Out(0)
	if !outType.Implements(reflect.TypeFor[core.HostedService]()) {
		return fmt.Errorf("호스티드 서비스는 core.HostedService를 구현해야 합니다: %v", outType)
	}

	if err := c.register(constructor, singleton); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosted = append(c.hosted, outType)
	return nil
}

func (c *Container) AddStartupFilter(filter core.StartupFilter) {
	if filter == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, filter)
}

func (c *Container) StartupFilters() []core.StartupFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.filters)
}

// HostedServices는 등록 순서대로 호스티드 서비스를 만들어 반환합니다.
func (c *Container) HostedServices() ([]core.HostedService, error) {
	c.mu.Lock()
	types := slices.Clone(c.hosted)
	c.mu.Unlock()

	services := make([]core.HostedService, 0, len(types))
	for _, t := range types {
		instance, err := c.Resolve(t)
		if err != nil {
			return nil, err
		}
		services = append(services, instance.(core.HostedService))
	}
	return services, nil
}

// Freeze는 이후의 등록을 막습니다.
func (c *Container) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

func (c *Container) register(function any, lt lifetime) error {
	val := reflect.ValueOf(function)
	if !val.IsValid() || val.Kind() != reflect.Func {
		return errors.New("생성자는 함수여야 합니다")
	}

	typ := val.Type()
	hasError := false
	switch {
	case typ.NumOut() == 1:
	case typ.NumOut() == 2 && typ.Out(1) == errorType:
		hasError = true
	default:
		return errors.New("생성자는 하나의 반환값(또는 값과 error)만 가져야 합니다")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrFrozen
	}

	c.addLocked(&registration{
		outType:     typ.Out(0),
		constructor: val,
		lifetime:    lt,
		hasError:    hasError,
	})
	return nil
}

func (c *Container) addLocked(reg *registration) {
	if _, exists := c.registrations[reg.outType]; !exists {
		c.order = append(c.order, reg.outType)
	}
	c.registrations[reg.outType] = reg
}

// lookupLocked는 정확히 일치하는 타입을 먼저 찾고, 없으면 등록 순서대로
// 요청 인터페이스를 구현하는 첫 등록을 찾습니다.
func (c *Container) lookupLocked(t reflect.Type) (*registration, bool) {
	if reg, ok := c.registrations[t]; ok {
		return reg, true
	}
	if t.Kind() != reflect.Interface {
		return nil, false
	}
	for _, candidate := range c.order {
		if candidate.Implements(t) {
			return c.registrations[candidate], true
		}
	}
	return nil, false
}

func (c *Container) Resolve(componentType reflect.Type) (any, error) {
	if componentType == containerType {
		return c, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked(componentType)
}

func (c *Container) resolveLocked(componentType reflect.Type) (any, error) {
	if c.closed {
		return nil, errors.New("닫힌 컨테이너입니다")
	}
	if componentType == containerType {
		return c, nil
	}

	reg, ok := c.lookupLocked(componentType)
	if !ok {
		return nil, fmt.Errorf("등록된 생성자가 없습니다: %v", componentType)
	}
	if reg.lifetime == scoped {
		return nil, fmt.Errorf("scoped 서비스는 요청 범위에서만 조회할 수 있습니다: %v", reg.outType)
	}

	if instance, ok := c.instances[reg.outType]; ok {
		return instance, nil
	}

	if c.creating[reg.outType] {
		return nil, fmt.Errorf("순환 의존성 감지: %v", reg.outType)
	}
	c.creating[reg.outType] = true
	defer delete(c.creating, reg.outType)

	result, err := invoke(reg, c.resolveLocked)
	if err != nil {
		return nil, err
	}

	c.instances[reg.outType] = result
	c.created = append(c.created, result)
	return result, nil
}

func invoke(reg *registration, resolve func(reflect.Type) (any, error)) (any, error) {
	fnType := reg.constructor.Type()
	args := make([]reflect.Value, fnType.NumIn())
	for i := range args {
		paramType := fnType.In(i)
		paramInstance, err := resolve(paramType)
		if err != nil {
			return nil, err
		}
		if paramInstance == nil {
			args[i] = reflect.Zero(paramType)
			continue
		}
		args[i] = reflect.ValueOf(paramInstance)
	}

	out := reg.constructor.Call(args)
	if reg.hasError && !out[1].IsNil() {
		return nil, fmt.Errorf("%v 생성 실패: %w", reg.outType, out[1].Interface().(error))
	}
	return out[0].Interface(), nil
}

// SingletonTypes는 등록 순서대로 싱글톤 등록의 타입을 반환합니다.
func (c *Container) SingletonTypes() []reflect.Type {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]reflect.Type, 0, len(c.order))
	for _, t := range c.order {
		if c.registrations[t].lifetime == singleton {
			out = append(out, t)
		}
	}
	return out
}

// WarmUp은 주어진 타입을 첫 요청 전에 미리 만듭니다. 같은 타입은 한 번만 만듭니다.
func (c *Container) WarmUp(types []reflect.Type) error {
	seen := make(map[reflect.Type]struct{})

	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}

		if _, err := c.Resolve(t); err != nil {
			return err
		}
	}
	return nil
}

// CreateScope는 요청 하나의 서비스 범위를 만듭니다.
func (c *Container) CreateScope() *Scope {
	return &Scope{
		root:      c,
		instances: make(map[reflect.Type]any),
		creating:  make(map[reflect.Type]bool),
	}
}

// Close는 컨테이너가 만든 싱글톤을 생성 역순으로 닫습니다. 여러 번 호출해도 안전합니다.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	created := c.created
	c.created = nil
	c.mu.Unlock()

	return closeAll(ctx, created)
}

// Scope는 요청 범위 인스턴스를 소유합니다. 싱글톤 조회는 루트 컨테이너로 넘깁니다.
type Scope struct {
	root *Container

	mu        sync.Mutex
	instances map[reflect.Type]any
	created   []any
	creating  map[reflect.Type]bool
	closed    bool
}

func (s *Scope) Resolve(componentType reflect.Type) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(componentType)
}

func (s *Scope) resolveLocked(componentType reflect.Type) (any, error) {
	if s.closed {
		return nil, errors.New("닫힌 서비스 범위입니다")
	}
	if componentType == containerType {
		return s, nil
	}

	s.root.mu.Lock()
	reg, ok := s.root.lookupLocked(componentType)
	s.root.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("등록된 생성자가 없습니다: %v", componentType)
	}
	if reg.lifetime == singleton {
		return s.root.Resolve(reg.outType)
	}

	if instance, ok := s.instances[reg.outType]; ok {
		return instance, nil
	}
	if s.creating[reg.outType] {
		return nil, fmt.Errorf("순환 의존성 감지: %v", reg.outType)
	}
	s.creating[reg.outType] = true
	defer delete(s.creating, reg.outType)

	result, err := invoke(reg, s.resolveLocked)
	if err != nil {
		return nil, err
	}

	s.instances[reg.outType] = result
	s.created = append(s.created, result)
	return result, nil
}

// Close는 범위에서 만든 인스턴스를 생성 역순으로 닫습니다. 두 번째 호출부터는 아무것도 하지 않습니다.
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	created := s.created
	s.created = nil
	s.instances = nil
	s.mu.Unlock()

	return closeAll(ctx, created)
}

type contextCloser interface {
	Close(ctx context.Context) error
}

func closeAll(ctx context.Context, created []any) error {
	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		switch v := created[i].(type) {
		case contextCloser:
			if err := v.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		case io.Closer:
			if err := v.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
