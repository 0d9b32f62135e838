package core

import (
	"context"
	"fmt"
	"reflect"
)

// HostedService는 브리지 파이프라인 외부에서 백그라운드로 실행되는 서비스 계약입니다.
type HostedService interface {
	// Start는 컨테이너와 파이프라인 구성이 끝난 뒤 별도 goroutine에서 호출됩니다.
	// Start가 반환될 때까지 첫 요청들은 대기합니다.
	Start(ctx context.Context) error
	// Stop은 코디네이터 종료 시 유예 시간 안에서 호출됩니다.
	Stop(ctx context.Context) error
}

// Container는 등록된 서비스를 꺼내기 위한 DI 접근용 Facade입니다.
type Container interface {
	Resolve(t reflect.Type) (any, error)
}

// Scope는 요청 단위 서비스 범위입니다. Close는 범위에서 만든 인스턴스를 정리합니다.
type Scope interface {
	Container
	Close(ctx context.Context) error
}

// ServiceCollection은 정의의 ConfigureServices 단계에서 서비스를 등록하는 계약입니다.
type ServiceCollection interface {
	// AddSingleton은 프로세스(정의) 단위로 한 번만 호출되는 생성자를 등록합니다.
	AddSingleton(constructor any) error
	// AddScoped는 요청 범위마다 한 번 호출되는 생성자를 등록합니다.
	AddScoped(constructor any) error
	// AddInstance는 이미 만들어진 값을 그 동적 타입으로 등록합니다.
	AddInstance(instance any) error
	// AddHostedService는 싱글톤으로 등록하고 백그라운드 시작 대상에 추가합니다.
	AddHostedService(constructor any) error
	AddStartupFilter(filter StartupFilter)
}

// Resolve는 컨테이너에서 T 타입 서비스를 꺼냅니다.
func Resolve[T any](c Container) (T, error) {
	var zero T
	v, err := c.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("서비스 타입이 일치하지 않습니다: %T", v)
	}
	return typed, nil
}
