package bridge

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/NARUBROWN/bridge/core"
)

var errNoServices = errors.New("빌더에 서비스 컨테이너가 없습니다")

// Inject는 Definition.Configure 자리에 쓰는 어댑터입니다.
// T를 정의 컨테이너에서 꺼내 fn에 넘깁니다. T가 core.PipelineBuilder이면 빌더 자신이 들어갑니다.
func Inject[T any](fn func(app core.PipelineBuilder, dep T) error) func(core.PipelineBuilder) error {
	return func(app core.PipelineBuilder) error {
		dep, err := injected[T](app)
		if err != nil {
			return err
		}
		return fn(app, dep)
	}
}

// Inject2는 서비스 두 개를 주입하는 Inject입니다.
func Inject2[T1, T2 any](fn func(app core.PipelineBuilder, dep1 T1, dep2 T2) error) func(core.PipelineBuilder) error {
	return func(app core.PipelineBuilder) error {
		dep1, err := injected[T1](app)
		if err != nil {
			return err
		}
		dep2, err := injected[T2](app)
		if err != nil {
			return err
		}
		return fn(app, dep1, dep2)
	}
}

func injected[T any](app core.PipelineBuilder) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	if t == reflect.TypeFor[core.PipelineBuilder]() {
		return any(app).(T), nil
	}

	services := app.Services()
	if services == nil {
		return zero, fmt.Errorf("%s 주입 실패: %w", t, errNoServices)
	}
	dep, err := core.Resolve[T](services)
	if err != nil {
		return zero, fmt.Errorf("%s 주입 실패: %w", t, err)
	}
	return dep, nil
}
