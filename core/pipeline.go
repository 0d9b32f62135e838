package core

// Handler는 모던 파이프라인의 요청 처리 함수입니다.
type Handler func(ctx Context) error

// Middleware는 다음 핸들러를 감싸 새 핸들러를 만드는 팩토리입니다.
type Middleware func(next Handler) Handler

// PipelineBuilder는 미들웨어 팩토리를 순서대로 모아 하나의 핸들러로 합성합니다.
type PipelineBuilder interface {
	Use(middleware Middleware) PipelineBuilder
	// Services는 정의 단위(싱글톤) 컨테이너입니다.
	Services() Container
	Properties() map[string]any
	// New는 서비스와 속성은 공유하고 미들웨어 목록은 비어 있는 분기 빌더를 만듭니다.
	New() PipelineBuilder
	Build() Handler
}

// UseFunc는 (ctx, next) 형태의 인라인 미들웨어를 등록합니다.
func UseFunc(builder PipelineBuilder, fn func(ctx Context, next Handler) error) PipelineBuilder {
	return builder.Use(func(next Handler) Handler {
		return func(ctx Context) error {
			return fn(ctx, next)
		}
	})
}

// ConfigureFunc는 파이프라인 구성 단계입니다.
type ConfigureFunc func(app PipelineBuilder) error

// StartupFilter는 구성 단계를 감싸 전처리/후처리 미들웨어를 끼워 넣습니다.
// 등록 역순으로 적용되므로 먼저 등록한 필터가 가장 바깥쪽이 됩니다.
type StartupFilter interface {
	Configure(next ConfigureFunc) ConfigureFunc
}

type StartupFilterFunc func(next ConfigureFunc) ConfigureFunc

func (f StartupFilterFunc) Configure(next ConfigureFunc) ConfigureFunc {
	return f(next)
}
