package pipeline

import (
	"context"

	"github.com/NARUBROWN/bridge/core"
)

// 빌더 속성 키
const (
	PropertyServices   = "application.Services"
	PropertyDefinition = "bridge.Definition"
)

// stackFinisher는 종단 핸들러가 레거시 쪽 완료를 기다리기 위해 요구하는 기능입니다.
type stackFinisher interface {
	FinishStack(ctx context.Context) error
}

// Builder는 미들웨어 팩토리를 등록 순서대로 모아 하나의 핸들러로 합성합니다.
// 먼저 등록한 미들웨어가 가장 바깥쪽에서 실행됩니다.
type Builder struct {
	services   core.Container
	properties map[string]any
	components []core.Middleware
}

func NewBuilder(services core.Container) *Builder {
	return &Builder{
		services: services,
		properties: map[string]any{
			PropertyServices: services,
		},
	}
}

func (b *Builder) Use(middleware core.Middleware) core.PipelineBuilder {
	if middleware == nil {
		panic("pipeline: middleware는 nil일 수 없습니다")
	}
	b.components = append(b.components, middleware)
	return b
}

func (b *Builder) Services() core.Container {
	return b.services
}

func (b *Builder) Properties() map[string]any {
	return b.properties
}

// New는 서비스와 속성을 공유하고 미들웨어 목록은 비어 있는 분기 빌더를 만듭니다.
func (b *Builder) New() core.PipelineBuilder {
	return &Builder{
		services:   b.services,
		properties: b.properties,
	}
}

// Build는 종단 핸들러에서 시작해 마지막에 등록한 팩토리부터 차례로 감쌉니다.
// 결과 핸들러는 불변 설정만 참조하므로 동시 요청에서 재사용해도 안전합니다.
func (b *Builder) Build() core.Handler {
	handler := core.Handler(terminal)

	for i := len(b.components) - 1; i >= 0; i-- {
		handler = b.components[i](handler)
		if handler == nil {
			panic("pipeline: middleware가 nil 핸들러를 반환했습니다")
		}
	}

	return handler
}

// terminal은 어떤 미들웨어도 요청을 처리하지 않았음을 표시하고,
// 레거시 호스트가 요청 주기를 끝낼 때까지 반환하지 않습니다.
func terminal(ctx core.Context) error {
	if items := ctx.Items(); items != nil {
		items.Set(core.RequestUnhandledKey, true)
	}

	finisher, ok := ctx.(stackFinisher)
	if !ok {
		return core.ErrContextUnavailable
	}
	return finisher.FinishStack(ctx.Context())
}
