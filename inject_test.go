package bridge_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/NARUBROWN/bridge"
	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/container"
	"github.com/NARUBROWN/bridge/internal/pipeline"
)

type greeter struct{ word string }

type clock struct{ tick int }

func newBuilder(t *testing.T, instances ...any) *pipeline.Builder {
	t.Helper()

	c := container.New()
	for _, instance := range instances {
		if err := c.AddInstance(instance); err != nil {
			t.Fatalf("인스턴스 등록 실패: %v", err)
		}
	}
	return pipeline.NewBuilder(c)
}

func TestInject_ResolvesDeclaredService(t *testing.T) {
	g := &greeter{word: "hi"}
	b := newBuilder(t, g)

	var got *greeter
	var gotBuilder core.PipelineBuilder
	configure := bridge.Inject(func(app core.PipelineBuilder, dep *greeter) error {
		gotBuilder = app
		got = dep
		return nil
	})

	if err := configure(b); err != nil {
		t.Fatalf("Configure 실패: %v", err)
	}
	if got != g {
		t.Fatal("등록된 인스턴스가 주입되어야 합니다")
	}
	if gotBuilder != core.PipelineBuilder(b) {
		t.Fatal("첫 번째 인자는 빌더 자신이어야 합니다")
	}
}

func TestInject2_ResolvesBothInOrder(t *testing.T) {
	g := &greeter{word: "hi"}
	c := &clock{tick: 3}
	b := newBuilder(t, g, c)

	configure := bridge.Inject2(func(app core.PipelineBuilder, dep1 *clock, dep2 *greeter) error {
		if dep1 != c || dep2 != g {
			t.Fatalf("주입 순서가 잘못되었습니다: %v %v", dep1, dep2)
		}
		return nil
	})

	if err := configure(b); err != nil {
		t.Fatalf("Configure 실패: %v", err)
	}
}

func TestInject_BuilderTypeIsSubstituted(t *testing.T) {
	b := newBuilder(t)

	configure := bridge.Inject(func(app core.PipelineBuilder, dep core.PipelineBuilder) error {
		if dep != app {
			t.Fatal("빌더 타입 인자에는 빌더 자신이 들어가야 합니다")
		}
		return nil
	})

	if err := configure(b); err != nil {
		t.Fatalf("Configure 실패: %v", err)
	}
}

func TestInject_MissingServiceFailsBeforeCallback(t *testing.T) {
	b := newBuilder(t)

	called := false
	configure := bridge.Inject(func(app core.PipelineBuilder, dep *greeter) error {
		called = true
		return nil
	})

	err := configure(b)
	if err == nil || !strings.Contains(err.Error(), "주입 실패") {
		t.Fatalf("주입 실패 에러가 반환되어야 합니다: %v", err)
	}
	if called {
		t.Fatal("주입에 실패하면 콜백을 호출하지 않아야 합니다")
	}
}

func TestInject_CallbackErrorIsReturned(t *testing.T) {
	b := newBuilder(t, &greeter{})
	want := errors.New("bad pipeline")

	configure := bridge.Inject(func(app core.PipelineBuilder, dep *greeter) error {
		return want
	})

	if err := configure(b); !errors.Is(err, want) {
		t.Fatalf("콜백 에러가 그대로 반환되어야 합니다: %v", err)
	}
}
