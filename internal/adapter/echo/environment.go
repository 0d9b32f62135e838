package echo

import (
	"slices"
	"sync"

	"github.com/NARUBROWN/bridge/pkg/legacy"
)

// Environment는 호스트 종료 통지를 받을 객체 목록입니다.
type Environment struct {
	mu      sync.Mutex
	objects []legacy.RegisteredObject
}

func NewEnvironment() *Environment {
	return &Environment{}
}

func (e *Environment) RegisterObject(obj legacy.RegisteredObject) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects = append(e.objects, obj)
}

func (e *Environment) UnregisterObject(obj legacy.RegisteredObject) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects = slices.DeleteFunc(e.objects, func(o legacy.RegisteredObject) bool { return o == obj })
}

func (e *Environment) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.objects)
}

// StopAll은 잠금 밖에서 Stop을 호출합니다. 객체는 Stop 안에서 스스로 등록을 해제할 수 있습니다.
func (e *Environment) StopAll(immediate bool) {
	e.mu.Lock()
	objects := slices.Clone(e.objects)
	e.mu.Unlock()

	for _, obj := range objects {
		obj.Stop(immediate)
	}
}
