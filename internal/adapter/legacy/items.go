package legacy

import "sync"

// items는 레거시 Items 맵에 대한 접근을 직렬화합니다.
type items struct {
	ctx *Context
	mu  sync.RWMutex
}

func (i *items) Get(key any) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	m := i.backing()
	if m == nil {
		return nil, false
	}
	value, ok := m[key]
	return value, ok
}

func (i *items) Set(key, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if m := i.backing(); m != nil {
		m[key] = value
	}
}

func (i *items) Delete(key any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if m := i.backing(); m != nil {
		delete(m, key)
	}
}

func (i *items) backing() map[any]any {
	if i.ctx.lctx == nil {
		return nil
	}
	return i.ctx.lctx.Items()
}
