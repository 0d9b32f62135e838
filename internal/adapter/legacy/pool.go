package legacy

import (
	"sync"
	"sync/atomic"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/ws"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

// Pool은 코디네이터 하나가 소유하는 Context 풀입니다.
type Pool struct {
	pool     sync.Pool
	acquired atomic.Int64
	returned atomic.Int64
}

func NewPool() *Pool {
	p := &Pool{}
	p.pool.New = func() any {
		return newContext()
	}
	return p
}

// Acquire는 풀에서 Context를 꺼내 레거시 요청에 연결합니다.
func (p *Pool) Acquire(lctx legacy.Context, scope core.Scope, tracker *ws.Tracker) *Context {
	c := p.pool.Get().(*Context)
	c.Bind(lctx, scope, tracker)
	p.acquired.Add(1)
	return c
}

// Release는 Context를 비운 뒤 풀에 돌려놓습니다.
func (p *Pool) Release(c *Context) {
	c.Reset()
	p.returned.Add(1)
	p.pool.Put(c)
}

// InUse는 아직 반환되지 않은 Context 수입니다.
func (p *Pool) InUse() int64 {
	return p.acquired.Load() - p.returned.Load()
}

func (p *Pool) Returned() int64 {
	return p.returned.Load()
}
