// Package lifecycle은 파이프라인 정의마다 한 번만 만들어지는 코디네이터와 그 수명을 관리합니다.
package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/NARUBROWN/bridge/core"
)

// ErrShutDown은 이미 종료된 정의에 요청이 들어오면 반환됩니다.
// 종료된 정의는 Reset 전까지 다시 구성되지 않습니다.
var ErrShutDown = errors.New("정의의 코디네이터가 이미 종료되었습니다")

// Registry는 정의 포인터를 키로 코디네이터를 보관합니다.
// 키마다 별도의 잠금을 사용하므로 서로 다른 정의는 동시에 구성될 수 있습니다.
type Registry struct {
	opts Options

	mu      sync.Mutex
	entries map[*core.Definition]*entry
}

type entry struct {
	mu    sync.Mutex
	built bool
	coord *Coordinator
	err   error
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:    opts.withDefaults(),
		entries: make(map[*core.Definition]*entry),
	}
}

// GetOrCreate는 정의의 코디네이터를 반환하고, 없으면 만듭니다.
// 구성 실패는 기억되어 같은 정의에 대한 이후 호출에서도 같은 에러가 반환됩니다.
// 종료된 코디네이터는 자리에 남고 ErrShutDown을 반환합니다.
func (r *Registry) GetOrCreate(def *core.Definition) (*Coordinator, error) {
	if def == nil {
		return nil, &core.InitializationError{Definition: def.String(), Cause: errors.New("정의가 nil입니다")}
	}

	r.mu.Lock()
	e, ok := r.entries[def]
	if !ok {
		e = &entry{}
		r.entries[def] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.built {
		e.coord, e.err = build(def, r.opts)
		e.built = true
		r.opts.Metrics.CoordinatorBuilt(def.String(), e.err)
		if e.err != nil {
			r.opts.Logger.Error("[Lifecycle] 정의 초기화 실패", "definition", def.String(), "error", e.err)
		}
	}
	if e.coord != nil && e.coord.Closed() {
		return nil, &core.InitializationError{Definition: def.String(), Cause: ErrShutDown}
	}
	return e.coord, e.err
}

// Shutdown은 구성된 모든 코디네이터를 종료합니다.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		e.mu.Lock()
		coord := e.coord
		e.mu.Unlock()

		if coord == nil {
			continue
		}
		if err := coord.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reset은 모든 코디네이터를 종료하고 기억된 실패까지 비웁니다.
func (r *Registry) Reset() {
	_ = r.Shutdown(context.Background())

	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
