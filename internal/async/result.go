// Package async는 블로킹 함수를 레거시 호스트의 Begin/End 비동기 핸들러 계약으로 감쌉니다.
package async

import (
	"errors"

	"github.com/NARUBROWN/bridge/pkg/legacy"
)

var ErrForeignResult = errors.New("async: 이 패키지가 만든 AsyncResult가 아닙니다")

// Result는 legacy.AsyncResult 구현입니다. err는 done이 닫힌 뒤에만 읽습니다.
type Result struct {
	done  chan struct{}
	state any
	sync  bool
	err   error
}

// Begin은 fn을 별도 goroutine에서 실행하고 끝나면 callback을 호출합니다.
func Begin(fn func() error, callback legacy.AsyncCallback, state any) *Result {
	r := &Result{done: make(chan struct{}), state: state}

	go func() {
		r.err = fn()
		close(r.done)
		if callback != nil {
			callback(r)
		}
	}()

	return r
}

// Completed는 이미 끝난 결과를 만들고 callback을 호출한 쪽에서 바로 실행합니다.
func Completed(err error, callback legacy.AsyncCallback, state any) *Result {
	r := &Result{done: make(chan struct{}), state: state, sync: true, err: err}
	close(r.done)
	if callback != nil {
		callback(r)
	}
	return r
}

func (r *Result) Done() <-chan struct{} {
	return r.done
}

func (r *Result) CompletedSynchronously() bool {
	return r.sync
}

func (r *Result) State() any {
	return r.state
}

// End는 결과가 끝날 때까지 기다리고 fn의 에러를 반환합니다.
func End(result legacy.AsyncResult) error {
	r, ok := result.(*Result)
	if !ok || r == nil {
		return ErrForeignResult
	}
	<-r.done
	return r.err
}
