package async

import (
	"errors"
	"testing"
	"time"

	"github.com/NARUBROWN/bridge/pkg/legacy"
)

func TestBegin_CallbackAfterCompletion(t *testing.T) {
	release := make(chan struct{})
	called := make(chan legacy.AsyncResult, 1)

	r := Begin(func() error {
		<-release
		return errors.New("handler failed")
	}, func(ar legacy.AsyncResult) { called <- ar }, "state")

	select {
	case <-r.Done():
		t.Fatal("함수가 끝나기 전에 완료되면 안 됩니다")
	default:
	}

	close(release)

	select {
	case ar := <-called:
		if ar != legacy.AsyncResult(r) {
			t.Fatal("callback에는 같은 결과가 전달되어야 합니다")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback이 호출되지 않았습니다")
	}

	if err := End(r); err == nil || err.Error() != "handler failed" {
		t.Fatalf("End는 함수의 에러를 반환해야 합니다: %v", err)
	}
	if r.CompletedSynchronously() {
		t.Fatal("비동기로 끝난 결과입니다")
	}
	if r.State() != "state" {
		t.Fatalf("state가 보존되어야 합니다: %v", r.State())
	}
}

func TestCompleted_IsSynchronous(t *testing.T) {
	calls := 0
	r := Completed(nil, func(legacy.AsyncResult) { calls++ }, nil)

	if !r.CompletedSynchronously() || calls != 1 {
		t.Fatal("Completed는 즉시 callback을 호출해야 합니다")
	}
	if err := End(r); err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
}

type foreignResult struct{}

func (foreignResult) Done() <-chan struct{}        { return nil }
func (foreignResult) CompletedSynchronously() bool { return true }
func (foreignResult) State() any                   { return nil }

func TestEnd_ForeignResult(t *testing.T) {
	if err := End(foreignResult{}); !errors.Is(err, ErrForeignResult) {
		t.Fatalf("다른 구현의 결과는 거부되어야 합니다: %v", err)
	}
}
