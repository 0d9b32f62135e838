package latch

import (
	"sync"
	"testing"
	"time"
)

func TestLatch_ReleaseIsIdempotent(t *testing.T) {
	l := New()
	if l.Released() {
		t.Fatal("새 래치는 닫혀 있어야 합니다")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Release()
		}()
	}
	wg.Wait()

	if !l.Released() {
		t.Fatal("Release 이후 래치가 열려 있어야 합니다")
	}
}

func TestLatch_DoneUnblocksWaiters(t *testing.T) {
	l := New()

	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Release()
	}()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("Done 채널이 닫히지 않았습니다")
	}
}
