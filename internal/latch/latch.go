// Package latch는 한 번만 열리는 동기화 신호를 제공합니다.
package latch

import "sync"

// Latch는 Release가 처음 호출될 때 열리고 다시 닫히지 않습니다.
// 제로 값은 사용할 수 없으며 New로 만들어야 합니다.
type Latch struct {
	once sync.Once
	done chan struct{}
}

func New() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Release는 래치를 엽니다. 여러 번 호출해도 안전합니다.
func (l *Latch) Release() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Done은 래치가 열리면 닫히는 채널입니다.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

func (l *Latch) Released() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
