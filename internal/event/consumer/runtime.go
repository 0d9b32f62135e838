package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/event/publish"
)

// 읽기 실패 후 다시 시도하기 전 대기 시간
const readRetryDelay = 500 * time.Millisecond

// Runtime은 등록된 토픽마다 읽기 루프를 돌리는 호스티드 서비스입니다.
type Runtime struct {
	registry  *Registry
	factory   RunnerFactory
	publisher core.EventPublisher

	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRuntime의 publisher는 nil일 수 있습니다. 그 경우 핸들러가 모은 이벤트는 버려집니다.
func NewRuntime(registry *Registry, factory RunnerFactory, publisher core.EventPublisher) *Runtime {
	if registry == nil {
		panic("consumer: 레지스트리는 nil일 수 없습니다")
	}
	if factory == nil {
		panic("consumer: factory는 nil일 수 없습니다")
	}

	return &Runtime{
		registry:  registry,
		factory:   factory,
		publisher: publisher,
	}
}

// Start는 모든 Reader를 먼저 만든 뒤 읽기 루프를 시작합니다.
// 하나라도 만들지 못하면 이미 만든 Reader를 닫고 에러를 반환합니다.
func (r *Runtime) Start(ctx context.Context) error {
	registrations := r.registry.Registrations()
	readers := make([]Reader, 0, len(registrations))
	for _, reg := range registrations {
		reader, err := r.factory.Build(reg)
		if err != nil {
			for _, built := range readers {
				_ = built.Close()
			}
			return fmt.Errorf("[Event Consumer] 컨슈머 초기화 실패 (topic=%s): %w", reg.Topic, err)
		}
		readers = append(readers, reader)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, r.cancel = context.WithCancel(ctx)
	for i, reg := range registrations {
		slog.Info("[Event Consumer] 컨슈머를 시작합니다.", "topic", reg.Topic)
		r.wg.Add(1)
		go r.run(ctx, reg, readers[i])
	}
	return nil
}

func (r *Runtime) run(ctx context.Context, reg Registration, reader Reader) {
	defer r.wg.Done()
	defer reader.Close()

	for {
		msg, err := reader.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("[Event Consumer] 메시지 읽기 실패", "topic", reg.Topic, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		r.handle(ctx, reg, msg)
	}
}

func (r *Runtime) handle(ctx context.Context, reg Registration, msg Message) {
	eventBus := publish.NewEventBus()

	if err := reg.Handler(ctx, msg, eventBus); err != nil {
		slog.Warn("[Event Consumer] 핸들러 실행 실패", "topic", reg.Topic, "event", msg.EventName, "err", err)
		// 핸들러 실패 시 NACK
		if nackErr := msg.Nack(); nackErr != nil {
			slog.Warn("[Event Consumer] NACK 실패", "topic", reg.Topic, "err", nackErr)
		}
		return
	}

	for _, event := range eventBus.Drain() {
		if r.publisher == nil {
			break
		}
		if err := r.publisher.Publish(ctx, event); err != nil {
			slog.Warn("[Event Consumer] 후속 이벤트 발행 실패", "event", event.Name(), "err", err)
		}
	}

	// 핸들러 성공 시 ACK
	if ackErr := msg.Ack(); ackErr != nil {
		slog.Warn("[Event Consumer] ACK 실패", "topic", reg.Topic, "err", ackErr)
	}
}

// Stop은 모든 읽기 루프를 멈추고 ctx가 끝날 때까지 종료를 기다립니다.
func (r *Runtime) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		if r.cancel != nil {
			r.cancel() // 모든 goroutine 중지
		}
		r.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("[Event Consumer] 모든 컨슈머를 중지했습니다.")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
