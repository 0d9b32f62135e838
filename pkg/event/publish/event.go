package publish

import "time"

// DomainEvent는 요청 처리 중 발생한 도메인 이벤트의 최소 계약입니다.
type DomainEvent interface {
	Name() string
	OccurredAt() time.Time
}
