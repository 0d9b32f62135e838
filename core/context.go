package core

import (
	"context"
	"net/netip"
)

type ContextCarrier interface {
	Context() context.Context
}

// RequestUnhandledKey는 파이프라인의 종단 핸들러까지 요청이 내려왔음을 알리는 Items 키입니다.
// 브리지는 이 표식이 있으면 모던 파이프라인이 요청을 처리하지 않은 것으로 판단합니다.
const RequestUnhandledKey = "__RequestUnhandled"

// Context는 하나의 요청 동안 미들웨어 파이프라인에 노출되는 통합 표면입니다.
// 구현체는 레거시 호스트의 요청/응답 상태를 직접 참조하며, 요청이 끝나면 풀로 반환됩니다.
// 따라서 Context와 그 하위 객체를 요청 수명 밖으로 보관해서는 안 됩니다.
type Context interface {
	ContextCarrier

	Request() Request
	Response() Response
	Connection() ConnectionInfo
	Features() Features

	// 요청 범위 저장소 (레거시 Items와 공유)
	Items() Items

	// 요청 범위 서비스 컨테이너
	Services() Container

	Session() Session
	WebSockets() WebSocketManager
	EventBus() EventBus

	TraceIdentifier() string
	SetTraceIdentifier(id string)

	// Abort는 레거시 호스트에 요청 중단을 전달합니다.
	Abort()
}

// Items는 레거시 요청의 Items를 잠금으로 감싼 뷰입니다.
// 응답 완료를 알린 뒤에도 핸들러가 계속 실행될 수 있으므로 Items는 이 뷰로만 다룹니다.
type Items interface {
	Get(key any) (any, bool)
	Set(key, value any)
	Delete(key any)
}

// ConnectionInfo는 요청을 보낸 원격지 정보를 제공합니다.
type ConnectionInfo interface {
	ID() string
	// RemoteAddr는 X-Forwarded-For 첫 항목, 없으면 원시 연결 주소를 반환합니다.
	// 파싱된 주소는 요청이 끝날 때까지 캐시됩니다.
	RemoteAddr() (netip.Addr, error)
	SetRemoteAddr(addr netip.Addr)
}
