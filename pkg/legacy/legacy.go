// Package legacy는 브리지가 소비하는 레거시 호스트의 계약을 정의합니다.
//
// 레거시 호스트는 프로세스, 소켓, 원시 요청/응답 버퍼를 소유하며
// 요청마다 고정된 이벤트 순서(pre-execution → handler → end-of-request)를
// 동기적으로 실행합니다. 브리지는 이 계약에만 의존하므로 호스트 구현을 교체할 수 있습니다.
package legacy

import (
	"bufio"
	"context"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
)

// 브리지가 읽는 서버 변수
const (
	ServerVarForwardedFor   = "HTTP_X_FORWARDED_FOR"
	ServerVarRemoteAddr     = "REMOTE_ADDR"
	ServerVarServerProtocol = "SERVER_PROTOCOL"
)

// Context는 처리 중인 레거시 요청 하나입니다.
type Context interface {
	Request() Request
	Response() Response
	Items() map[any]any
	// Session은 세션이 없으면 nil을 반환합니다.
	Session() Session

	RewritePath(path string)
	// CompleteRequest는 남은 핸들러 단계를 건너뛰고 end-of-request로 이동시킵니다.
	CompleteRequest()
	IsRequestCompleted() bool

	// Handler는 현재 URL에 매핑된 핸들러입니다. 없으면 nil입니다.
	Handler() Handler
	IsWebSocketRequest() bool

	// Context는 클라이언트 연결이 끊기거나 Abort되면 취소됩니다.
	Context() context.Context
}

type Request interface {
	HTTPMethod() string
	URL() *url.URL
	Path() string
	ApplicationPath() string
	Headers() http.Header
	Cookies() CookieCollection
	QueryString() url.Values
	Form() url.Values
	Files() []PostedFile
	ServerVariable(name string) string
	SetServerVariable(name, value string)
	InputStream() io.Reader
	ContentType() string
	SetContentType(contentType string)
	ContentLength() int64
	IsSecureConnection() bool
	Abort()
}

type Response interface {
	StatusCode() int
	SetStatusCode(status int)
	Headers() http.Header
	Cookies() CookieCollection
	OutputStream() io.Writer
	BufferOutput() bool
	SetBufferOutput(buffer bool)
	// Clear는 아직 전송되지 않은 버퍼 본문을 버립니다.
	Clear()
	Flush() error
	HeadersWritten() bool
	Redirect(location string, permanent bool)
	TransmitFile(path string) error
	TransmitFileRange(path string, offset, length int64) error
}

// CookieCollection은 레거시 쿠키 컬렉션의 얇은 열거 어댑터입니다.
type CookieCollection interface {
	Get(name string) *http.Cookie
	Set(cookie *http.Cookie)
	Keys() []string
	Len() int
}

// PostedFile은 multipart 요청으로 올라온 파일 하나입니다.
type PostedFile struct {
	FieldName string
	Header    *multipart.FileHeader
}

type Session interface {
	ID() string
	Keys() []string
	Get(key string) any
	Set(key string, value any)
	Remove(key string)
	Clear()
}

// EventHandler는 호스트가 동기적으로 기다리는 요청 이벤트 핸들러입니다.
type EventHandler func(ctx Context) error

type Application interface {
	AddOnPreRequestHandlerExecute(handler EventHandler)
	AddOnEndRequest(handler EventHandler)
	Environment() Environment
}

// Module은 애플리케이션 초기화 시 이벤트를 구독합니다.
type Module interface {
	Init(app Application) error
}

type Handler interface {
	ProcessRequest(ctx Context) error
	IsReusable() bool
}

type AsyncResult interface {
	Done() <-chan struct{}
	CompletedSynchronously() bool
	State() any
}

type AsyncCallback func(result AsyncResult)

// AsyncHandler는 Begin/End 쌍으로 요청을 처리하는 핸들러입니다.
type AsyncHandler interface {
	Handler
	BeginProcessRequest(ctx Context, callback AsyncCallback, state any) AsyncResult
	EndProcessRequest(result AsyncResult) error
}

// Environment는 호스트 종료 통지를 받을 객체를 관리합니다.
type Environment interface {
	RegisterObject(obj RegisteredObject)
	UnregisterObject(obj RegisteredObject)
}

type RegisteredObject interface {
	Stop(immediate bool)
}

// RawUpgrader는 원시 연결을 넘겨줄 수 있는 호스트가 Context에 구현하는 선택 기능입니다.
type RawUpgrader interface {
	SupportsRawUpgrade() bool
	// TakeRawConnection 이후 호스트는 일반 응답 경로로 더 이상 쓰지 않습니다.
	TakeRawConnection() (net.Conn, *bufio.ReadWriter, error)
}
