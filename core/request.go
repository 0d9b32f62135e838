package core

import (
	"io"
)

// Request는 레거시 요청 객체 위에 놓인 요청 뷰입니다.
type Request interface {
	Method() string
	SetMethod(method string)
	Scheme() string
	SetScheme(scheme string)
	IsHTTPS() bool
	Host() string
	SetHost(host string)

	// PathBase는 애플리케이션 가상 경로입니다. ("/"이면 빈 문자열)
	PathBase() string
	Path() string
	// SetPath는 레거시 요청의 라우팅 경로를 재작성합니다.
	SetPath(path string)

	QueryString() string
	SetQueryString(raw string)
	Query() Values

	// Protocol은 SERVER_PROTOCOL 서버 변수를 그대로 노출합니다.
	Protocol() string
	SetProtocol(protocol string)

	Headers() Header
	Cookies() RequestCookies

	// ContentLength는 길이를 알 수 없으면 -1을 반환합니다.
	ContentLength() int64
	SetContentLength(length int64)
	ContentType() string
	SetContentType(contentType string)

	Body() io.Reader
	SetBody(body io.Reader)

	HasFormContentType() bool
	Form() Form
}
