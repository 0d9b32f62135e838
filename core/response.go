package core

import (
	"io"
)

// Response는 레거시 응답 객체 위에 놓인 응답 뷰입니다.
type Response interface {
	StatusCode() int
	SetStatusCode(status int)

	Headers() Header
	Cookies() ResponseCookies

	Body() io.Writer
	SetBody(body io.Writer)

	// ContentLength는 Content-Length 헤더가 없거나 잘못된 경우 -1을 반환합니다.
	ContentLength() int64
	// SetContentLength에 음수를 주면 헤더를 제거합니다.
	SetContentLength(length int64)
	ContentType() string
	SetContentType(contentType string)

	// HasStarted는 레거시 호스트가 이미 헤더를 전송했는지 알려줍니다.
	HasStarted() bool

	Redirect(location string, permanent bool)
}
