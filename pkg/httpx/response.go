// Package httpx는 브리지 Context 위의 응답 작성 도우미입니다.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/NARUBROWN/bridge/core"
)

type Cookie struct {
	Name    string
	Value   string
	Options core.CookieOptions
}

type ResponseOptions struct {
	// 0이면 200
	Status  int
	Headers map[string]string
	Cookies []Cookie
}

// Response는 Body를 JSON으로 씁니다. T가 string이면 text/plain으로 씁니다.
type Response[T any] struct {
	Body    T
	Options ResponseOptions
}

type Binary struct {
	ContentType string
	Data        []byte
	Options     ResponseOptions
}

func Write[T any](ctx core.Context, resp Response[T]) error {
	if s, ok := any(resp.Body).(string); ok {
		return writeBody(ctx, resp.Options, "text/plain; charset=utf-8", []byte(s))
	}

	payload, err := json.Marshal(resp.Body)
	if err != nil {
		return err
	}
	return writeBody(ctx, resp.Options, "application/json; charset=utf-8", payload)
}

func WriteBinary(ctx core.Context, binary Binary) error {
	contentType := binary.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return writeBody(ctx, binary.Options, contentType, binary.Data)
}

func JSON(ctx core.Context, status int, value any) error {
	return Write(ctx, Response[any]{Body: value, Options: ResponseOptions{Status: status}})
}

func String(ctx core.Context, status int, value string) error {
	return Write(ctx, Response[string]{Body: value, Options: ResponseOptions{Status: status}})
}

func Bytes(ctx core.Context, status int, contentType string, data []byte) error {
	return WriteBinary(ctx, Binary{ContentType: contentType, Data: data, Options: ResponseOptions{Status: status}})
}

func writeBody(ctx core.Context, opts ResponseOptions, contentType string, body []byte) error {
	resp := ctx.Response()

	// 사용자 정의 헤더 설정
	for k, v := range opts.Headers {
		resp.Headers().Set(k, v)
	}

	for _, c := range opts.Cookies {
		resp.Cookies().Append(c.Name, c.Value, c.Options)
	}

	// 사용자가 Content-Type을 지정했다면 유지
	if resp.ContentType() == "" {
		resp.SetContentType(contentType)
	}

	status := opts.Status
	if status == 0 {
		status = http.StatusOK
	}
	resp.SetStatusCode(status)

	_, err := resp.Body().Write(body)
	return err
}
