package legacy

import (
	"io"
	"strconv"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/collections"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

type response struct {
	ctx *Context

	body io.Writer

	headers      collections.HeaderView
	headersBound bool
	cookies      collections.ResponseCookiesView
	cookiesBound bool
}

func (r *response) reset() {
	r.body = nil
	r.headers.Reset()
	r.headersBound = false
	r.cookies.Reset()
	r.cookiesBound = false
}

func (r *response) legacy() legacy.Response {
	if r.ctx.lctx == nil {
		return nil
	}
	return r.ctx.lctx.Response()
}

func (r *response) StatusCode() int {
	if resp := r.legacy(); resp != nil {
		return resp.StatusCode()
	}
	return 0
}

func (r *response) SetStatusCode(status int) {
	if resp := r.legacy(); resp != nil {
		resp.SetStatusCode(status)
	}
}

func (r *response) Headers() core.Header {
	if !r.headersBound {
		r.headersBound = true
		if resp := r.legacy(); resp != nil {
			r.headers.Bind(resp.Headers())
		}
	}
	return &r.headers
}

func (r *response) Cookies() core.ResponseCookies {
	if !r.cookiesBound {
		r.cookiesBound = true
		if resp := r.legacy(); resp != nil {
			r.cookies.Bind(resp.Cookies())
		}
	}
	return &r.cookies
}

// Body는 교체되지 않았다면 현재 ResponseBodyFeature의 스트림입니다.
func (r *response) Body() io.Writer {
	if r.body != nil {
		return r.body
	}
	if f, ok := core.Feature[core.ResponseBodyFeature](&r.ctx.features); ok {
		return f.Stream()
	}
	return io.Discard
}

func (r *response) SetBody(body io.Writer) {
	r.body = body
}

func (r *response) ContentLength() int64 {
	raw := r.Headers().Get("Content-Length")
	if raw == "" {
		return -1
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func (r *response) SetContentLength(length int64) {
	if length < 0 {
		r.Headers().Del("Content-Length")
		return
	}
	r.Headers().Set("Content-Length", strconv.FormatInt(length, 10))
}

func (r *response) ContentType() string {
	return r.Headers().Get("Content-Type")
}

func (r *response) SetContentType(contentType string) {
	if contentType == "" {
		r.Headers().Del("Content-Type")
		return
	}
	r.Headers().Set("Content-Type", contentType)
}

func (r *response) HasStarted() bool {
	if resp := r.legacy(); resp != nil {
		return resp.HeadersWritten()
	}
	return false
}

func (r *response) Redirect(location string, permanent bool) {
	if resp := r.legacy(); resp != nil {
		resp.Redirect(location, permanent)
	}
}
