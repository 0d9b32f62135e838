package legacy

import (
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/internal/collections"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

// request는 레거시 요청을 읽고, 레거시에 setter가 없는 값은 요청 동안만 덮어씁니다.
type request struct {
	ctx *Context

	method      string
	scheme      string
	host        string
	queryString string
	hasQuery    bool
	length      int64
	hasLength   bool
	body        io.Reader

	headers      collections.HeaderView
	headersBound bool
	cookies      collections.RequestCookiesView
	cookiesBound bool
	query        collections.ValuesView
	queryBound   bool
	form         collections.FormView
	formBound    bool
}

func (r *request) reset() {
	r.method = ""
	r.scheme = ""
	r.host = ""
	r.queryString = ""
	r.hasQuery = false
	r.length = 0
	r.hasLength = false
	r.body = nil
	r.headers.Reset()
	r.headersBound = false
	r.cookies.Reset()
	r.cookiesBound = false
	r.query.Reset()
	r.queryBound = false
	r.form.Reset()
	r.formBound = false
}

func (r *request) legacy() legacy.Request {
	if r.ctx.lctx == nil {
		return nil
	}
	return r.ctx.lctx.Request()
}

func (r *request) Method() string {
	if r.method != "" {
		return r.method
	}
	if req := r.legacy(); req != nil {
		return req.HTTPMethod()
	}
	return ""
}

func (r *request) SetMethod(method string) {
	r.method = method
}

func (r *request) Scheme() string {
	if r.scheme != "" {
		return r.scheme
	}
	req := r.legacy()
	if req == nil {
		return ""
	}
	if req.IsSecureConnection() {
		return "https"
	}
	return "http"
}

func (r *request) SetScheme(scheme string) {
	r.scheme = scheme
}

func (r *request) IsHTTPS() bool {
	return strings.EqualFold(r.Scheme(), "https")
}

func (r *request) Host() string {
	if r.host != "" {
		return r.host
	}
	req := r.legacy()
	if req == nil {
		return ""
	}
	if u := req.URL(); u != nil && u.Host != "" {
		return u.Host
	}
	return req.Headers().Get("Host")
}

func (r *request) SetHost(host string) {
	r.host = host
}

// PathBase는 애플리케이션 가상 경로입니다. 요청 경로가 그 아래에 있지 않으면 비어 있습니다.
// 항상 PathBase()+Path()가 레거시 요청 경로와 같습니다.
func (r *request) PathBase() string {
	req := r.legacy()
	if req == nil {
		return ""
	}
	base := strings.TrimSuffix(req.ApplicationPath(), "/")
	if base == "" || !underBase(req.Path(), base) {
		return ""
	}
	return base
}

func (r *request) Path() string {
	req := r.legacy()
	if req == nil {
		return ""
	}
	path := req.Path()[len(r.PathBase()):]
	if path == "" {
		return "/"
	}
	return path
}

// underBase는 path가 base와 같거나 base 다음 세그먼트로 이어질 때만 참입니다.
func underBase(path, base string) bool {
	if !strings.HasPrefix(path, base) {
		return false
	}
	return len(path) == len(base) || path[len(base)] == '/'
}

// SetPath는 레거시 요청의 라우팅 경로를 재작성합니다.
func (r *request) SetPath(path string) {
	if r.ctx.lctx == nil {
		return
	}
	r.ctx.lctx.RewritePath(r.PathBase() + path)
}

func (r *request) QueryString() string {
	if r.hasQuery {
		return r.queryString
	}
	req := r.legacy()
	if req == nil || req.URL() == nil {
		return ""
	}
	return req.URL().RawQuery
}

func (r *request) SetQueryString(raw string) {
	r.queryString = strings.TrimPrefix(raw, "?")
	r.hasQuery = true

	values, err := url.ParseQuery(r.queryString)
	if err != nil {
		values = url.Values{}
	}
	r.query.Bind(values)
	r.queryBound = true
}

func (r *request) Query() core.Values {
	if !r.queryBound {
		r.queryBound = true
		if req := r.legacy(); req != nil {
			r.query.Bind(req.QueryString())
		}
	}
	return &r.query
}

func (r *request) Protocol() string {
	if req := r.legacy(); req != nil {
		return req.ServerVariable(legacy.ServerVarServerProtocol)
	}
	return ""
}

func (r *request) SetProtocol(protocol string) {
	if req := r.legacy(); req != nil {
		req.SetServerVariable(legacy.ServerVarServerProtocol, protocol)
	}
}

func (r *request) Headers() core.Header {
	if !r.headersBound {
		r.headersBound = true
		if req := r.legacy(); req != nil {
			r.headers.Bind(req.Headers())
		}
	}
	return &r.headers
}

func (r *request) Cookies() core.RequestCookies {
	if !r.cookiesBound {
		r.cookiesBound = true
		if req := r.legacy(); req != nil {
			r.cookies.Bind(req.Cookies())
		}
	}
	return &r.cookies
}

func (r *request) ContentLength() int64 {
	if r.hasLength {
		return r.length
	}
	if req := r.legacy(); req != nil {
		return req.ContentLength()
	}
	return -1
}

func (r *request) SetContentLength(length int64) {
	r.length = length
	r.hasLength = true
}

func (r *request) ContentType() string {
	if req := r.legacy(); req != nil {
		return req.ContentType()
	}
	return ""
}

func (r *request) SetContentType(contentType string) {
	if req := r.legacy(); req != nil {
		req.SetContentType(contentType)
	}
}

// Body는 교체되지 않았다면 레거시 입력 스트림입니다.
func (r *request) Body() io.Reader {
	if r.body != nil {
		return r.body
	}
	if req := r.legacy(); req != nil {
		return req.InputStream()
	}
	return nil
}

func (r *request) SetBody(body io.Reader) {
	r.body = body
}

func (r *request) HasFormContentType() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType())
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

func (r *request) Form() core.Form {
	if !r.formBound {
		r.formBound = true
		if req := r.legacy(); req != nil && r.HasFormContentType() {
			r.form.Bind(req.Form, req.Files)
		}
	}
	return &r.form
}
