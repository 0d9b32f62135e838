package echo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/NARUBROWN/bridge/pkg/legacy"
)

const maxMemory = 32 << 20

type request struct {
	raw     *http.Request
	appPath string
	abort   context.CancelFunc

	mu      sync.Mutex
	vars    map[string]string
	query   url.Values
	cookies *cookieJar
	parsed  bool
	form    url.Values
	files   []legacy.PostedFile
}

func newRequest(raw *http.Request, appPath string, abort context.CancelFunc) *request {
	return &request{
		raw:     raw,
		appPath: appPath,
		abort:   abort,
		vars: map[string]string{
			legacy.ServerVarRemoteAddr:     raw.RemoteAddr,
			legacy.ServerVarForwardedFor:   raw.Header.Get("X-Forwarded-For"),
			legacy.ServerVarServerProtocol: raw.Proto,
		},
	}
}

func (r *request) HTTPMethod() string      { return r.raw.Method }
func (r *request) URL() *url.URL           { return r.raw.URL }
func (r *request) Path() string            { return r.raw.URL.Path }
func (r *request) ApplicationPath() string { return r.appPath }
func (r *request) Headers() http.Header    { return r.raw.Header }
func (r *request) InputStream() io.Reader  { return r.raw.Body }
func (r *request) ContentLength() int64    { return r.raw.ContentLength }

func (r *request) rewrite(path string) {
	u := *r.raw.URL
	u.Path = path
	u.RawPath = ""
	r.raw.URL = &u
}

func (r *request) Cookies() legacy.CookieCollection {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cookies == nil {
		r.cookies = newCookieJar()
		for _, cookie := range r.raw.Cookies() {
			r.cookies.Set(cookie)
		}
	}
	return r.cookies
}

func (r *request) QueryString() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.query == nil {
		r.query = r.raw.URL.Query()
	}
	return r.query
}

func (r *request) Form() url.Values {
	r.parseForm()
	return r.form
}

func (r *request) Files() []legacy.PostedFile {
	r.parseForm()
	return r.files
}

// parseForm은 form 본문을 한 번만 읽습니다. 파싱 실패는 빈 form으로 취급합니다.
func (r *request) parseForm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parsed {
		return
	}
	r.parsed = true
	r.form = url.Values{}

	contentType := r.raw.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(contentType, "multipart/form-data") {
		err = r.raw.ParseMultipartForm(maxMemory)
	} else {
		err = r.raw.ParseForm()
	}
	if err != nil {
		slog.Debug("[Host] form 파싱 실패", "path", r.raw.URL.Path, "error", err)
		return
	}
	if r.raw.PostForm != nil {
		r.form = r.raw.PostForm
	}

	if r.raw.MultipartForm == nil {
		return
	}
	fields := make([]string, 0, len(r.raw.MultipartForm.File))
	for field := range r.raw.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		for _, header := range r.raw.MultipartForm.File[field] {
			r.files = append(r.files, legacy.PostedFile{FieldName: field, Header: header})
		}
	}
}

func (r *request) ServerVariable(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vars[name]
}

func (r *request) SetServerVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars[name] = value
}

func (r *request) ContentType() string {
	return r.raw.Header.Get("Content-Type")
}

func (r *request) SetContentType(contentType string) {
	r.raw.Header.Set("Content-Type", contentType)
}

func (r *request) IsSecureConnection() bool {
	return r.raw.TLS != nil
}

func (r *request) Abort() {
	r.abort()
}
