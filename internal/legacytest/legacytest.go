// Package legacytest는 테스트용 메모리 레거시 호스트 객체를 제공합니다.
package legacytest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"

	"github.com/NARUBROWN/bridge/pkg/legacy"
)

// CookieJar는 삽입 순서를 유지하는 쿠키 컬렉션입니다.
type CookieJar struct {
	mu      sync.Mutex
	order   []string
	cookies map[string]*http.Cookie
}

func NewCookieJar(cookies ...*http.Cookie) *CookieJar {
	j := &CookieJar{cookies: make(map[string]*http.Cookie)}
	for _, c := range cookies {
		j.Set(c)
	}
	return j
}

func (j *CookieJar) Get(name string) *http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cookies[name]
}

func (j *CookieJar) Set(c *http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.cookies[c.Name]; !ok {
		j.order = append(j.order, c.Name)
	}
	j.cookies[c.Name] = c
}

func (j *CookieJar) Keys() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.order)
}

func (j *CookieJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

type Request struct {
	Method      string
	Target      *url.URL
	AppPath     string
	Header      http.Header
	CookieJar   *CookieJar
	Query       url.Values
	FormValues  url.Values
	PostedFiles []legacy.PostedFile
	Vars        map[string]string
	Input       io.Reader
	Length      int64
	Secure      bool

	mu      sync.Mutex
	aborted bool
	cancel  context.CancelFunc
}

// NewRequest는 target을 파싱해 요청을 만듭니다. target은 "/path?query" 형태입니다.
func NewRequest(method, target string) *Request {
	u, err := url.Parse(target)
	if err != nil {
		panic(err)
	}
	return &Request{
		Method:    method,
		Target:    u,
		AppPath:   "/",
		Header:    http.Header{},
		CookieJar: NewCookieJar(),
		Query:     u.Query(),
		Vars:      map[string]string{},
		Input:     bytes.NewReader(nil),
		Length:    -1,
	}
}

func (r *Request) HTTPMethod() string                   { return r.Method }
func (r *Request) URL() *url.URL                        { return r.Target }
func (r *Request) Path() string                         { return r.Target.Path }
func (r *Request) ApplicationPath() string              { return r.AppPath }
func (r *Request) Headers() http.Header                 { return r.Header }
func (r *Request) Cookies() legacy.CookieCollection     { return r.CookieJar }
func (r *Request) QueryString() url.Values              { return r.Query }
func (r *Request) Form() url.Values                     { return r.FormValues }
func (r *Request) Files() []legacy.PostedFile           { return r.PostedFiles }
func (r *Request) ServerVariable(name string) string    { return r.Vars[name] }
func (r *Request) SetServerVariable(name, value string) { r.Vars[name] = value }
func (r *Request) InputStream() io.Reader               { return r.Input }
func (r *Request) ContentType() string                  { return r.Header.Get("Content-Type") }
func (r *Request) SetContentType(ct string)             { r.Header.Set("Content-Type", ct) }
func (r *Request) ContentLength() int64                 { return r.Length }
func (r *Request) IsSecureConnection() bool             { return r.Secure }

func (r *Request) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = true
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Request) Aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted
}

// Transmission은 TransmitFile 호출 기록입니다. Length가 -1이면 파일 끝까지입니다.
type Transmission struct {
	Path   string
	Offset int64
	Length int64
}

type Response struct {
	mu          sync.Mutex
	status      int
	Header      http.Header
	CookieJar   *CookieJar
	buffered    bytes.Buffer
	sent        bytes.Buffer
	buffer      bool
	written     bool
	flushes     int
	redirect    string
	transmitted []Transmission
}

func NewResponse() *Response {
	return &Response{
		status:    http.StatusOK,
		Header:    http.Header{},
		CookieJar: NewCookieJar(),
		buffer:    true,
	}
}

func (r *Response) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Response) SetStatusCode(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *Response) Headers() http.Header             { return r.Header }
func (r *Response) Cookies() legacy.CookieCollection { return r.CookieJar }
func (r *Response) OutputStream() io.Writer          { return responseStream{r} }

func (r *Response) BufferOutput() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffer
}

func (r *Response) SetBufferOutput(buffer bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = buffer
}

func (r *Response) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffered.Reset()
}

func (r *Response) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written = true
	r.flushes++
	_, err := r.buffered.WriteTo(&r.sent)
	return err
}

func (r *Response) HeadersWritten() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

func (r *Response) Redirect(location string, permanent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirect = location
	if permanent {
		r.status = http.StatusMovedPermanently
	} else {
		r.status = http.StatusFound
	}
	r.Header.Set("Location", location)
}

func (r *Response) TransmitFile(path string) error {
	return r.transmit(path, 0, -1)
}

func (r *Response) TransmitFileRange(path string, offset, length int64) error {
	return r.transmit(path, offset, length)
}

func (r *Response) transmit(path string, offset, length int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	var src io.Reader = f
	if length >= 0 {
		src = io.LimitReader(f, length)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.transmitted = append(r.transmitted, Transmission{Path: path, Offset: offset, Length: length})
	_, err = io.Copy(&r.buffered, src)
	return err
}

// Body는 지금까지 쓴 본문 전체(전송분 + 버퍼)입니다.
func (r *Response) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent.String() + r.buffered.String()
}

func (r *Response) Flushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

func (r *Response) Transmissions() []Transmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.transmitted)
}

func (r *Response) RedirectLocation() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirect
}

type responseStream struct {
	r *Response
}

func (s responseStream) Write(p []byte) (int, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if !s.r.buffer {
		s.r.written = true
		return s.r.sent.Write(p)
	}
	return s.r.buffered.Write(p)
}

type Session struct {
	SessionID string
	mu        sync.Mutex
	order     []string
	values    map[string]any
}

func NewSession(id string) *Session {
	return &Session{SessionID: id, values: make(map[string]any)}
}

func (s *Session) ID() string { return s.SessionID }

func (s *Session) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

func (s *Session) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		s.order = append(s.order, key)
	}
	s.values[key] = value
}

func (s *Session) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
	s.order = nil
}

// ErrNoRawConnection은 원시 연결이 설정되지 않은 Context에서 TakeRawConnection이 반환합니다.
var ErrNoRawConnection = errors.New("legacytest: 원시 연결이 없습니다")

type Context struct {
	Req     *Request
	Resp    *Response
	ItemMap map[any]any
	Sess    legacy.Session
	Mapped  legacy.Handler
	Upgrade bool

	RawSupported bool
	RawConn      net.Conn

	ctx context.Context

	mu        sync.Mutex
	completed bool
	rewrites  []string
	rawTaken  bool
}

// NewContext는 요청 Abort 시 취소되는 Context를 만듭니다.
func NewContext(req *Request) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	req.cancel = cancel
	return &Context{
		Req:     req,
		Resp:    NewResponse(),
		ItemMap: make(map[any]any),
		ctx:     ctx,
	}
}

func (c *Context) Request() legacy.Request   { return c.Req }
func (c *Context) Response() legacy.Response { return c.Resp }
func (c *Context) Items() map[any]any        { return c.ItemMap }
func (c *Context) Handler() legacy.Handler   { return c.Mapped }
func (c *Context) IsWebSocketRequest() bool  { return c.Upgrade }
func (c *Context) Context() context.Context  { return c.ctx }

func (c *Context) Session() legacy.Session {
	if c.Sess == nil {
		return nil
	}
	return c.Sess
}

func (c *Context) RewritePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rewrites = append(c.rewrites, path)
	u := *c.Req.Target
	u.Path = path
	c.Req.Target = &u
}

func (c *Context) Rewrites() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.rewrites)
}

func (c *Context) CompleteRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = true
}

func (c *Context) IsRequestCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

func (c *Context) SupportsRawUpgrade() bool { return c.RawSupported }

func (c *Context) TakeRawConnection() (net.Conn, *bufio.ReadWriter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.RawConn == nil {
		return nil, nil, ErrNoRawConnection
	}
	c.rawTaken = true
	return c.RawConn, bufio.NewReadWriter(bufio.NewReader(c.RawConn), bufio.NewWriter(c.RawConn)), nil
}

func (c *Context) RawTaken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawTaken
}

// Application은 이벤트 구독을 기록하고 테스트에서 직접 발생시킵니다.
type Application struct {
	PreRequest []legacy.EventHandler
	EndRequest []legacy.EventHandler
	Env        *Environment
}

func NewApplication() *Application {
	return &Application{Env: NewEnvironment()}
}

func (a *Application) AddOnPreRequestHandlerExecute(h legacy.EventHandler) {
	a.PreRequest = append(a.PreRequest, h)
}

func (a *Application) AddOnEndRequest(h legacy.EventHandler) {
	a.EndRequest = append(a.EndRequest, h)
}

func (a *Application) Environment() legacy.Environment { return a.Env }

// FirePreRequest는 구독된 pre-execution 핸들러를 순서대로 실행합니다.
func (a *Application) FirePreRequest(ctx legacy.Context) error {
	for _, h := range a.PreRequest {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *Application) FireEndRequest(ctx legacy.Context) error {
	var errs []error
	for _, h := range a.EndRequest {
		if err := h(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Environment struct {
	mu      sync.Mutex
	objects []legacy.RegisteredObject
}

func NewEnvironment() *Environment {
	return &Environment{}
}

func (e *Environment) RegisterObject(obj legacy.RegisteredObject) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects = append(e.objects, obj)
}

func (e *Environment) UnregisterObject(obj legacy.RegisteredObject) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects = slices.DeleteFunc(e.objects, func(o legacy.RegisteredObject) bool { return o == obj })
}

func (e *Environment) Objects() []legacy.RegisteredObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.objects)
}
