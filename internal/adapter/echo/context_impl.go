package echo

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/NARUBROWN/bridge/pkg/legacy"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var ErrHijackUnsupported = errors.New("echo: 응답이 연결 가로채기를 지원하지 않습니다")

// legacyContext는 Echo 요청 하나를 레거시 Context로 노출합니다.
type legacyContext struct {
	echo    echo.Context
	ctx     context.Context
	cancel  context.CancelFunc
	req     *request
	resp    *response
	items   map[any]any
	handler legacy.Handler

	mu        sync.Mutex
	completed bool
	rawConn   net.Conn
	rawRW     *bufio.ReadWriter
}

var (
	_ legacy.Context     = (*legacyContext)(nil)
	_ legacy.RawUpgrader = (*legacyContext)(nil)
)

func newContext(c echo.Context, appPath string, handler legacy.Handler) *legacyContext {
	ctx, cancel := context.WithCancel(c.Request().Context())
	lctx := &legacyContext{
		echo:    c,
		ctx:     ctx,
		cancel:  cancel,
		items:   make(map[any]any),
		handler: handler,
	}
	lctx.req = newRequest(c.Request(), appPath, cancel)
	lctx.resp = newResponse(c.Response(), lctx)
	return lctx
}

func (c *legacyContext) Request() legacy.Request   { return c.req }
func (c *legacyContext) Response() legacy.Response { return c.resp }
func (c *legacyContext) Items() map[any]any        { return c.items }
func (c *legacyContext) Handler() legacy.Handler   { return c.handler }
func (c *legacyContext) Context() context.Context  { return c.ctx }

// Session은 이 호스트에 세션 상태가 없으므로 항상 nil입니다.
func (c *legacyContext) Session() legacy.Session {
	return nil
}

func (c *legacyContext) RewritePath(path string) {
	c.req.rewrite(path)
}

func (c *legacyContext) CompleteRequest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = true
}

func (c *legacyContext) IsRequestCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

func (c *legacyContext) IsWebSocketRequest() bool {
	return websocket.IsWebSocketUpgrade(c.echo.Request())
}

func (c *legacyContext) SupportsRawUpgrade() bool {
	_, ok := c.echo.Response().Writer.(http.Hijacker)
	return ok
}

// TakeRawConnection은 연결을 가로챕니다. 101 응답을 Flush할 때 이미 가로챘다면 그 연결을 돌려줍니다.
func (c *legacyContext) TakeRawConnection() (net.Conn, *bufio.ReadWriter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hijackLocked()
}

func (c *legacyContext) hijackLocked() (net.Conn, *bufio.ReadWriter, error) {
	if c.rawConn != nil {
		return c.rawConn, c.rawRW, nil
	}

	hijacker, ok := c.echo.Response().Writer.(http.Hijacker)
	if !ok {
		return nil, nil, ErrHijackUnsupported
	}
	conn, rw, err := hijacker.Hijack()
	if err != nil {
		return nil, nil, err
	}

	// 핸들러가 끝나도 업그레이드된 연결은 계속 쓰이므로 요청 context와 분리합니다.
	_ = conn.SetDeadline(time.Time{})
	c.rawConn = conn
	c.rawRW = rw
	return conn, rw, nil
}

func (c *legacyContext) RawTaken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawConn != nil
}
