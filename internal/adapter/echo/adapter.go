// Package echo는 Echo 서버 위에서 동작하는 레거시 호스트 구현입니다.
//
// 요청마다 pre-execution → 매핑된 핸들러 → end-of-request 순서로 이벤트를 동기 실행하고,
// 응답은 버퍼에 모았다가 요청이 끝날 때 한 번에 내보냅니다.
package echo

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/NARUBROWN/bridge/pkg/legacy"
	"github.com/labstack/echo/v4"
)

type Options struct {
	// ApplicationPath는 애플리케이션이 올라간 가상 경로입니다. 기본값은 "/"입니다.
	ApplicationPath string
	Logger          *slog.Logger
}

type handlerMapping struct {
	prefix  string
	handler legacy.Handler
}

// Adapter는 Echo 요청을 레거시 요청 주기로 실행합니다.
type Adapter struct {
	appPath string
	logger  *slog.Logger

	mu       sync.RWMutex
	app      application
	handlers []handlerMapping
}

func NewAdapter(opts Options) *Adapter {
	appPath := opts.ApplicationPath
	if appPath == "" {
		appPath = "/"
	}
	if !strings.HasPrefix(appPath, "/") {
		appPath = "/" + appPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Adapter{
		appPath: appPath,
		logger:  logger,
		app:     application{env: NewEnvironment()},
	}
}

// AddModule은 모듈을 초기화해 요청 이벤트를 구독시킵니다.
func (a *Adapter) AddModule(module legacy.Module) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return module.Init(&a.app)
}

// MapHandler는 prefix로 시작하는 경로를 handler에 연결합니다. 가장 긴 prefix가 우선합니다.
func (a *Adapter) MapHandler(prefix string, handler legacy.Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.handlers = append(a.handlers, handlerMapping{prefix: prefix, handler: handler})
	sort.SliceStable(a.handlers, func(i, j int) bool {
		return len(a.handlers[i].prefix) > len(a.handlers[j].prefix)
	})
}

func (a *Adapter) Environment() *Environment {
	return a.app.env
}

// Shutdown은 환경에 등록된 객체에 종료를 통지합니다.
func (a *Adapter) Shutdown(immediate bool) {
	a.app.env.StopAll(immediate)
}

// Mount는 Echo 인스턴스에 레거시 요청 주기를 연결합니다.
func (a *Adapter) Mount(e *echo.Echo) {
	e.Any("/", a.serve)
	e.Any("/*", a.serve)
}

func (a *Adapter) handlerFor(path string) legacy.Handler {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, m := range a.handlers {
		if strings.HasPrefix(path, m.prefix) {
			return m.handler
		}
	}
	return nil
}

func (a *Adapter) subscribers() (pre, end []legacy.EventHandler) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.app.preRequest, a.app.endRequest
}

func (a *Adapter) serve(c echo.Context) error {
	lctx := newContext(c, a.appPath, a.handlerFor(c.Request().URL.Path))
	defer lctx.cancel()

	pre, end := a.subscribers()

	var errs []error
	for _, handler := range pre {
		if err := handler(lctx); err != nil {
			errs = append(errs, err)
			break
		}
		if lctx.IsRequestCompleted() {
			break
		}
	}

	if len(errs) == 0 && !lctx.IsRequestCompleted() {
		if err := a.execute(lctx); err != nil {
			errs = append(errs, err)
		}
	}

	// end-of-request는 앞 단계의 결과와 관계없이 항상 실행합니다.
	for _, handler := range end {
		if err := handler(lctx); err != nil {
			errs = append(errs, err)
		}
	}

	if lctx.RawTaken() {
		return nil
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Error("[Host] 요청 처리 실패",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
		lctx.resp.fail(http.StatusInternalServerError)
	}

	if err := lctx.resp.Flush(); err != nil {
		a.logger.Warn("[Host] 응답 전송 실패", "path", c.Request().URL.Path, "error", err)
	}
	return nil
}

func (a *Adapter) execute(lctx *legacyContext) error {
	handler := lctx.Handler()
	if handler == nil {
		lctx.resp.SetStatusCode(http.StatusNotFound)
		return nil
	}

	if async, ok := handler.(legacy.AsyncHandler); ok {
		return async.EndProcessRequest(async.BeginProcessRequest(lctx, nil, nil))
	}
	return handler.ProcessRequest(lctx)
}

// application은 모듈이 보는 legacy.Application입니다. 구독은 Adapter.mu로 보호됩니다.
type application struct {
	preRequest []legacy.EventHandler
	endRequest []legacy.EventHandler
	env        *Environment
}

func (a *application) AddOnPreRequestHandlerExecute(handler legacy.EventHandler) {
	a.preRequest = append(a.preRequest, handler)
}

func (a *application) AddOnEndRequest(handler legacy.EventHandler) {
	a.endRequest = append(a.endRequest, handler)
}

func (a *application) Environment() legacy.Environment {
	return a.env
}
