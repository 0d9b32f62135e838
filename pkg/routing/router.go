// Package routing은 :param 세그먼트를 지원하는 단순 라우팅 미들웨어입니다.
package routing

import (
	"errors"
	"net/http"
	"strings"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/httperr"
)

// Items에 주입되는 라우팅 결과 키
const (
	ParamsKey   = "bridge.params"
	PathKeysKey = "bridge.pathKeys"
)

type route struct {
	method  string
	path    string
	handler core.Handler
}

type Router struct {
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

// Register는 등록 순서대로 매칭되는 라우트를 추가합니다.
func (r *Router) Register(method string, path string, handler core.Handler) {
	r.routes = append(r.routes, route{
		method:  strings.ToUpper(method),
		path:    path,
		handler: handler,
	})
}

// Route는 요청에 맞는 핸들러를 찾고 path 파라미터를 Items에 주입합니다.
// 경로는 맞지만 메서드가 다르면 405, 어느 경로에도 맞지 않으면 404 에러를 반환합니다.
func (r *Router) Route(ctx core.Context) (core.Handler, error) {
	method := ctx.Request().Method()
	path := ctx.Request().Path()

	pathMatched := false
	for _, rt := range r.routes {
		ok, params, keys := matchPath(rt.path, path)
		if !ok {
			continue
		}
		if rt.method != method {
			pathMatched = true
			continue
		}

		if items := ctx.Items(); items != nil {
			items.Set(ParamsKey, params)
			items.Set(PathKeysKey, keys)
		}
		return rt.handler, nil
	}

	if pathMatched {
		return nil, httperr.MethodNotAllowed("허용되지 않은 메서드입니다")
	}
	return nil, httperr.NotFound("핸들러를 찾을 수 없습니다")
}

// Middleware는 매칭된 라우트를 실행하고, 매칭되지 않은 요청은 다음 단계로 넘깁니다.
// 405는 다음 단계로 넘기지 않고 그대로 반환합니다.
func (r *Router) Middleware() core.Middleware {
	return func(next core.Handler) core.Handler {
		return func(ctx core.Context) error {
			handler, err := r.Route(ctx)
			if err != nil {
				var httpErr *httperr.HTTPError
				if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
					return next(ctx)
				}
				return err
			}
			return handler(ctx)
		}
	}
}

// Patterns는 등록된 라우트를 "METHOD path" 형태로 반환합니다.
func (r *Router) Patterns() []string {
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt.method+" "+rt.path)
	}
	return out
}

// Param은 현재 요청에 매칭된 path 파라미터를 반환합니다.
func Param(ctx core.Context, name string) string {
	params, _ := item(ctx, ParamsKey).(map[string]string)
	return params[name]
}

func PathKeys(ctx core.Context) []string {
	keys, _ := item(ctx, PathKeysKey).([]string)
	return keys
}

func item(ctx core.Context, key any) any {
	items := ctx.Items()
	if items == nil {
		return nil
	}
	value, _ := items.Get(key)
	return value
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchPath(pattern string, path string) (bool, map[string]string, []string) {
	patternParts := splitPath(pattern)
	pathParts := splitPath(path)

	if len(patternParts) != len(pathParts) {
		return false, nil, nil
	}

	params := map[string]string{}
	keys := []string{}
	for i, part := range patternParts {
		if strings.HasPrefix(part, ":") {
			key := part[1:]
			params[key] = pathParts[i]
			keys = append(keys, key)
			continue
		}
		if part != pathParts[i] {
			return false, nil, nil
		}
	}
	return true, params, keys
}
