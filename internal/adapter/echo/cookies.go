package echo

import (
	"net/http"
	"slices"
	"sync"
)

// cookieJar는 이름 순서를 보존하는 legacy.CookieCollection 구현입니다.
type cookieJar struct {
	mu      sync.Mutex
	order   []string
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{cookies: make(map[string]*http.Cookie)}
}

func (j *cookieJar) Get(name string) *http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cookies[name]
}

func (j *cookieJar) Set(cookie *http.Cookie) {
	if cookie == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.cookies[cookie.Name]; !exists {
		j.order = append(j.order, cookie.Name)
	}
	j.cookies[cookie.Name] = cookie
}

func (j *cookieJar) Keys() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.order)
}

func (j *cookieJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.order)
}

func (j *cookieJar) all() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, 0, len(j.order))
	for _, name := range j.order {
		out = append(out, j.cookies[name])
	}
	return out
}
