package collections

import (
	"net/http"
	"time"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

// RequestCookiesView는 레거시 요청 쿠키 컬렉션을 이름-값으로 노출합니다.
type RequestCookiesView struct {
	source legacy.CookieCollection
}

func (v *RequestCookiesView) Bind(source legacy.CookieCollection) {
	v.source = source
}

func (v *RequestCookiesView) Reset() {
	v.source = nil
}

func (v *RequestCookiesView) Get(name string) (string, bool) {
	if v.source == nil {
		return "", false
	}
	c := v.source.Get(name)
	if c == nil {
		return "", false
	}
	return c.Value, true
}

func (v *RequestCookiesView) Has(name string) bool {
	_, ok := v.Get(name)
	return ok
}

func (v *RequestCookiesView) Keys() []string {
	if v.source == nil {
		return nil
	}
	return v.source.Keys()
}

func (v *RequestCookiesView) Len() int {
	if v.source == nil {
		return 0
	}
	return v.source.Len()
}

// ResponseCookiesView는 응답 쿠키를 레거시 컬렉션에 추가합니다.
type ResponseCookiesView struct {
	source legacy.CookieCollection
	now    func() time.Time
}

func (v *ResponseCookiesView) Bind(source legacy.CookieCollection) {
	v.source = source
}

func (v *ResponseCookiesView) Reset() {
	v.source = nil
}

func (v *ResponseCookiesView) Append(name, value string, opts ...core.CookieOptions) {
	if v.source == nil {
		return
	}
	cookie := &http.Cookie{Name: name, Value: value, Path: "/"}
	applyOptions(cookie, opts)
	v.source.Set(cookie)
}

// Delete는 만료 시각을 하루 전으로 설정한 빈 쿠키를 내려보냅니다.
func (v *ResponseCookiesView) Delete(name string, opts ...core.CookieOptions) {
	if v.source == nil {
		return
	}
	now := time.Now
	if v.now != nil {
		now = v.now
	}
	cookie := &http.Cookie{Name: name, Path: "/"}
	applyOptions(cookie, opts)
	cookie.Value = ""
	cookie.Expires = now().AddDate(0, 0, -1)
	v.source.Set(cookie)
}

func applyOptions(cookie *http.Cookie, opts []core.CookieOptions) {
	if len(opts) == 0 {
		return
	}
	o := opts[0]
	cookie.Domain = o.Domain
	if o.Path != "" {
		cookie.Path = o.Path
	}
	cookie.Expires = o.Expires
	cookie.Secure = o.Secure
	cookie.HttpOnly = o.HttpOnly
	cookie.SameSite = o.SameSite
}
