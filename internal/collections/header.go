// Package collections는 레거시 컬렉션 위에 놓이는 지연 뷰를 제공합니다.
//
// 모든 뷰는 풀에 담긴 Context와 함께 재사용되므로 Bind로 원본을 연결하고
// Reset으로 원본 참조를 끊습니다. Reset 이후의 읽기는 항상 빈 값을 반환합니다.
package collections

import (
	"net/http"
	"net/textproto"
	"slices"
)

// HeaderView는 레거시 http.Header를 직접 읽고 씁니다.
type HeaderView struct {
	source http.Header
}

func (v *HeaderView) Bind(source http.Header) {
	v.source = source
}

func (v *HeaderView) Reset() {
	v.source = nil
}

func (v *HeaderView) Get(key string) string {
	if v.source == nil {
		return ""
	}
	return v.source.Get(key)
}

func (v *HeaderView) Values(key string) []string {
	if v.source == nil {
		return nil
	}
	return v.source.Values(key)
}

func (v *HeaderView) Has(key string) bool {
	if v.source == nil {
		return false
	}
	_, ok := v.source[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}

func (v *HeaderView) Set(key, value string) {
	if v.source == nil {
		return
	}
	v.source.Set(key, value)
}

func (v *HeaderView) Add(key, value string) {
	if v.source == nil {
		return
	}
	v.source.Add(key, value)
}

func (v *HeaderView) Del(key string) {
	if v.source == nil {
		return
	}
	v.source.Del(key)
}

func (v *HeaderView) Keys() []string {
	keys := make([]string, 0, len(v.source))
	for k := range v.source {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (v *HeaderView) Len() int {
	return len(v.source)
}

func (v *HeaderView) Clone() http.Header {
	if v.source == nil {
		return http.Header{}
	}
	return v.source.Clone()
}
