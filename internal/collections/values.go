package collections

import (
	"net/url"
	"slices"
)

// ValuesView는 쿼리 문자열과 폼 필드 같은 url.Values 위의 뷰입니다.
type ValuesView struct {
	source url.Values
}

func (v *ValuesView) Bind(source url.Values) {
	v.source = source
}

func (v *ValuesView) Reset() {
	v.source = nil
}

func (v *ValuesView) Get(key string) string {
	return v.source.Get(key)
}

func (v *ValuesView) Values(key string) []string {
	if v.source == nil {
		return nil
	}
	return v.source[key]
}

func (v *ValuesView) Has(key string) bool {
	return v.source.Has(key)
}

func (v *ValuesView) Set(key, value string) {
	if v.source == nil {
		return
	}
	v.source.Set(key, value)
}

func (v *ValuesView) Add(key, value string) {
	if v.source == nil {
		return
	}
	v.source.Add(key, value)
}

func (v *ValuesView) Del(key string) {
	if v.source == nil {
		return
	}
	v.source.Del(key)
}

func (v *ValuesView) Keys() []string {
	keys := make([]string, 0, len(v.source))
	for k := range v.source {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (v *ValuesView) Len() int {
	return len(v.source)
}

func (v *ValuesView) Encode() string {
	return v.source.Encode()
}
