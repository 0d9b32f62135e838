package header

import (
	"strconv"

	"github.com/NARUBROWN/bridge/core"
)

// Values represent the HTTP header type
type Values struct {
	headers core.Header
}

// NewValues creates a new Values instance with headers
func NewValues(headers core.Header) Values {
	return Values{headers: headers}
}

// FromContext returns the request headers of ctx
func FromContext(ctx core.Context) Values {
	return NewValues(ctx.Request().Headers())
}

// Get returns Header value using key
func (h Values) Get(key string) string {
	if h.headers == nil {
		return ""
	}
	return h.headers.Get(key)
}

// Has checks the key is existing
func (h Values) Has(key string) bool {
	return h.headers != nil && h.headers.Has(key)
}

// Int parses the header as an integer, returning def when it is missing or invalid
func (h Values) Int(key string, def int64) int64 {
	v, err := strconv.ParseInt(h.Get(key), 10, 64)
	if err != nil {
		return def
	}
	return v
}
