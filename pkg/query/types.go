package query

import (
	"strconv"
	"strings"

	"github.com/NARUBROWN/bridge/core"
)

type Values struct {
	values core.Values
}

func NewValues(values core.Values) Values {
	return Values{values: values}
}

func FromContext(ctx core.Context) Values {
	return NewValues(ctx.Request().Query())
}

func (q Values) Get(key string) string {
	if q.values == nil {
		return ""
	}
	return q.values.Get(key)
}

func (q Values) String(key string) string {
	return q.Get(key)
}

func (q Values) Int(key string, def int64) int64 {
	raw := q.Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func (q Values) GetBoolByKey(key string, def bool) bool {
	raw := strings.ToLower(q.Get(key))
	switch raw {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

func (q Values) Has(key string) bool {
	return q.values != nil && q.values.Has(key)
}
