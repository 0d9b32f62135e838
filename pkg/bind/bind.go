// Package bind는 요청의 쿼리 문자열, 폼, JSON 바디를 구조체로 옮깁니다.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/httperr"
	"github.com/mitchellh/mapstructure"
)

// Query는 query 태그가 붙은 필드를 쿼리 문자열에서 채웁니다.
//
//	type UserQuery struct {
//		ID   int    `query:"id"`
//		Name string `query:"name"`
//	}
func Query(ctx core.Context, dst any) error {
	return decodeValues(ctx.Request().Query(), "query", dst)
}

// Form은 form 태그가 붙은 필드를 폼 필드에서 채웁니다.
func Form(ctx core.Context, dst any) error {
	if !ctx.Request().HasFormContentType() {
		return httperr.BadRequest("폼 요청이 아닙니다")
	}
	form := ctx.Request().Form()
	if form == nil {
		return httperr.BadRequest("폼을 읽을 수 없습니다")
	}
	return decodeValues(form, "form", dst)
}

// JSON은 바디 전체를 JSON으로 읽습니다. 빈 바디는 400입니다.
func JSON(ctx core.Context, dst any) error {
	body := ctx.Request().Body()
	if body == nil {
		return httperr.BadRequest("요청 바디가 비어 있습니다")
	}

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return httperr.BadRequest("요청 바디가 비어 있습니다")
		}
		return &httperr.HTTPError{
			Status:  http.StatusBadRequest,
			Message: "JSON 바디를 해석할 수 없습니다",
			Cause:   err,
		}
	}
	return nil
}

// Body는 Content-Type에 따라 Form 또는 JSON으로 바인딩합니다.
func Body(ctx core.Context, dst any) error {
	if ctx.Request().HasFormContentType() {
		return Form(ctx, dst)
	}
	return JSON(ctx, dst)
}

func decodeValues(values core.Values, tag string, dst any) error {
	input := make(map[string]any, values.Len())
	for _, key := range values.Keys() {
		all := values.Values(key)
		switch len(all) {
		case 0:
		case 1:
			input[key] = all[0]
		default:
			input[key] = all
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tag,
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return &httperr.HTTPError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("%s 바인딩 실패", tag),
			Cause:   err,
		}
	}
	return nil
}
