package main

import (
	"fmt"

	"github.com/NARUBROWN/bridge/pkg/legacy"
)

// statusHandler는 브리지를 거치지 않는 호스트 고유 핸들러입니다.
type statusHandler struct{}

func (statusHandler) ProcessRequest(ctx legacy.Context) error {
	ctx.Response().Headers().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := fmt.Fprintf(ctx.Response().OutputStream(), "legacy ok: %s", ctx.Request().Path())
	return err
}

func (statusHandler) IsReusable() bool {
	return true
}
