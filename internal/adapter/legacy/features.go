package legacy

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/NARUBROWN/bridge/core"
)

var (
	responseBodyType = reflect.TypeFor[core.ResponseBodyFeature]()
	compressionType  = reflect.TypeFor[core.CompressionFeature]()
)

// featureCollection은 기본 기능 두 개를 항상 가지고 있고,
// 요청 동안의 교체는 overrides에만 기록합니다.
type featureCollection struct {
	body        responseBodyFeature
	compression compressionFeature

	overrides map[reflect.Type]any
	revision  int
}

func (f *featureCollection) init(c *Context) {
	f.body.ctx = c
	f.compression.ctx = c
}

func (f *featureCollection) reset() {
	f.overrides = nil
	f.revision = 0
}

func (f *featureCollection) Get(key reflect.Type) any {
	if v, ok := f.overrides[key]; ok {
		return v
	}
	switch key {
	case responseBodyType:
		return &f.body
	case compressionType:
		return &f.compression
	}
	return nil
}

func (f *featureCollection) Set(key reflect.Type, value any) {
	if f.overrides == nil {
		f.overrides = make(map[reflect.Type]any)
	}
	f.overrides[key] = value
	f.revision++
}

func (f *featureCollection) Revision() int {
	return f.revision
}

type responseBodyFeature struct {
	ctx *Context
}

func (b *responseBodyFeature) Stream() io.Writer {
	if b.ctx.lctx == nil {
		return io.Discard
	}
	return b.ctx.lctx.Response().OutputStream()
}

func (b *responseBodyFeature) DisableBuffering() {
	if b.ctx.lctx != nil {
		b.ctx.lctx.Response().SetBufferOutput(false)
	}
}

// Start는 헤더를 즉시 전송합니다.
func (b *responseBodyFeature) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.ctx.lctx == nil {
		return core.ErrContextUnavailable
	}
	return b.ctx.lctx.Response().Flush()
}

// SendFile은 범위가 없으면 파일 전체, offset과 count가 있으면 그 구간,
// offset만 있으면 offset부터 파일 끝까지 전송합니다.
func (b *responseBodyFeature) SendFile(ctx context.Context, path string, offset int64, count *int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.ctx.lctx == nil {
		return core.ErrContextUnavailable
	}
	resp := b.ctx.lctx.Response()

	if offset < 0 {
		return fmt.Errorf("bridge: offset은 음수일 수 없습니다: %d", offset)
	}
	if count != nil {
		if *count < 0 {
			return fmt.Errorf("bridge: count는 음수일 수 없습니다: %d", *count)
		}
		return resp.TransmitFileRange(path, offset, *count)
	}
	if offset == 0 {
		return resp.TransmitFile(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if offset > info.Size() {
		return fmt.Errorf("bridge: offset(%d)이 파일 크기(%d)를 넘습니다", offset, info.Size())
	}
	return resp.TransmitFileRange(path, offset, info.Size()-offset)
}

// Complete는 버퍼를 비우고 핸들러가 응답을 끝냈음을 알립니다.
func (b *responseBodyFeature) Complete(ctx context.Context) error {
	if b.ctx.lctx == nil {
		return core.ErrContextUnavailable
	}
	err := b.ctx.lctx.Response().Flush()
	b.ctx.CompleteResponse()
	return err
}

type compressionFeature struct {
	ctx *Context
}

func (c *compressionFeature) Mode() core.CompressionMode {
	if c.ctx.lctx == nil {
		return core.CompressionDefault
	}
	encoding := c.ctx.lctx.Response().Headers().Get("Content-Encoding")
	switch {
	case encoding == "":
		return core.CompressionDefault
	case strings.EqualFold(encoding, "identity"):
		return core.CompressionDoNotCompress
	default:
		return core.CompressionCompress
	}
}

// SetMode는 레거시 압축 모듈이 읽는 Content-Encoding 헤더로 의사를 전달합니다.
// Compress는 압축 모듈의 결정에 맡기므로 헤더를 건드리지 않습니다.
func (c *compressionFeature) SetMode(mode core.CompressionMode) error {
	if c.ctx.lctx == nil {
		return core.ErrContextUnavailable
	}
	headers := c.ctx.lctx.Response().Headers()
	switch mode {
	case core.CompressionDefault:
		headers.Del("Content-Encoding")
	case core.CompressionDoNotCompress:
		headers.Set("Content-Encoding", "identity")
	case core.CompressionCompress:
	default:
		return fmt.Errorf("bridge: 알 수 없는 압축 모드: %d", mode)
	}
	return nil
}
