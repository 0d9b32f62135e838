package core

import (
	"context"
	"io"
	"reflect"
)

// Features는 Context에 달린 타입 기반 확장 지점 레지스트리입니다.
type Features interface {
	Get(key reflect.Type) any
	Set(key reflect.Type, value any)
	// Revision은 Set이 호출될 때마다 증가합니다.
	Revision() int
}

// Feature는 T 타입으로 등록된 기능을 꺼냅니다.
func Feature[T any](features Features) (T, bool) {
	v, ok := features.Get(reflect.TypeFor[T]()).(T)
	return v, ok
}

// SetFeature는 현재 요청에 한해 T 타입 기능을 교체합니다.
func SetFeature[T any](features Features, value T) {
	features.Set(reflect.TypeFor[T](), value)
}

// ResponseBodyFeature는 응답 본문 전송을 담당합니다.
type ResponseBodyFeature interface {
	Stream() io.Writer
	DisableBuffering()
	Start(ctx context.Context) error
	// SendFile은 count가 nil이면 offset부터 파일 끝까지 전송합니다.
	SendFile(ctx context.Context, path string, offset int64, count *int64) error
	// Complete는 버퍼를 비우고 응답이 끝났음을 브리지에 알립니다.
	Complete(ctx context.Context) error
}

type CompressionMode int

const (
	CompressionDefault CompressionMode = iota
	CompressionDoNotCompress
	CompressionCompress
)

func (m CompressionMode) String() string {
	switch m {
	case CompressionDefault:
		return "default"
	case CompressionDoNotCompress:
		return "do-not-compress"
	case CompressionCompress:
		return "compress"
	default:
		return "unknown"
	}
}

// CompressionFeature는 레거시 호스트의 압축 모듈에 Content-Encoding 헤더로 의사를 전달합니다.
type CompressionFeature interface {
	Mode() CompressionMode
	SetMode(mode CompressionMode) error
}
