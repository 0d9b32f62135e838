package core

import (
	"errors"
	"fmt"
)

// ErrContextUnavailable은 종단 핸들러가 브리지 Context가 아닌 값을 받았을 때 반환됩니다.
var ErrContextUnavailable = errors.New("bridge: 브리지 Context를 사용할 수 없습니다")

// InitializationError는 정의의 컨테이너 또는 파이프라인 구성 실패입니다.
// 해당 정의에 대해 치명적이며 이후의 모든 조회에서 같은 에러가 반환됩니다.
type InitializationError struct {
	Definition string
	Cause      error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("bridge: 정의 '%s' 초기화 실패: %v", e.Definition, e.Cause)
}

func (e *InitializationError) Unwrap() error { return e.Cause }

// BackgroundStartupError는 호스티드 서비스 시작 실패입니다. 로그로만 관찰됩니다.
type BackgroundStartupError struct {
	Definition string
	Cause      error
}

func (e *BackgroundStartupError) Error() string {
	return fmt.Sprintf("bridge: 정의 '%s' 백그라운드 서비스 시작 실패: %v", e.Definition, e.Cause)
}

func (e *BackgroundStartupError) Unwrap() error { return e.Cause }

// AddressResolutionError는 사용할 원격 주소(X-Forwarded-For 첫 항목, 없으면 REMOTE_ADDR)를 파싱할 수 없을 때 반환됩니다.
type AddressResolutionError struct {
	ForwardedFor string
	RemoteAddr   string
	Cause        error
}

func (e *AddressResolutionError) Error() string {
	return fmt.Sprintf("bridge: 원격 주소를 확인할 수 없습니다 (forwarded=%q, remote=%q)", e.ForwardedFor, e.RemoteAddr)
}

func (e *AddressResolutionError) Unwrap() error { return e.Cause }

// InvalidHandshakeError는 업그레이드 요청이 핸드셰이크 조건을 만족하지 못할 때 반환됩니다.
type InvalidHandshakeError struct {
	Reason string
}

func (e *InvalidHandshakeError) Error() string {
	return "bridge: 잘못된 WebSocket 핸드셰이크: " + e.Reason
}

// UnsupportedHostError는 레거시 호스트가 원시 연결 접근을 제공하지 않을 때 반환됩니다.
type UnsupportedHostError struct {
	Host string
}

func (e *UnsupportedHostError) Error() string {
	if e.Host == "" {
		return "bridge: 호스트가 원시 연결 업그레이드를 지원하지 않습니다"
	}
	return fmt.Sprintf("bridge: 호스트(%s)가 원시 연결 업그레이드를 지원하지 않습니다", e.Host)
}
