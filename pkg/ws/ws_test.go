package ws

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/NARUBROWN/bridge/core"
	adapter "github.com/NARUBROWN/bridge/internal/adapter/legacy"
	"github.com/NARUBROWN/bridge/internal/container"
	"github.com/NARUBROWN/bridge/internal/event/publish"
	"github.com/NARUBROWN/bridge/internal/legacytest"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

func TestMessage_StoresAndExposesValues(t *testing.T) {
	msg := NewMessage(
		context.Background(),
		"conn-1",
		"/ws/echo",
		core.TextMessage,
		[]byte(`{"message":"hello"}`),
		publish.NewEventBus(),
		nil,
	)

	if msg.ConnID() != "conn-1" {
		t.Fatalf("connID가 잘못되었습니다: %s", msg.ConnID())
	}
	if msg.MessageType() != core.TextMessage {
		t.Fatalf("message type이 잘못되었습니다: %d", msg.MessageType())
	}
	if msg.Path() != "/ws/echo" {
		t.Fatalf("path가 잘못되었습니다: %s", msg.Path())
	}

	var dto struct {
		Message string `json:"message"`
	}
	if err := msg.Decode(&dto); err != nil || dto.Message != "hello" {
		t.Fatalf("DTO 역직렬화가 잘못되었습니다: %v %q", err, dto.Message)
	}

	msg.Set("k", "v")
	v, ok := msg.Get("k")
	if !ok || v != "v" {
		t.Fatalf("store 동작이 잘못되었습니다: %v, %v", v, ok)
	}

	empty := NewMessage(context.Background(), "conn-1", "/", core.TextMessage, nil, nil, nil)
	if err := empty.Decode(&dto); err == nil {
		t.Fatal("빈 payload는 역직렬화 에러여야 합니다")
	}
}

type funcSender func(core.MessageType, []byte) error

func (f funcSender) Send(messageType core.MessageType, data []byte) error {
	return f(messageType, data)
}

func TestMessage_ContextProvidesSender(t *testing.T) {
	var gotType core.MessageType
	var gotPayload []byte

	msg := NewMessage(
		context.Background(),
		"conn-1",
		"/ws/echo",
		core.TextMessage,
		nil,
		publish.NewEventBus(),
		funcSender(func(messageType core.MessageType, data []byte) error {
			gotType = messageType
			gotPayload = append([]byte(nil), data...)
			return nil
		}),
	)

	if err := Send(msg.Context(), core.TextMessage, []byte("pong")); err != nil {
		t.Fatalf("ws send 실패: %v", err)
	}
	if gotType != core.TextMessage || string(gotPayload) != "pong" {
		t.Fatalf("전송 내용이 잘못되었습니다: %d %s", gotType, string(gotPayload))
	}

	if err := Send(context.Background(), core.TextMessage, []byte("x")); err != nil {
		t.Fatalf("Sender가 없으면 무시되어야 합니다: %v", err)
	}
}

func TestRegistry_RegisterAndCopy(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterProtocol("/ws/echo", "chat", func(msg *Message) error { return nil })

	got := registry.Registrations()
	if len(got) != 1 || got[0].Path != "/ws/echo" || got[0].Subprotocol != "chat" {
		t.Fatalf("등록 내용이 잘못되었습니다: %+v", got)
	}

	got[0].Path = "/mutated"
	again := registry.Registrations()
	if again[0].Path != "/ws/echo" {
		t.Fatalf("Registrations는 복사본을 반환해야 합니다: %s", again[0].Path)
	}
}

func TestRegistry_RegisterPanicsOnInvalidInput(t *testing.T) {
	registry := NewRegistry()

	assertPanics(t, func() {
		registry.Register("", func(msg *Message) error { return nil })
	})

	assertPanics(t, func() {
		registry.Register("/ws/echo", nil)
	})
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()

	defer func() {
		if recover() == nil {
			t.Fatal("panic이 발생해야 합니다")
		}
	}()

	fn()
}

func TestNegotiate(t *testing.T) {
	if got := negotiate("chat", []string{"superchat", "chat"}); got != "chat" {
		t.Fatalf("요청된 subprotocol을 선택해야 합니다: %q", got)
	}
	if got := negotiate("chat", []string{"other"}); got != "" {
		t.Fatalf("요청되지 않은 subprotocol은 선택하면 안 됩니다: %q", got)
	}
	if got := negotiate("", []string{"chat"}); got != "" {
		t.Fatalf("등록되지 않은 subprotocol은 응답하면 안 됩니다: %q", got)
	}
}

func upgradeContext(t *testing.T, path string) (core.Context, net.Conn) {
	t.Helper()
	return upgradeContextWithScope(t, path, nil)
}

func upgradeContextWithScope(t *testing.T, path string, scope core.Scope) (core.Context, net.Conn) {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})

	req := legacytest.NewRequest(http.MethodGet, path)
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	lctx := legacytest.NewContext(req)
	lctx.Upgrade = true
	lctx.RawSupported = true
	lctx.RawConn = server

	pool := adapter.NewPool()
	c := pool.Acquire(lctx, scope, nil)
	t.Cleanup(func() { pool.Release(c) })
	return c, client
}

// readFrames는 서버가 보낸 프레임을 응답 없이 모두 읽습니다.
func readFrames(client net.Conn) <-chan ws.Frame {
	frames := make(chan ws.Frame, 8)
	go func() {
		defer close(frames)
		for {
			frame, err := ws.ReadFrame(client)
			if err != nil {
				return
			}
			frames <- frame
		}
	}()
	return frames
}

func nextFrame(t *testing.T, frames <-chan ws.Frame) ws.Frame {
	t.Helper()

	select {
	case frame, ok := <-frames:
		if !ok {
			t.Fatal("연결이 예상보다 먼저 닫혔습니다")
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("프레임을 받지 못했습니다")
	}
	return ws.Frame{}
}

func TestRegistry_MiddlewareServesEchoUntilPeerClose(t *testing.T) {
	registry := NewRegistry()
	registry.Register("/ws/echo", func(msg *Message) error {
		return msg.Reply(msg.MessageType(), append([]byte("echo:"), msg.Payload()...))
	})

	nextCalled := false
	handler := registry.Middleware()(func(ctx core.Context) error {
		nextCalled = true
		return nil
	})

	ctx, client := upgradeContext(t, "/ws/echo")
	frames := readFrames(client)

	done := make(chan error, 1)
	go func() { done <- handler(ctx) }()

	if err := wsutil.WriteClientMessage(client, ws.OpText, []byte("hello")); err != nil {
		t.Fatalf("메시지 쓰기 실패: %v", err)
	}
	frame := nextFrame(t, frames)
	if frame.Header.OpCode != ws.OpText || string(frame.Payload) != "echo:hello" {
		t.Fatalf("에코 결과가 잘못되었습니다: %v %s", frame.Header.OpCode, frame.Payload)
	}

	if err := wsutil.WriteClientMessage(client, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, "")); err != nil {
		t.Fatalf("close 프레임 쓰기 실패: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("상대가 닫은 연결은 에러 없이 끝나야 합니다: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("메시지 루프가 끝나지 않았습니다")
	}
	if nextCalled {
		t.Fatal("등록된 경로의 업그레이드 요청은 다음 단계로 넘어가면 안 됩니다")
	}
}

func TestServe_HandlerErrorClosesWith1011(t *testing.T) {
	cause := errors.New("boom")
	ctx, client := upgradeContext(t, "/ws/fail")
	frames := readFrames(client)

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "", func(msg *Message) error { return cause })
	}()

	if err := wsutil.WriteClientMessage(client, ws.OpText, []byte("hello")); err != nil {
		t.Fatalf("메시지 쓰기 실패: %v", err)
	}

	frame := nextFrame(t, frames)
	if frame.Header.OpCode != ws.OpClose {
		t.Fatalf("close 프레임이 아닙니다: %v", frame.Header.OpCode)
	}
	code, _ := ws.ParseCloseFrameData(frame.Payload)
	if int(code) != core.CloseInternalServErr {
		t.Fatalf("close 코드가 잘못되었습니다: %d", code)
	}

	select {
	case err := <-done:
		if !errors.Is(err, cause) {
			t.Fatalf("핸들러 에러가 반환되어야 합니다: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve가 끝나지 않았습니다")
	}
}

func TestServe_LogsThroughDefinitionLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	services := container.New()
	if err := services.AddInstance(logger); err != nil {
		t.Fatalf("로거 등록 실패: %v", err)
	}
	ctx, client := upgradeContextWithScope(t, "/ws/fail", services.CreateScope())
	frames := readFrames(client)

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "", func(msg *Message) error { return errors.New("boom") })
	}()

	if err := wsutil.WriteClientMessage(client, ws.OpText, []byte("hello")); err != nil {
		t.Fatalf("메시지 쓰기 실패: %v", err)
	}
	_ = nextFrame(t, frames)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve가 끝나지 않았습니다")
	}
	if !strings.Contains(buf.String(), "[WS] 핸들러 실패") {
		t.Fatalf("정의 컨테이너의 로거로 기록되어야 합니다: %q", buf.String())
	}
}

func TestRegistry_MiddlewarePassesPlainRequests(t *testing.T) {
	registry := NewRegistry()
	registry.Register("/ws/echo", func(msg *Message) error { return nil })

	nextCalled := false
	handler := registry.Middleware()(func(ctx core.Context) error {
		nextCalled = true
		return nil
	})

	pool := adapter.NewPool()
	c := pool.Acquire(legacytest.NewContext(legacytest.NewRequest(http.MethodGet, "/ws/echo")), nil, nil)
	defer pool.Release(c)

	if err := handler(c); err != nil || !nextCalled {
		t.Fatalf("업그레이드가 아닌 요청은 다음 단계로 넘어가야 합니다: %v", err)
	}
}
