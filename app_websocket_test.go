package bridge_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestAppIntegration_WebSocketEcho(t *testing.T) {
	handler := newTestHandlerFromApp(t, setupApp())

	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/handler/counter/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket 연결 실패: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != 101 {
		t.Fatalf("상태 코드가 잘못되었습니다: %d", resp.StatusCode)
	}

	for _, payload := range []string{`{"message":"hello"}`, `{"message":"again"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			t.Fatalf("메시지 전송 실패: %v", err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		msgType, got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("응답 수신 실패: %v", err)
		}
		if msgType != websocket.TextMessage {
			t.Fatalf("응답 messageType이 잘못되었습니다: %d", msgType)
		}
		if string(got) != payload {
			t.Fatalf("에코 응답이 잘못되었습니다: %s", got)
		}
	}

	if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		t.Fatalf("close 프레임 전송 실패: %v", err)
	}
}

func TestAppIntegration_WebSocketOnModulePath(t *testing.T) {
	handler := newTestHandlerFromApp(t, setupApp())

	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/module/counter/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket 연결 실패: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatalf("메시지 전송 실패: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	msgType, got, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("응답 수신 실패: %v", err)
	}
	if msgType != websocket.BinaryMessage || len(got) != 3 {
		t.Fatalf("바이너리 에코가 잘못되었습니다: %d %v", msgType, got)
	}
}
