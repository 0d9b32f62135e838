package echo

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/NARUBROWN/bridge/pkg/legacy"
	"github.com/labstack/echo/v4"
)

type handlerFunc func(ctx legacy.Context) error

func (f handlerFunc) ProcessRequest(ctx legacy.Context) error { return f(ctx) }
func (f handlerFunc) IsReusable() bool                        { return true }

type moduleFunc func(app legacy.Application) error

func (f moduleFunc) Init(app legacy.Application) error { return f(app) }

func newServer(t *testing.T, configure func(a *Adapter)) *httptest.Server {
	t.Helper()

	a := NewAdapter(Options{})
	configure(a)

	e := echo.New()
	a.Mount(e)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("요청 실패: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestAdapter_MappedHandlerWritesBufferedResponse(t *testing.T) {
	srv := newServer(t, func(a *Adapter) {
		a.MapHandler("/hello", handlerFunc(func(ctx legacy.Context) error {
			ctx.Response().Headers().Set("X-Stage", "handler")
			ctx.Response().Cookies().Set(&http.Cookie{Name: "session", Value: "abc"})
			_, err := io.WriteString(ctx.Response().OutputStream(), "hello "+ctx.Request().QueryString().Get("name"))
			return err
		}))
	})

	resp, body := get(t, srv.URL+"/hello?name=bridge")

	if resp.StatusCode != http.StatusOK || body != "hello bridge" {
		t.Fatalf("응답이 잘못되었습니다: %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Stage") != "handler" {
		t.Fatal("응답 헤더가 전송되어야 합니다")
	}
	if !strings.Contains(resp.Header.Get("Set-Cookie"), "session=abc") {
		t.Fatalf("쿠키가 전송되어야 합니다: %q", resp.Header.Get("Set-Cookie"))
	}
}

func TestAdapter_UnmappedPathIsNotFound(t *testing.T) {
	srv := newServer(t, func(a *Adapter) {})

	resp, _ := get(t, srv.URL+"/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("매핑되지 않은 경로는 404여야 합니다: %d", resp.StatusCode)
	}
}

func TestAdapter_ModuleCompletesRequestBeforeHandler(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, step)
	}
	srv := newServer(t, func(a *Adapter) {
		_ = a.AddModule(moduleFunc(func(app legacy.Application) error {
			app.AddOnPreRequestHandlerExecute(func(ctx legacy.Context) error {
				record("pre")
				_, _ = io.WriteString(ctx.Response().OutputStream(), "from module")
				ctx.CompleteRequest()
				return nil
			})
			app.AddOnEndRequest(func(ctx legacy.Context) error {
				record("end")
				return nil
			})
			return nil
		}))
		a.MapHandler("/", handlerFunc(func(ctx legacy.Context) error {
			record("handler")
			return nil
		}))
	})

	_, body := get(t, srv.URL+"/anything")

	if body != "from module" {
		t.Fatalf("모듈 응답이 전송되어야 합니다: %q", body)
	}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "pre,end" {
		t.Fatalf("완료된 요청은 핸들러를 건너뛰어야 합니다: %v", order)
	}
}

func TestAdapter_HandlerErrorBecomesServerError(t *testing.T) {
	srv := newServer(t, func(a *Adapter) {
		a.MapHandler("/", handlerFunc(func(ctx legacy.Context) error {
			_, _ = io.WriteString(ctx.Response().OutputStream(), "partial")
			return io.ErrUnexpectedEOF
		}))
	})

	resp, body := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusInternalServerError || body != "" {
		t.Fatalf("버퍼된 응답은 500으로 바뀌어야 합니다: %d %q", resp.StatusCode, body)
	}
}

func TestAdapter_TransmitFileRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte("Hello world"), 0o644); err != nil {
		t.Fatalf("파일 준비 실패: %v", err)
	}

	srv := newServer(t, func(a *Adapter) {
		a.MapHandler("/whole", handlerFunc(func(ctx legacy.Context) error {
			return ctx.Response().TransmitFile(path)
		}))
		a.MapHandler("/range", handlerFunc(func(ctx legacy.Context) error {
			return ctx.Response().TransmitFileRange(path, 6, 5)
		}))
		a.MapHandler("/tail", handlerFunc(func(ctx legacy.Context) error {
			return ctx.Response().TransmitFileRange(path, 6, -1)
		}))
	})

	tests := []struct {
		path string
		want string
	}{
		{path: "/whole", want: "Hello world"},
		{path: "/range", want: "world"},
		{path: "/tail", want: "world"},
	}
	for _, tt := range tests {
		_, body := get(t, srv.URL+tt.path)
		if body != tt.want {
			t.Fatalf("%s 전송 결과가 잘못되었습니다: %q", tt.path, body)
		}
	}
}

func TestAdapter_Redirect(t *testing.T) {
	srv := newServer(t, func(a *Adapter) {
		a.MapHandler("/old", handlerFunc(func(ctx legacy.Context) error {
			ctx.Response().Redirect("/new", true)
			return nil
		}))
	})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/old")
	if err != nil {
		t.Fatalf("요청 실패: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently || resp.Header.Get("Location") != "/new" {
		t.Fatalf("영구 리다이렉트가 전송되어야 합니다: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestAdapter_SwitchingProtocolsHandsOverRawConnection(t *testing.T) {
	srv := newServer(t, func(a *Adapter) {
		a.MapHandler("/raw", handlerFunc(func(ctx legacy.Context) error {
			upgrader, ok := ctx.(legacy.RawUpgrader)
			if !ok || !upgrader.SupportsRawUpgrade() {
				t.Error("Echo 호스트는 원시 연결을 지원해야 합니다")
				return nil
			}
			if !ctx.IsWebSocketRequest() {
				t.Error("업그레이드 요청으로 인식되어야 합니다")
			}

			resp := ctx.Response()
			resp.SetStatusCode(http.StatusSwitchingProtocols)
			resp.Headers().Set("Upgrade", "websocket")
			resp.Headers().Set("Connection", "Upgrade")
			if err := resp.Flush(); err != nil {
				return err
			}

			conn, rw, err := upgrader.TakeRawConnection()
			if err != nil {
				return err
			}
			defer conn.Close()
			_, _ = rw.WriteString("raw-bytes")
			return rw.Flush()
		}))
	})

	conn, err := net.Dial("tcp", strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("연결 실패: %v", err)
	}
	defer conn.Close()

	req := "GET /raw HTTP/1.1\r\nHost: test\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n" +
		"Sec-WebSocket-Version: 13\r\nSec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"
	if _, err := io.WriteString(conn, req); err != nil {
		t.Fatalf("요청 전송 실패: %v", err)
	}

	reader := bufio.NewReader(conn)
	resp, err := http.ReadResponse(reader, nil)
	if err != nil {
		t.Fatalf("응답 읽기 실패: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols || resp.Header.Get("Upgrade") != "websocket" {
		t.Fatalf("101 응답이어야 합니다: %d %v", resp.StatusCode, resp.Header)
	}

	payload, _ := io.ReadAll(reader)
	if string(payload) != "raw-bytes" {
		t.Fatalf("원시 연결로 쓴 데이터가 도착해야 합니다: %q", payload)
	}
}

type stopRecorder struct {
	immediate []bool
}

func (s *stopRecorder) Stop(immediate bool) {
	s.immediate = append(s.immediate, immediate)
}

func TestAdapter_ShutdownNotifiesEnvironment(t *testing.T) {
	a := NewAdapter(Options{})
	obj := &stopRecorder{}
	a.Environment().RegisterObject(obj)

	a.Shutdown(false)

	if len(obj.immediate) != 1 || obj.immediate[0] {
		t.Fatalf("등록된 객체에 종료가 통지되어야 합니다: %v", obj.immediate)
	}

	a.Environment().UnregisterObject(obj)
	if a.Environment().Len() != 0 {
		t.Fatal("등록 해제 후 객체가 남아 있으면 안 됩니다")
	}
}
