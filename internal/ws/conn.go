package ws

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/NARUBROWN/bridge/core"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Conn은 호스트에서 넘겨받은 원시 소켓 위의 서버 측 WebSocket 스트림입니다.
// 레거시 호스트의 버퍼링/압축 계층을 거치지 않고 직접 프레임을 읽고 씁니다.
type Conn struct {
	id          string
	subprotocol string
	conn        net.Conn
	rw          *bufio.ReadWriter
	tracker     *Tracker

	readMu    sync.Mutex
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newConn(id, subprotocol string, conn net.Conn, rw *bufio.ReadWriter, tracker *Tracker) *Conn {
	if rw == nil {
		rw = bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	}
	return &Conn{
		id:          id,
		subprotocol: subprotocol,
		conn:        conn,
		rw:          rw,
		tracker:     tracker,
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Subprotocol() string {
	return c.subprotocol
}

// ReadMessage는 다음 데이터 메시지를 읽습니다. ping/close 제어 프레임은 내부에서 응답합니다.
// 상대가 close 프레임을 보내면 *core.CloseError를 반환합니다.
func (c *Conn) ReadMessage(ctx context.Context) (core.MessageType, []byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	data, op, err := wsutil.ReadClientData(controlWriter{c})
	if err != nil {
		var closed wsutil.ClosedError
		if errors.As(err, &closed) {
			return 0, nil, &core.CloseError{Code: int(closed.Code), Reason: closed.Reason}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, err
	}
	return core.MessageType(op), data, nil
}

func (c *Conn) WriteMessage(ctx context.Context, messageType core.MessageType, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}

	if err := wsutil.WriteServerMessage(c.rw.Writer, ws.OpCode(messageType), data); err != nil {
		return err
	}
	return c.rw.Flush()
}

// Close는 close 프레임을 보낸 뒤 소켓을 닫습니다. 여러 번 호출해도 한 번만 동작합니다.
func (c *Conn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		frame := ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusCode(code), reason))
		if err := ws.WriteFrame(c.rw.Writer, frame); err == nil {
			_ = c.rw.Flush()
		}
		c.writeMu.Unlock()

		c.closeErr = c.conn.Close()
		if c.tracker != nil {
			c.tracker.Untrack(c.id)
		}
	})
	return c.closeErr
}

// controlWriter는 제어 프레임 응답을 데이터 쓰기와 같은 잠금 아래에서 내보냅니다.
type controlWriter struct {
	c *Conn
}

func (w controlWriter) Read(p []byte) (int, error) {
	return w.c.rw.Read(p)
}

func (w controlWriter) Write(p []byte) (int, error) {
	w.c.writeMu.Lock()
	defer w.c.writeMu.Unlock()

	n, err := w.c.rw.Writer.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.c.rw.Flush()
}
