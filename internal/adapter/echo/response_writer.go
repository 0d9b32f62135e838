package echo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/NARUBROWN/bridge/pkg/legacy"
	"github.com/labstack/echo/v4"
)

// response는 본문을 버퍼에 모았다가 Flush에서 Echo 응답으로 내보내는 legacy.Response입니다.
// 상태 코드가 101이면 Flush는 연결을 가로채 상태 줄과 헤더를 직접 씁니다.
type response struct {
	writer *echo.Response
	owner  *legacyContext

	mu             sync.Mutex
	status         int
	header         http.Header
	cookies        *cookieJar
	body           bytes.Buffer
	buffer         bool
	headersWritten bool
}

var _ legacy.Response = (*response)(nil)

func newResponse(writer *echo.Response, owner *legacyContext) *response {
	return &response{
		writer:  writer,
		owner:   owner,
		status:  http.StatusOK,
		header:  http.Header{},
		cookies: newCookieJar(),
		buffer:  true,
	}
}

func (r *response) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// SetStatusCode는 헤더가 전송된 뒤에는 효과가 없습니다.
func (r *response) SetStatusCode(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.headersWritten {
		r.status = status
	}
}

func (r *response) Headers() http.Header {
	return r.header
}

func (r *response) Cookies() legacy.CookieCollection {
	return r.cookies
}

func (r *response) OutputStream() io.Writer {
	return outputStream{r}
}

func (r *response) BufferOutput() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffer
}

func (r *response) SetBufferOutput(buffer bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = buffer
}

func (r *response) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body.Reset()
}

func (r *response) HeadersWritten() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headersWritten
}

func (r *response) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *response) flushLocked() error {
	if r.status == http.StatusSwitchingProtocols && !r.headersWritten {
		return r.switchProtocolsLocked()
	}
	if r.owner.RawTaken() {
		return nil
	}

	r.writeHeadersLocked()
	if r.body.Len() > 0 {
		if _, err := r.writer.Write(r.body.Bytes()); err != nil {
			return err
		}
		r.body.Reset()
	}

	err := http.NewResponseController(r.writer.Writer).Flush()
	if errors.Is(err, http.ErrNotSupported) {
		return nil
	}
	return err
}

func (r *response) writeHeadersLocked() {
	if r.headersWritten {
		return
	}
	r.headersWritten = true

	dst := r.writer.Header()
	for key, values := range r.header {
		dst[key] = values
	}
	for _, cookie := range r.cookies.all() {
		if v := cookie.String(); v != "" {
			dst.Add("Set-Cookie", v)
		}
	}
	r.writer.WriteHeader(r.status)
}

// switchProtocolsLocked는 net/http를 거치지 않고 101 응답을 원시 연결에 씁니다.
func (r *response) switchProtocolsLocked() error {
	r.owner.mu.Lock()
	_, rw, err := r.owner.hijackLocked()
	r.owner.mu.Unlock()
	if err != nil {
		return err
	}
	r.headersWritten = true

	if _, err := fmt.Fprintf(rw, "HTTP/1.1 %d %s\r\n", r.status, http.StatusText(r.status)); err != nil {
		return err
	}
	if err := r.header.Write(rw); err != nil {
		return err
	}
	if _, err := io.WriteString(rw, "\r\n"); err != nil {
		return err
	}
	return rw.Flush()
}

func (r *response) write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buffer {
		return r.body.Write(p)
	}
	if r.owner.RawTaken() {
		return 0, errors.New("echo: 원시 연결로 전환된 응답에는 쓸 수 없습니다")
	}
	r.writeHeadersLocked()
	n, err := r.writer.Write(p)
	if err != nil {
		return n, err
	}
	_ = http.NewResponseController(r.writer.Writer).Flush()
	return n, nil
}

func (r *response) Redirect(location string, permanent bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.body.Reset()
	r.status = http.StatusFound
	if permanent {
		r.status = http.StatusMovedPermanently
	}
	r.header.Set("Location", location)
}

func (r *response) TransmitFile(path string) error {
	return r.transmit(path, 0, -1)
}

func (r *response) TransmitFileRange(path string, offset, length int64) error {
	if offset < 0 {
		return fmt.Errorf("echo: 잘못된 offset: %d", offset)
	}
	return r.transmit(path, offset, length)
}

// transmit은 버퍼를 먼저 보낸 뒤 파일을 응답에 바로 복사합니다. length가 음수면 파일 끝까지입니다.
func (r *response) transmit(path string, offset, length int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var src io.Reader = file
	if offset > 0 {
		if _, err := file.Seek(offset, io.SeekStart); err != nil {
			return err
		}
	}
	if length >= 0 {
		src = io.LimitReader(file, length)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flushLocked(); err != nil {
		return err
	}
	_, err = io.Copy(r.writer, src)
	return err
}

// fail은 아직 헤더가 나가지 않았을 때만 에러 상태로 바꿉니다.
func (r *response) fail(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.headersWritten {
		return
	}
	r.body.Reset()
	r.status = status
}

type outputStream struct {
	r *response
}

func (s outputStream) Write(p []byte) (int, error) {
	return s.r.write(p)
}
