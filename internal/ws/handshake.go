package ws

import (
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/NARUBROWN/bridge/core"
)

// acceptGUID는 RFC 6455가 정한 고정 문자열입니다.
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

const keyLength = 16

// AcceptKey는 Sec-WebSocket-Key로부터 Sec-WebSocket-Accept 값을 계산합니다.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ValidateKey는 키가 base64로 정확히 16바이트를 담고 있는지 확인합니다.
func ValidateKey(key string) error {
	if key == "" {
		return &core.InvalidHandshakeError{Reason: "Sec-WebSocket-Key 헤더가 없습니다"}
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return &core.InvalidHandshakeError{Reason: "Sec-WebSocket-Key가 base64 형식이 아닙니다"}
	}
	if len(decoded) != keyLength {
		return &core.InvalidHandshakeError{Reason: "Sec-WebSocket-Key는 16바이트여야 합니다"}
	}
	return nil
}

// parseProtocols는 쉼표로 구분된 Sec-WebSocket-Protocol 값을 펼칩니다.
func parseProtocols(values []string) []string {
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
