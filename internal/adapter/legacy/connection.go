package legacy

import (
	"net/netip"
	"strings"

	"github.com/NARUBROWN/bridge/core"
	"github.com/NARUBROWN/bridge/pkg/legacy"
)

type connection struct {
	ctx *Context

	remote   netip.Addr
	resolved bool
}

func (c *connection) reset() {
	c.remote = netip.Addr{}
	c.resolved = false
}

// ID는 요청 추적 식별자와 같습니다.
func (c *connection) ID() string {
	return c.ctx.traceID
}

// RemoteAddr는 X-Forwarded-For의 첫 항목을 우선하고, 헤더가 없을 때만 REMOTE_ADDR을 사용합니다.
// 첫 항목을 파싱할 수 없으면 REMOTE_ADDR로 넘어가지 않고 AddressResolutionError를 반환합니다.
func (c *connection) RemoteAddr() (netip.Addr, error) {
	if c.resolved {
		return c.remote, nil
	}
	if c.ctx.lctx == nil {
		return netip.Addr{}, &core.AddressResolutionError{}
	}

	req := c.ctx.lctx.Request()
	forwarded := req.ServerVariable(legacy.ServerVarForwardedFor)
	remote := req.ServerVariable(legacy.ServerVarRemoteAddr)

	if strings.TrimSpace(forwarded) != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		addr, err := parseAddr(first)
		if err != nil {
			return netip.Addr{}, &core.AddressResolutionError{
				ForwardedFor: forwarded,
				RemoteAddr:   remote,
				Cause:        err,
			}
		}
		c.SetRemoteAddr(addr)
		return addr, nil
	}

	addr, err := parseAddr(remote)
	if err != nil {
		return netip.Addr{}, &core.AddressResolutionError{
			ForwardedFor: forwarded,
			RemoteAddr:   remote,
			Cause:        err,
		}
	}
	c.SetRemoteAddr(addr)
	return addr, nil
}

func (c *connection) SetRemoteAddr(addr netip.Addr) {
	c.remote = addr
	c.resolved = true
}

// parseAddr는 "ip", "ip:port", "[ipv6]:port" 형태를 모두 받습니다.
func parseAddr(raw string) (netip.Addr, error) {
	raw = strings.TrimSpace(raw)
	addr, err := netip.ParseAddr(raw)
	if err == nil {
		return addr.Unmap(), nil
	}
	addrPort, portErr := netip.ParseAddrPort(raw)
	if portErr == nil {
		return addrPort.Addr().Unmap(), nil
	}
	return netip.Addr{}, err
}
