package transport

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/replbridge/replbridge"
)

// Channels bundles the three connected channels of one session.
type Channels struct {
	Command *Conn
	Control *Conn
	Stream  *Conn
}

// Dial connects all three channels. On any failure the channels connected
// so far are closed and the whole dial fails; callers never see a partial
// bundle.
func Dial(ctx context.Context, eps Endpoints) (*Channels, error) {
	if err := eps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", replbridge.ErrEngineUnavailable, err)
	}
	var d net.Dialer
	chs := &Channels{}
	for _, target := range []struct {
		name string
		addr string
		dst  **Conn
	}{
		{"command", eps.Command, &chs.Command},
		{"control", eps.Control, &chs.Control},
		{"stream", eps.Stream, &chs.Stream},
	} {
		network, address := splitAddr(target.addr)
		nc, err := d.DialContext(ctx, network, address)
		if err != nil {
			chs.Close()
			return nil, fmt.Errorf("%w: dial %s channel %s: %w",
				replbridge.ErrEngineUnavailable, target.name, target.addr, err)
		}
		*target.dst = NewConn(nc)
	}
	return chs, nil
}

// splitAddr maps an endpoint address to the network/address pair net.Dial
// expects. tcp:// and unix:// strip their scheme; anything else dials TCP
// as written.
func splitAddr(addr string) (network, address string) {
	switch {
	case strings.HasPrefix(addr, "tcp://"):
		return "tcp", strings.TrimPrefix(addr, "tcp://")
	case strings.HasPrefix(addr, "unix://"):
		return "unix", strings.TrimPrefix(addr, "unix://")
	default:
		return "tcp", addr
	}
}

// Close closes every connected channel and reports the first error. Nil
// members are skipped so a half-built bundle closes cleanly.
func (c *Channels) Close() error {
	var first error
	for _, cn := range []*Conn{c.Command, c.Control, c.Stream} {
		if cn == nil {
			continue
		}
		if err := cn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
