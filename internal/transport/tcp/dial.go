package tcp

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/omochice/turn-chat/internal/chat"
)

// Resolve looks up an IPv4 address for host and a TCP port for port, which
// may be numeric or a service name.
func Resolve(ctx context.Context, host, port string) (*net.TCPAddr, error) {
	portNum, err := net.DefaultResolver.LookupPort(ctx, "tcp", port)
	if err != nil {
		return nil, chat.NewError(chat.KindAddressResolution, "resolve port", err)
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, chat.NewError(chat.KindAddressResolution, "resolve host", err)
	}
	if len(ips) == 0 {
		return nil, chat.NewError(chat.KindAddressResolution, "resolve host", errors.New("no IPv4 address for "+host))
	}
	return &net.TCPAddr{IP: ips[0], Port: portNum}, nil
}

// Dial resolves host and port and connects over TCP/IPv4. A zero timeout
// leaves the connect bounded only by ctx. Failures are never retried.
func Dial(ctx context.Context, host, port string, timeout time.Duration) (net.Conn, error) {
	addr, err := Resolve(ctx, host, port)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp4", addr.String())
	if err != nil {
		return nil, chat.NewError(chat.KindConnect, "connect", err)
	}
	return conn, nil
}
