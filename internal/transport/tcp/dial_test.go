package tcp_test

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/transport/tcp"
)

func TestResolve(t *testing.T) {
	addr, err := tcp.Resolve(context.Background(), "127.0.0.1", "8080")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", addr.String())
}

func TestResolve_BadPort(t *testing.T) {
	_, err := tcp.Resolve(context.Background(), "127.0.0.1", "no-such-service-name")
	require.Error(t, err)
	assert.Equal(t, chat.KindAddressResolution, chat.KindOf(err))
}

func TestResolve_BadHost(t *testing.T) {
	_, err := tcp.Resolve(context.Background(), "host.invalid", "80")
	require.Error(t, err)
	assert.Equal(t, chat.KindAddressResolution, chat.KindOf(err))
}

func TestDial(t *testing.T) {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	conn, err := tcp.Dial(context.Background(), "127.0.0.1", port, 0)
	require.NoError(t, err)
	conn.Close()
}

func TestDial_Refused(t *testing.T) {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	listener.Close()

	_, err = tcp.Dial(context.Background(), "127.0.0.1", port, 0)
	require.Error(t, err)
	assert.Equal(t, chat.KindConnect, chat.KindOf(err))
}
