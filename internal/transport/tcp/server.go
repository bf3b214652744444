package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/omochice/turn-chat/internal/chat"
)

// Handler runs one session over an accepted connection. It is expected to
// close conn before returning.
type Handler func(ctx context.Context, conn chat.Conn)

// Upgrader turns an accepted socket into a chat.Conn.
type Upgrader func(ctx context.Context, conn net.Conn) (chat.Conn, error)

// RawUpgrader serves unframed peers.
func RawUpgrader(_ context.Context, conn net.Conn) (chat.Conn, error) {
	return NewConn(conn), nil
}

// FramedUpgrader serves peers that use length-prefixed framing.
func FramedUpgrader(_ context.Context, conn net.Conn) (chat.Conn, error) {
	return NewFramedConn(conn), nil
}

// Server accepts connections and serves them one at a time: the next
// connection is not accepted until the current session has ended.
type Server struct {
	address  string
	handler  Handler
	upgrade  Upgrader
	log      zerolog.Logger
	listener net.Listener
	ready    chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithUpgrader replaces the default raw upgrader.
func WithUpgrader(u Upgrader) ServerOption {
	return func(s *Server) {
		s.upgrade = u
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.log = logger
	}
}

// New creates a server that hands every accepted connection to handler.
func New(address string, handler Handler, opts ...ServerOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		address: address,
		handler: handler,
		upgrade: RawUpgrader,
		log:     zerolog.Nop(),
		ready:   make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens and serves connections until Stop is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return nil
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	listener, err := net.Listen("tcp4", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)

	s.log.Info().Str("addr", listener.Addr().String()).Msg("server started")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("failed to accept connection")
			continue
		}
		s.serve(conn)
	}
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Stop closes the listener, interrupts the active session and waits for
// Start to return.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	log := s.log.With().Str("peer", conn.RemoteAddr().String()).Logger()
	log.Info().Msg("new connection")

	c, err := s.upgrade(s.ctx, conn)
	if err != nil {
		log.Warn().Err(err).Msg("failed to set up connection")
		return
	}
	s.handler(s.ctx, c)
	log.Info().Msg("connection finished")
}
