package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

// Role selects which side speaks first after the handshake.
type Role int

const (
	// Initiator connects, identifies first and sends the first chat line.
	Initiator Role = iota
	// Responder accepts, identifies second and waits for the first line.
	Responder
)

// String returns the string representation of Role
func (r Role) String() string {
	if r == Responder {
		return "responder"
	}
	return "initiator"
}

// Outcome describes how a session ended without a fatal error.
type Outcome int

const (
	outcomeNone Outcome = iota
	OutcomeLocalQuit
	OutcomeRemoteQuit
	OutcomePeerHangup
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeLocalQuit:
		return "local quit"
	case OutcomeRemoteQuit:
		return "remote quit"
	case OutcomePeerHangup:
		return "peer hangup"
	default:
		return "running"
	}
}

const closedNotice = "Connection has been closed."

// Session is a handshaken association between a Conn and two identities.
// It owns the Conn: Run closes it on every exit path.
type Session struct {
	conn         Conn
	role         Role
	local        Identity
	remote       Identity
	announceQuit bool
	log          zerolog.Logger
	recvBuf      []byte
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.log = logger
	}
}

// WithQuitAnnouncement controls whether a local quit sends the bare quit
// sentinel to the peer. Responders announce by default, initiators do not.
func WithQuitAnnouncement(on bool) Option {
	return func(s *Session) {
		s.announceQuit = on
	}
}

func newSession(conn Conn, role Role, local Identity, opts []Option) *Session {
	s := &Session{
		conn:         conn,
		role:         role,
		local:        local,
		announceQuit: role == Responder,
		log:          zerolog.Nop(),
		recvBuf:      make([]byte, ReceiveBufferSize+1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("role", role.String()).Str("peer", conn.RemoteAddr()).Logger()
	return s
}

// Handshake identifies to the peer as the initiating side: it sends the
// local identity as raw bytes, then reads the peer's identity with a single
// receive into a MaxIdentityLen buffer. A short read is the whole token.
func Handshake(ctx context.Context, conn Conn, local Identity, opts ...Option) (*Session, error) {
	s := newSession(conn, Initiator, local, opts)

	if _, err := conn.Write(ctx, []byte(local)); err != nil {
		return nil, ioError("handshake send", err)
	}

	buf := make([]byte, MaxIdentityLen)
	n, err := conn.Read(ctx, buf)
	if err := s.handshakeReadErr(n, err); err != nil {
		return nil, err
	}
	if err := s.setRemote(buf[:n]); err != nil {
		return nil, err
	}
	return s, nil
}

// AcceptHandshake identifies to the peer as the accepting side: it reads
// the initiator's identity, then answers with the local one.
func AcceptHandshake(ctx context.Context, conn Conn, local Identity, opts ...Option) (*Session, error) {
	s := newSession(conn, Responder, local, opts)

	n, err := conn.Read(ctx, s.recvBuf)
	if err := s.handshakeReadErr(n, err); err != nil {
		return nil, err
	}
	if err := s.setRemote(s.recvBuf[:n]); err != nil {
		return nil, err
	}

	if _, err := conn.Write(ctx, []byte(local)); err != nil {
		return nil, ioError("handshake send", err)
	}
	return s, nil
}

func (s *Session) handshakeReadErr(n int, err error) error {
	if n == 0 && (err == nil || isHangup(err)) {
		return NewError(KindTransportIO, "handshake receive", ErrPeerClosed)
	}
	if err != nil && !isHangup(err) {
		return ioError("handshake receive", err)
	}
	return nil
}

func (s *Session) setRemote(token []byte) error {
	remote, err := PeerIdentity(token)
	if err != nil {
		return NewError(KindProtocol, "handshake receive", err)
	}
	s.remote = remote
	s.log.Debug().Str("local", string(s.local)).Str("remote", string(remote)).Msg("handshake complete")
	return nil
}

// Local returns the local identity.
func (s *Session) Local() Identity { return s.local }

// Remote returns the identity learned during the handshake.
func (s *Session) Remote() Identity { return s.remote }

// Role returns which side of the conversation this session plays.
func (s *Session) Role() Role { return s.role }

type turn func(ctx context.Context, console Console) (Outcome, error)

// Run alternates local and remote turns until either side quits, the peer
// hangs up, or a transport error occurs. The initiator sends first, the
// responder receives first; no turn is ever taken twice in a row.
// The Conn is closed and a closure notice emitted before Run returns.
func (s *Session) Run(ctx context.Context, console Console) (outcome Outcome, err error) {
	defer func() {
		if cerr := s.conn.Close(); cerr != nil {
			s.log.Debug().Err(cerr).Msg("close")
		}
		console.Notice(closedNotice)
		s.log.Debug().Stringer("outcome", outcome).Err(err).Msg("session ended")
	}()

	turns := [2]turn{s.sendTurn, s.receiveTurn}
	if s.role == Responder {
		turns = [2]turn{s.receiveTurn, s.sendTurn}
	}

	for {
		for _, take := range turns {
			outcome, err = take(ctx, console)
			if err != nil || outcome != outcomeNone {
				return outcome, err
			}
		}
	}
}

// sendTurn reads local input until it yields a line that can be sent, then
// sends it as one write. Rejected input keeps the turn local.
func (s *Session) sendTurn(ctx context.Context, console Console) (Outcome, error) {
	for {
		console.Prompt(s.local)
		line, err := console.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return outcomeNone, fmt.Errorf("read input: %w", err)
			}
			if line == "" {
				return s.quit(ctx)
			}
			line += "\n"
		}

		if IsLocalQuit(line) {
			return s.quit(ctx)
		}
		if s.role == Responder && strings.TrimRight(line, "\r\n") == "" {
			continue
		}

		msg, err := FormatLine(s.local, line)
		if err != nil {
			console.Notice(fmt.Sprintf("Message not sent: lines are limited to %d bytes.", MaxLineLen-len(s.local)-len(Separator)))
			continue
		}

		if _, err := s.conn.Write(ctx, msg); err != nil {
			return outcomeNone, ioError("send", err)
		}
		s.log.Debug().Int("bytes", len(msg)).Msg("sent")
		return outcomeNone, nil
	}
}

// receiveTurn reads one reply. recvBuf holds one byte more than a reply
// may carry, so a filled buffer means the peer overran ReceiveBufferSize.
func (s *Session) receiveTurn(ctx context.Context, console Console) (Outcome, error) {
	n, err := s.conn.Read(ctx, s.recvBuf)
	if n == 0 && (err == nil || isHangup(err)) {
		console.Notice(fmt.Sprintf("%s disconnected.", s.remote))
		return OutcomePeerHangup, nil
	}
	if err != nil && !isHangup(err) {
		return outcomeNone, ioError("receive", err)
	}
	if n > ReceiveBufferSize {
		return outcomeNone, NewError(KindProtocol, "receive",
			fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, ReceiveBufferSize))
	}
	s.log.Debug().Int("bytes", n).Msg("received")

	payload := s.recvBuf[:n]
	if IsRemoteQuit(payload) {
		console.Notice(fmt.Sprintf("%s closed connection.", s.remote))
		return OutcomeRemoteQuit, nil
	}
	console.Display(payload)
	return outcomeNone, nil
}

func (s *Session) quit(ctx context.Context) (Outcome, error) {
	if s.announceQuit {
		if _, err := s.conn.Write(ctx, []byte(RemoteQuit)); err != nil {
			return outcomeNone, ioError("send quit", err)
		}
	}
	return OutcomeLocalQuit, nil
}

func isHangup(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func ioError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, ErrProtocolViolation) {
		return NewError(KindProtocol, op, err)
	}
	return NewError(KindTransportIO, op, err)
}
