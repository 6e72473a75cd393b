// Package rcon implements the remote console client for Minecraft
// servers: a single long-lived TCP session speaking the size-prefixed
// binary protocol from internal/protocol, plus the batch executor that
// drives ordered command sequences over it.
package rcon

import (
	"context"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/protocol"
)

// State is the connection lifecycle state of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
)

// stateStrings maps State values to their lowercase JSON representation.
var stateStrings = map[State]string{
	StateDisconnected:   "disconnected",
	StateConnecting:     "connecting",
	StateAuthenticating: "authenticating",
	StateReady:          "ready",
}

// String returns the string representation of State.
func (s State) String() string {
	if str, ok := stateStrings[s]; ok {
		return str
	}
	return "disconnected"
}

// MarshalJSON serializes State as a JSON string (e.g. "ready").
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Config holds the connection parameters for one RCON target. Values
// are injected at construction; the session treats them as opaque.
type Config struct {
	Host           string
	Port           int
	Password       string
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

const (
	// DefaultConnectTimeout bounds the TCP dial plus handshake.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultCommandTimeout bounds a single command round trip.
	DefaultCommandTimeout = 10 * time.Second

	// writeTimeout bounds a single packet write.
	writeTimeout = 10 * time.Second

	// readBufferSize is the per-read chunk size fed to the assembler.
	readBufferSize = 4096
)

type result struct {
	body string
	err  error
}

// Session owns one TCP connection to an RCON server. It drives the
// authentication handshake, correlates responses to requests by id
// through a pending table, and enforces per-request timeouts. A
// session is created explicitly and handed to its consumers; there is
// no package-level connection.
//
// Discipline: callers issue one command at a time. Request ids are
// allocated under the session lock and responses are matched purely by
// id, so overlapping sends would not corrupt the table, but the build
// pipeline never overlaps them because the game server applies world
// edits in program order.
type Session struct {
	mu     sync.Mutex
	cfg    Config
	logger zerolog.Logger

	conn    net.Conn
	state   State
	nextID  int32
	pending map[int32]chan result
	// order tracks pending ids oldest-first for the unsolicited
	// auth-failure dispatch path.
	order []int32

	// Lifecycle hooks, invoked outside the session lock. Set before
	// the first Connect.
	onConnected func(addr string)
	onLost      func(addr string, err error)
}

// NewSession creates a disconnected session for the given target.
// Zero timeouts fall back to the defaults.
func NewSession(cfg Config) *Session {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}

	return &Session{
		cfg:     cfg,
		nextID:  1,
		pending: make(map[int32]chan result),
		logger:  log.With().Str("component", "rcon").Str("addr", cfg.Addr()).Logger(),
	}
}

// SetHooks installs optional lifecycle callbacks. onConnected fires
// after the handshake completes; onLost fires when an established
// connection dies unexpectedly, not on an explicit Disconnect.
func (s *Session) SetHooks(onConnected func(addr string), onLost func(addr string, err error)) {
	s.onConnected = onConnected
	s.onLost = onLost
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect dials the server and performs the authentication handshake.
// On success the session is Ready. A rejected secret surfaces as
// ErrAuthentication and leaves the session Disconnected with an empty
// pending table.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return fmt.Errorf("rcon: connect in state %s", s.state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	s.logger.Info().Msg("connecting to rcon server")

	dialer := net.Dialer{Timeout: s.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()

		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return fmt.Errorf("%w: %s", ErrConnectTimeout, s.cfg.Addr())
		}
		return fmt.Errorf("rcon: dial %s: %w", s.cfg.Addr(), err)
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateAuthenticating
	s.mu.Unlock()

	go s.readLoop(conn)

	if err := s.authenticate(ctx, conn); err != nil {
		s.teardown(conn, err)
		return err
	}

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()

	s.logger.Info().Msg("rcon session ready")
	if s.onConnected != nil {
		s.onConnected(s.cfg.Addr())
	}
	return nil
}

// authenticate sends the Auth packet and waits for the correlated
// AuthResponse.
func (s *Session) authenticate(ctx context.Context, conn net.Conn) error {
	id, ch := s.register()

	pkt := protocol.Packet{ID: id, Type: protocol.Auth, Body: s.cfg.Password}
	if err := s.write(conn, pkt); err != nil {
		s.unregister(id)
		return fmt.Errorf("rcon: send auth: %w", err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		return nil
	case <-time.After(s.cfg.CommandTimeout):
		s.unregister(id)
		return fmt.Errorf("%w: waiting for auth response", ErrCommandTimeout)
	case <-ctx.Done():
		s.unregister(id)
		return ctx.Err()
	}
}

// Execute sends one command and waits for its response. Valid only in
// the Ready state.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return "", ErrNotConnected
	}
	conn := s.conn
	s.mu.Unlock()

	id, ch := s.register()

	pkt := protocol.Packet{ID: id, Type: protocol.ExecCommand, Body: command}
	if err := s.write(conn, pkt); err != nil {
		s.unregister(id)
		return "", fmt.Errorf("rcon: send command: %w", err)
	}

	select {
	case res := <-ch:
		return res.body, res.err
	case <-time.After(s.cfg.CommandTimeout):
		// Clear the registration so a straggling response cannot leak
		// into a future request's table slot.
		s.unregister(id)
		return "", fmt.Errorf("%w: %q", ErrCommandTimeout, command)
	case <-ctx.Done():
		s.unregister(id)
		return "", ctx.Err()
	}
}

// Disconnect closes the socket and rejects every pending waiter with
// ErrSessionClosed. Safe to call in any state.
func (s *Session) Disconnect() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = StateDisconnected
	s.failAllLocked(ErrSessionClosed)
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
		s.logger.Info().Msg("rcon session disconnected")
	}
}

// register allocates the next request id and a buffered result
// channel. Ids increase monotonically, wrap before overflow, and skip
// any id still in flight so a slow response can never be routed to the
// wrong waiter.
func (s *Session) register() (int32, chan result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		id := s.nextID
		s.nextID++
		if s.nextID >= math.MaxInt32-1 {
			s.nextID = 1
		}
		if _, inFlight := s.pending[id]; inFlight {
			continue
		}

		ch := make(chan result, 1)
		s.pending[id] = ch
		s.order = append(s.order, id)
		return id, ch
	}
}

// unregister drops a pending entry, typically after a timeout.
func (s *Session) unregister(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Session) removeLocked(id int32) {
	delete(s.pending, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Session) failAllLocked(err error) {
	for id, ch := range s.pending {
		ch <- result{err: err}
		delete(s.pending, id)
	}
	s.order = nil
}

// write encodes and sends one packet with a write deadline.
func (s *Session) write(conn net.Conn, pkt protocol.Packet) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := conn.Write(protocol.Encode(pkt))
	return err
}

// readLoop reads raw chunks, reassembles frames, and dispatches them
// until the connection dies. Each loop owns its own assembler so a
// reconnect can never mix bytes from two sockets.
func (s *Session) readLoop(conn net.Conn) {
	asm := protocol.NewAssembler()
	buf := make([]byte, readBufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, pkt := range asm.Push(buf[:n]) {
				s.dispatch(pkt)
			}
		}
		if err != nil {
			s.teardown(conn, err)
			return
		}
	}
}

// dispatch routes an inbound packet to its pending waiter. A packet
// with the auth-failure id and no exact match is routed to the oldest
// pending waiter: some RCON server implementations do not echo the
// original request id when rejecting a secret. That fallback is a
// compatibility behavior, kept deliberately even though a correct
// server makes it dead code.
func (s *Session) dispatch(pkt protocol.Packet) {
	s.mu.Lock()

	if ch, ok := s.pending[pkt.ID]; ok {
		s.removeLocked(pkt.ID)
		s.mu.Unlock()
		ch <- result{body: pkt.Body}
		return
	}

	if pkt.ID == protocol.AuthFailureID && len(s.order) > 0 {
		oldest := s.order[0]
		ch := s.pending[oldest]
		s.removeLocked(oldest)
		s.mu.Unlock()
		s.logger.Warn().
			Int32("waiter_id", oldest).
			Msg("auth failure without request id, routing to oldest waiter")
		ch <- result{err: ErrAuthentication}
		return
	}

	s.mu.Unlock()
	s.logger.Warn().
		Int32("id", pkt.ID).
		Int32("type", int32(pkt.Type)).
		Msg("response for unknown request id dropped")
}

// teardown resets the session after a socket error, unless a newer
// connection has already replaced this one.
func (s *Session) teardown(conn net.Conn, err error) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		conn.Close()
		return
	}
	wasReady := s.state == StateReady
	s.conn = nil
	s.state = StateDisconnected
	s.failAllLocked(ErrSessionClosed)
	s.mu.Unlock()

	conn.Close()
	s.logger.Warn().Err(err).Msg("rcon connection lost")
	if wasReady && s.onLost != nil {
		s.onLost(s.cfg.Addr(), err)
	}
}
