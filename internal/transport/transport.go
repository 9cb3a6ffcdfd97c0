// Package transport implements the shared TCP/TLS/HTTP connector state
// machine that every "simple" sink (graphite, opentsdb, json, remote
// write) sends through (§4.5). SDK-backed sinks (Kinesis, Pub/Sub,
// MongoDB) bypass this package entirely and talk to their own client
// libraries (§4.7).
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vigilantagent/exporting/internal/constants"
)

// State names where the connection sits in its lifecycle, logged the way
// the teacher logs event/connection state transitions.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Simple is the TCP/TLS byte-stream transport used by the telnet-framed
// sinks (graphite, opentsdb). HTTP-framed sinks use http.go's helpers atop
// net/http instead, since they need request/response framing rather than
// a raw byte pipe.
type Simple struct {
	mu      sync.Mutex
	network string
	addr    string
	tlsCfg  *tls.Config
	timeout time.Duration

	state State
	conn  net.Conn
}

// NewSimple returns a Simple transport. tlsCfg may be nil for plaintext TCP.
func NewSimple(network, addr string, tlsCfg *tls.Config, timeout time.Duration) *Simple {
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	return &Simple{network: network, addr: addr, tlsCfg: tlsCfg, timeout: timeout, state: StateDisconnected}
}

// State returns the current connection state.
func (s *Simple) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect dials (and, if configured, TLS-handshakes) the destination.
// A no-op if already connected.
func (s *Simple) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnected && s.conn != nil {
		return nil
	}
	s.state = StateConnecting

	d := net.Dialer{Timeout: s.timeout}
	conn, err := d.DialContext(ctx, s.network, s.addr)
	if err != nil {
		s.state = StateFailed
		return fmt.Errorf("transport: dial %s: %w", s.addr, err)
	}
	if s.tlsCfg != nil {
		tlsConn := tls.Client(conn, s.tlsCfg)
		readTimeout := s.timeout / 4
		if readTimeout < constants.MinTLSReadTimeout {
			readTimeout = constants.MinTLSReadTimeout
		}
		if err := tlsConn.SetDeadline(time.Now().Add(readTimeout)); err != nil {
			conn.Close()
			s.state = StateFailed
			return err
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			s.state = StateFailed
			return fmt.Errorf("transport: tls handshake %s: %w", s.addr, err)
		}
		conn = tlsConn
	}
	s.conn = conn
	s.state = StateConnected
	return nil
}

// Send writes payload to the open connection, reconnecting first if
// needed. Telnet-framed sinks have no response to read, so only the bytes
// written are reported.
func (s *Simple) Send(ctx context.Context, payload []byte) (sentBytes int, err error) {
	if err := s.Connect(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	conn := s.conn
	deadline := s.timeout
	s.mu.Unlock()

	if conn == nil {
		return 0, fmt.Errorf("transport: not connected")
	}
	_ = conn.SetWriteDeadline(time.Now().Add(deadline))
	n, err := conn.Write(payload)
	if err != nil {
		s.mu.Lock()
		s.state = StateFailed
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()
		return n, fmt.Errorf("transport: write %s: %w", s.addr, err)
	}
	return n, nil
}

// Close tears down the connection, if any.
func (s *Simple) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.state = StateDisconnected
	return err
}
