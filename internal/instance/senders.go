package instance

import (
	"context"

	"github.com/vigilantagent/exporting/internal/transport"
)

// simpleSender adapts transport.Simple (which has no response payload) to
// the Sender interface's (sent, received, err) shape.
type simpleSender struct {
	t *transport.Simple
}

// NewSimpleSender wraps a telnet-framed transport as a Sender.
func NewSimpleSender(t *transport.Simple) Sender { return &simpleSender{t: t} }

func (s *simpleSender) Send(ctx context.Context, payload []byte) (int, int, error) {
	n, err := s.t.Send(ctx, payload)
	return n, 0, err
}

func (s *simpleSender) Close() error { return s.t.Close() }

// httpSender adapts transport.HTTPSender, whose Send signature already
// matches Sender exactly.
type httpSender struct {
	h *transport.HTTPSender
}

// NewHTTPSender wraps an HTTP-framed transport as a Sender.
func NewHTTPSender(h *transport.HTTPSender) Sender { return &httpSender{h: h} }

func (s *httpSender) Send(ctx context.Context, payload []byte) (int, int, error) {
	return s.h.Send(ctx, payload)
}

func (s *httpSender) Close() error { return nil }
