package native

import (
	"errors"
	"fmt"
	"io"
)

var ErrTransportClosed = errors.New("transport closed")

// Transport moves messages between the client and the bridge host. The
// handler is invoked sequentially for every incoming message. Done is
// closed once no more messages can arrive.
type Transport interface {
	PostMessage(msg Message) error
	SetMessageHandler(handler func(Message))
	Done() <-chan struct{}
	Close() error
}

type TransportKind string

const (
	TransportPipe      TransportKind = "pipe"
	TransportWebSocket TransportKind = "ws"
	TransportStream    TransportKind = "stream"
)

// TransportOptions holds what SelectTransport needs for each kind.
type TransportOptions struct {
	// Pipe is the client end of an in-process pipe.
	Pipe *PipeTransport
	// WebSocketURL is dialed for TransportWebSocket.
	WebSocketURL string
	// WebSocketToken is the shared secret of the bridge host.
	WebSocketToken string
	// Stream is wrapped for TransportStream.
	Stream io.ReadWriteCloser
}

// SelectTransport creates the transport for kind. It is called once at
// startup.
func SelectTransport(kind TransportKind, opts TransportOptions) (Transport, error) {
	switch kind {
	case TransportPipe:
		if opts.Pipe == nil {
			return nil, errors.New("pipe transport requires a pipe end")
		}
		return opts.Pipe, nil
	case TransportWebSocket:
		if opts.WebSocketURL == "" {
			return nil, errors.New("websocket transport requires an address")
		}
		return DialWebSocket(opts.WebSocketURL, opts.WebSocketToken)
	case TransportStream:
		if opts.Stream == nil {
			return nil, errors.New("stream transport requires a stream")
		}
		return NewStreamTransport(opts.Stream), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}
