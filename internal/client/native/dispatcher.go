package native

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/google/uuid"
)

var ErrUnknownCommand = errors.New("unknown command")

// Handler serves one incoming request type.
type Handler func(ctx context.Context, args []json.RawMessage) (any, error)

// Dispatcher correlates requests and responses over a Transport and serves
// incoming requests from its handler table.
type Dispatcher struct {
	transport Transport
	handlers  map[string]Handler
	log       logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[string]chan Message

	ready     chan struct{}
	readyOnce sync.Once
}

func NewDispatcher(t Transport, handlers map[string]Handler, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		transport: t,
		handlers:  handlers,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[string]chan Message),
		ready:     make(chan struct{}),
	}
	t.SetMessageHandler(d.handle)
	go d.watch()
	return d
}

// watch fails pending and future requests once the transport is gone.
func (d *Dispatcher) watch() {
	select {
	case <-d.transport.Done():
		d.log.Warn(d.ctx, "native transport closed by peer")
		d.cancel()
	case <-d.ctx.Done():
	}
}

// Init sends the init request. PostRequest blocks until it succeeded.
func (d *Dispatcher) Init(ctx context.Context) error {
	if _, err := d.post(ctx, CommandInit, nil); err != nil {
		return fmt.Errorf("native init: %w", err)
	}
	d.readyOnce.Do(func() { close(d.ready) })
	return nil
}

// PostRequest sends a request and waits for its response value.
func (d *Dispatcher) PostRequest(ctx context.Context, requestType string, args ...any) (json.RawMessage, error) {
	select {
	case <-d.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.ctx.Done():
		return nil, ErrTransportClosed
	}
	return d.post(ctx, requestType, args)
}

func (d *Dispatcher) post(ctx context.Context, requestType string, args []any) (json.RawMessage, error) {
	rawArgs := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode %s args: %w", requestType, err)
		}
		rawArgs = append(rawArgs, raw)
	}

	id := uuid.NewString()
	ch := make(chan Message, 1)
	d.mu.Lock()
	d.pending[id] = ch
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.pending, id)
		d.mu.Unlock()
	}()

	select {
	case <-d.ctx.Done():
		return nil, ErrTransportClosed
	default:
	}

	err := d.transport.PostMessage(Message{Type: MessageRequest, ID: id, RequestType: requestType, Args: rawArgs})
	if err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Type == MessageRequestError {
			if resp.Error == nil {
				return nil, &RemoteError{Name: "Error", Message: "request failed"}
			}
			return nil, resp.Error
		}
		return resp.Value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.ctx.Done():
		return nil, ErrTransportClosed
	}
}

func (d *Dispatcher) handle(msg Message) {
	switch msg.Type {
	case MessageResponse, MessageRequestError:
		d.mu.Lock()
		ch, ok := d.pending[msg.ID]
		d.mu.Unlock()
		if !ok {
			d.log.Warn(d.ctx, "no request for response", "id", msg.ID)
			return
		}
		select {
		case ch <- msg:
		default:
		}
	case MessageRequest:
		go d.serve(msg)
	default:
		d.log.Warn(d.ctx, "unknown message type", "type", msg.Type)
	}
}

func (d *Dispatcher) serve(req Message) {
	resp := Message{Type: MessageResponse, ID: req.ID}

	handler, ok := d.handlers[req.RequestType]
	if !ok {
		resp.Type = MessageRequestError
		resp.Error = toRemoteError(fmt.Errorf("%w: %s", ErrUnknownCommand, req.RequestType))
	} else if value, err := handler(d.ctx, req.Args); err != nil {
		resp.Type = MessageRequestError
		resp.Error = toRemoteError(err)
	} else if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			resp.Type = MessageRequestError
			resp.Error = toRemoteError(err)
		} else {
			resp.Value = raw
		}
	}

	if err := d.transport.PostMessage(resp); err != nil {
		d.log.Warn(d.ctx, "failed to send response", "request_type", req.RequestType, "error", err)
	}
}

// Close stops the dispatcher and its transport. Pending requests fail with
// ErrTransportClosed.
func (d *Dispatcher) Close() error {
	d.cancel()
	return d.transport.Close()
}

// Error names shared by both sides so sentinel errors survive the trip.
var remoteErrorNames = []struct {
	name string
	err  error
}{
	{"DecryptionError", common.ErrDecryption},
	{"NetworkError", common.ErrNetwork},
	{"FileNotFoundError", fs.ErrNotExist},
	{"UnknownCommandError", ErrUnknownCommand},
	{"OutsideBridgeDirError", ErrOutsideBridgeDir},
}

func toRemoteError(err error) *RemoteError {
	for _, n := range remoteErrorNames {
		if errors.Is(err, n.err) {
			return &RemoteError{Name: n.name, Message: err.Error()}
		}
	}
	return &RemoteError{Name: "Error", Message: err.Error()}
}

// Unwrap restores the sentinel error named by the remote side.
func (e *RemoteError) Unwrap() error {
	for _, n := range remoteErrorNames {
		if e.Name == n.name {
			return n.err
		}
	}
	return nil
}
