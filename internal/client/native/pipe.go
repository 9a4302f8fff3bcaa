package native

import (
	"sync"
)

type pipeState struct {
	done chan struct{}
	once sync.Once
}

// PipeTransport is one end of an in-process message pipe, the transport of
// desktop builds where both sides share an address space. Messages are
// handed over as values without serialization.
type PipeTransport struct {
	inbox     chan Message
	peer      *PipeTransport
	state     *pipeState
	startOnce sync.Once
}

// NewPipe returns two connected ends.
func NewPipe() (*PipeTransport, *PipeTransport) {
	state := &pipeState{done: make(chan struct{})}
	a := &PipeTransport{inbox: make(chan Message, 64), state: state}
	b := &PipeTransport{inbox: make(chan Message, 64), state: state}
	a.peer, b.peer = b, a
	return a, b
}

func (p *PipeTransport) PostMessage(msg Message) error {
	select {
	case <-p.state.done:
		return ErrTransportClosed
	default:
	}
	select {
	case p.peer.inbox <- msg:
		return nil
	case <-p.state.done:
		return ErrTransportClosed
	}
}

func (p *PipeTransport) SetMessageHandler(handler func(Message)) {
	p.startOnce.Do(func() {
		go func() {
			for {
				select {
				case msg := <-p.inbox:
					handler(msg)
				case <-p.state.done:
					return
				}
			}
		}()
	})
}

// Done is closed when either end is closed.
func (p *PipeTransport) Done() <-chan struct{} {
	return p.state.done
}

// Close closes both ends.
func (p *PipeTransport) Close() error {
	p.state.once.Do(func() { close(p.state.done) })
	return nil
}
