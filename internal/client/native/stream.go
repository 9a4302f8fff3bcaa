package native

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"io"
	"sync"
)

const maxStreamLine = 16 << 20

// StreamTransport writes each message as a base64 encoded JSON document on
// its own line. It suits byte streams such as a child process's stdio.
type StreamTransport struct {
	rw io.ReadWriteCloser

	writeMu   sync.Mutex
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewStreamTransport(rw io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{rw: rw, done: make(chan struct{})}
}

// Done is closed when the stream reached EOF or failed.
func (t *StreamTransport) Done() <-chan struct{} {
	return t.done
}

func (t *StreamTransport) PostMessage(msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	line := make([]byte, base64.StdEncoding.EncodedLen(len(raw))+1)
	base64.StdEncoding.Encode(line, raw)
	line[len(line)-1] = '\n'

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.rw.Write(line); err != nil {
		return ErrTransportClosed
	}
	return nil
}

func (t *StreamTransport) SetMessageHandler(handler func(Message)) {
	t.startOnce.Do(func() {
		go func() {
			defer close(t.done)
			sc := bufio.NewScanner(t.rw)
			sc.Buffer(make([]byte, 64*1024), maxStreamLine)
			for sc.Scan() {
				raw, err := base64.StdEncoding.DecodeString(sc.Text())
				if err != nil {
					continue
				}
				var msg Message
				if err := json.Unmarshal(raw, &msg); err != nil {
					continue
				}
				handler(msg)
			}
		}()
	})
}

func (t *StreamTransport) Close() error {
	var err error
	t.closeOnce.Do(func() { err = t.rw.Close() })
	return err
}
