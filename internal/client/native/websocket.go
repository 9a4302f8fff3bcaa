package native

import (
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/gorilla/websocket"
)

// WebSocketTransport sends every message as one JSON text frame. It is the
// transport of mobile builds where the bridge host runs in another process.
type WebSocketTransport struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn, done: make(chan struct{})}
}

// Done is closed when the read loop stops, i.e. the peer went away or the
// transport was closed.
func (t *WebSocketTransport) Done() <-chan struct{} {
	return t.done
}

// DialWebSocket connects to a bridge host listening at url (ws://...) and
// presents token as the host's shared secret.
func DialWebSocket(url, token string) (*WebSocketTransport, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	if token != "" {
		header.Set(common.BridgeTokenHeaderName, token)
	}
	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, err
	}
	return NewWebSocketTransport(conn), nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// UpgradeWebSocket accepts a bridge connection on the host side.
func UpgradeWebSocket(w http.ResponseWriter, r *http.Request) (*WebSocketTransport, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewWebSocketTransport(conn), nil
}

func (t *WebSocketTransport) PostMessage(msg Message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteJSON(msg); err != nil {
		return ErrTransportClosed
	}
	return nil
}

func (t *WebSocketTransport) SetMessageHandler(handler func(Message)) {
	t.startOnce.Do(func() {
		go func() {
			defer close(t.done)
			for {
				var msg Message
				if err := t.conn.ReadJSON(&msg); err != nil {
					return
				}
				handler(msg)
			}
		}()
	})
}

func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		t.writeMu.Unlock()
		err = t.conn.Close()
	})
	return err
}
