package native

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
)

// WebSocketHandler accepts bridge clients that present token and serves
// bridge commands to each of them until it disconnects. An empty token
// rejects every client.
func WebSocketHandler(bridge FileBridge, token string, log logging.Logger) http.Handler {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validBridgeToken(token, r.Header.Get(common.BridgeTokenHeaderName)) {
			log.Warn(r.Context(), "bridge client rejected", "remote", r.RemoteAddr)
			http.Error(w, "invalid bridge token", http.StatusUnauthorized)
			return
		}
		t, err := UpgradeWebSocket(w, r)
		if err != nil {
			log.Warn(r.Context(), "websocket upgrade failed", "error", err)
			return
		}
		host := NewHost(t, bridge, log)
		defer host.Close()
		<-t.Done()
		log.Info(r.Context(), "native bridge client disconnected")
	})
}

func validBridgeToken(want, got string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// ServeStream serves bridge commands over rw until the peer closes it or
// ctx is done.
func ServeStream(ctx context.Context, rw io.ReadWriteCloser, bridge FileBridge, log logging.Logger) error {
	t := NewStreamTransport(rw)
	host := NewHost(t, bridge, log)
	defer host.Close()

	select {
	case <-t.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
