package native

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostAndClient(t *testing.T, bridge FileBridge) *Dispatcher {
	t.Helper()
	clientEnd, hostEnd := NewPipe()
	host := NewHost(hostEnd, bridge, nil)
	client := NewDispatcher(clientEnd, nil, nil)
	t.Cleanup(func() {
		_ = client.Close()
		_ = host.Close()
	})
	return client
}

func TestDispatcher_RequestsWaitForInit(t *testing.T) {
	var initCalls atomic.Int32
	clientEnd, hostEnd := NewPipe()
	host := NewDispatcher(hostEnd, map[string]Handler{
		CommandInit: func(ctx context.Context, args []json.RawMessage) (any, error) {
			initCalls.Add(1)
			return nil, nil
		},
		"echo": func(ctx context.Context, args []json.RawMessage) (any, error) {
			var s string
			if err := decodeArgs(args, &s); err != nil {
				return nil, err
			}
			return s, nil
		},
	}, nil)
	defer host.Close()
	client := NewDispatcher(clientEnd, nil, nil)
	defer client.Close()

	var done atomic.Bool
	go func() {
		raw, err := client.PostRequest(context.Background(), "echo", "hi")
		if err == nil && string(raw) == `"hi"` {
			done.Store(true)
		}
	}()

	assert.Never(t, done.Load, 50*time.Millisecond, 5*time.Millisecond)
	require.NoError(t, client.Init(context.Background()))
	assert.Eventually(t, done.Load, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), initCalls.Load())
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	client := hostAndClient(t, nil)
	require.NoError(t, client.Init(context.Background()))

	_, err := client.PostRequest(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownCommand)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "UnknownCommandError", remote.Name)
}

func TestDispatcher_ContextCancel(t *testing.T) {
	clientEnd, hostEnd := NewPipe()
	defer hostEnd.Close()
	client := NewDispatcher(clientEnd, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	// nobody answers on the host end
	err := client.Init(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, client.Close())
	_, err = client.PostRequest(context.Background(), "x")
	require.ErrorIs(t, err, ErrTransportClosed)
}

func TestDispatcher_PeerCloseFailsPendingRequest(t *testing.T) {
	a, b := net.Pipe()
	client := NewDispatcher(NewStreamTransport(a), nil, nil)
	defer client.Close()

	go func() {
		// swallow the init request, then hang up without answering
		_, _ = bufio.NewReader(b).ReadString('\n')
		_ = b.Close()
	}()

	done := make(chan error, 1)
	go func() { done <- client.Init(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrTransportClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Init did not fail after the peer closed")
	}

	_, err := client.PostRequest(context.Background(), "x")
	require.ErrorIs(t, err, ErrTransportClosed)
}

func TestRemoteBridge_OverPipe(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote body"))
	}))
	defer srv.Close()

	local, err := NewLocalBridge(t.TempDir(), srv.Client(), nil)
	require.NoError(t, err)
	client := hostAndClient(t, local)
	require.NoError(t, client.Init(ctx))
	remote := NewRemoteBridge(client)

	dl, err := remote.Download(ctx, srv.URL, "f.txt", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, dl.StatusCode)

	src := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(src, []byte("secret"), 0o600))
	key := cryptox.GenerateKey()

	enc, err := remote.AESEncryptFile(ctx, key, src, cryptox.GenerateNonce())
	require.NoError(t, err)
	assert.Equal(t, int64(6), enc.UnencSize)

	plain, err := remote.AESDecryptFile(ctx, key, enc.URI)
	require.NoError(t, err)
	got, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(got))

	_, err = remote.AESDecryptFile(ctx, cryptox.GenerateKey(), enc.URI)
	require.ErrorIs(t, err, common.ErrDecryption)

	up, err := remote.Upload(ctx, enc.URI, srv.URL, http.MethodPut, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, up.StatusCode)

	require.NoError(t, remote.DeleteFile(ctx, enc.URI))
	err = remote.DeleteFile(ctx, enc.URI)
	require.ErrorIs(t, err, os.ErrNotExist)

	err = remote.DeleteFile(ctx, src)
	require.ErrorIs(t, err, ErrOutsideBridgeDir)
	_, err = os.Stat(src)
	require.NoError(t, err)

	require.NoError(t, remote.ClearFileData(ctx))
}
