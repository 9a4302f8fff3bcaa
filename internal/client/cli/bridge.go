package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"

	"github.com/dmitrijs2005/vaultblob/internal/client/config"
	"github.com/dmitrijs2005/vaultblob/internal/client/native"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
)

// openBridge connects to the native file bridge selected by cfg.Bridge.
// The returned func releases the connection.
func openBridge(ctx context.Context, cfg *config.Config, httpClient *http.Client, log logging.Logger) (native.FileBridge, func() error, error) {
	switch cfg.Bridge {
	case "local":
		b, err := native.NewLocalBridge(cfg.TempDir, httpClient, log)
		if err != nil {
			return nil, nil, err
		}
		return b, func() error { return nil }, nil

	case string(native.TransportPipe):
		local, err := native.NewLocalBridge(cfg.TempDir, httpClient, log)
		if err != nil {
			return nil, nil, err
		}
		clientEnd, hostEnd := native.NewPipe()
		host := native.NewHost(hostEnd, local, log.With("side", "host"))
		t, err := native.SelectTransport(native.TransportPipe, native.TransportOptions{Pipe: clientEnd})
		if err != nil {
			_ = host.Close()
			return nil, nil, err
		}
		return connect(ctx, t, log, host.Close)

	case string(native.TransportWebSocket):
		t, err := native.SelectTransport(native.TransportWebSocket, native.TransportOptions{
			WebSocketURL:   cfg.BridgeAddr,
			WebSocketToken: cfg.BridgeToken,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to bridge host %s: %w", cfg.BridgeAddr, err)
		}
		return connect(ctx, t, log, nil)

	case string(native.TransportStream):
		proc, err := startBridgeProcess(cfg.BridgeAddr, cfg.TempDir)
		if err != nil {
			return nil, nil, err
		}
		t, err := native.SelectTransport(native.TransportStream, native.TransportOptions{Stream: proc})
		if err != nil {
			_ = proc.Close()
			return nil, nil, err
		}
		return connect(ctx, t, log, nil)
	}
	return nil, nil, fmt.Errorf("unknown bridge %q", cfg.Bridge)
}

func connect(ctx context.Context, t native.Transport, log logging.Logger, closeHost func() error) (native.FileBridge, func() error, error) {
	d := native.NewDispatcher(t, nil, log.With("side", "client"))
	closeFn := func() error {
		err := d.Close()
		if closeHost != nil {
			_ = closeHost()
		}
		return err
	}
	if err := d.Init(ctx); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return native.NewRemoteBridge(d), closeFn, nil
}

// bridgeProcess talks to a bridge host started as a child process over
// its stdin and stdout.
type bridgeProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func startBridgeProcess(path, tempDir string) (*bridgeProcess, error) {
	if path == "" {
		return nil, fmt.Errorf("stream bridge requires the bridge host binary (-w)")
	}
	cmd := exec.Command(path, "-stream", "-t", tempDir)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start bridge host: %w", err)
	}
	return &bridgeProcess{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (p *bridgeProcess) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *bridgeProcess) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Close ends the host by closing its stdin and waits for it to exit.
func (p *bridgeProcess) Close() error {
	_ = p.stdin.Close()
	return p.cmd.Wait()
}
