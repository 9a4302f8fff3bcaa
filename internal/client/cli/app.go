package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/vaultblob/internal/client/auth"
	"github.com/dmitrijs2005/vaultblob/internal/client/client"
	"github.com/dmitrijs2005/vaultblob/internal/client/config"
	"github.com/dmitrijs2005/vaultblob/internal/client/models"
	"github.com/dmitrijs2005/vaultblob/internal/client/native"
	"github.com/dmitrijs2005/vaultblob/internal/client/services"
	"github.com/dmitrijs2005/vaultblob/internal/client/sessionkey"
	"github.com/dmitrijs2005/vaultblob/internal/client/suspension"
	"github.com/dmitrijs2005/vaultblob/internal/client/tokens"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
)

type vault interface {
	Unlock(ctx context.Context, password []byte) ([]byte, error)
}

type library interface {
	Put(ctx context.Context, name string, data []byte) (*models.BlobRecord, error)
	Get(ctx context.Context, blobID string) (*models.BlobRecord, []byte, error)
	List(ctx context.Context) ([]*models.BlobRecord, error)
	PutNative(ctx context.Context, path, name string, size int64) (*models.BlobRecord, error)
	GetNative(ctx context.Context, fileDataID string) (models.FileReference, error)
	ClearTemp(ctx context.Context) error
	Forget(ctx context.Context, blobID string) error
}

type App struct {
	config     *config.Config
	mode       services.Mode
	vault      vault
	library    library
	keyring    *vaultKeyring
	suspension *suspension.Controller
	log        logging.Logger
	reader     *bufio.Reader
	out        io.Writer
	closers    []func() error
}

// NewApp wires the local database, the REST client, the transfer engine
// and, in app or desktop mode, the native file bridge.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	mode, err := services.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	if c.AccessToken == "" {
		return nil, errors.New("access token is required (-k)")
	}
	session, err := auth.NewSession(c.AccessToken)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:  c,
		mode:    mode,
		keyring: &vaultKeyring{ttl: c.KeyCacheTTL},
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	app.onClose(db.Close)
	app.onClose(func() error { app.keyring.lock(); return nil })

	opts := []suspension.Option{suspension.WithLogger(log)}
	if c.OrderedReplay {
		opts = append(opts, suspension.WithOrderedReplay())
	}
	app.suspension = suspension.NewController(opts...)

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	rest := client.NewRestClient(c.ServerURL, httpClient, app.suspension, log)
	exec := client.NewServiceExecutor(rest, session)

	var bridge native.FileBridge
	if mode.IsNative() {
		b, closeBridge, err := openBridge(ctx, c, httpClient, log)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("native bridge: %w", err)
		}
		bridge = b
		app.onClose(closeBridge)
	}

	files := services.NewFileService(services.FileServiceConfig{
		Rest:       rest,
		Executor:   exec,
		Tokens:     tokens.NewBroker(exec),
		Keys:       sessionkey.NewResolver(app.keyring),
		Auth:       session,
		Suspension: app.suspension,
		Logger:     log,
		Mode:       mode,
		Bridge:     bridge,
	})

	app.vault = services.NewVaultService(db)
	app.library = services.NewLibrary(files, client.NewRepositories(db).BlobRefs, app.keyring, session)
	return app, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases everything NewApp opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isUnlocked() bool {
	return a.keyring.unlocked()
}

func (a *App) getStatus() string {
	s := string(a.mode)
	if a.isUnlocked() {
		s += " unlocked"
	} else {
		s += " locked"
	}
	if a.suspension != nil && a.suspension.IsSuspended() {
		s += " suspended"
	}
	return "(" + s + ")"
}

// Run starts the REPL on stdin and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to vaultblob (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
