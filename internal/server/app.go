// Package server assembles the dbfiles server: it opens the record store and
// the mirror, builds the storage facade and runs the gRPC API next to the
// HTTP byte endpoint until a termination signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/dbfiles/internal/logging"
	"github.com/dmitrijs2005/dbfiles/internal/server/config"
	"github.com/dmitrijs2005/dbfiles/internal/server/mirror"
	"github.com/dmitrijs2005/dbfiles/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dbfiles/internal/server/services"

	gs "github.com/dmitrijs2005/dbfiles/internal/server/grpc"
	hs "github.com/dmitrijs2005/dbfiles/internal/server/http"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *repomanager.Store
	storage *services.Storage
}

// NewMirror opens the mirror backend selected by c. It returns nil, nil when
// no backend is configured.
func NewMirror(ctx context.Context, c *config.Config) (*mirror.Mirror, error) {
	switch c.MirrorBackend {
	case "":
		return nil, nil
	case config.MirrorLocal:
		b, err := mirror.NewLocal(c.MirrorRoot)
		if err != nil {
			return nil, fmt.Errorf("mirror init error: %w", err)
		}
		return mirror.New(b), nil
	case config.MirrorS3:
		b, err := mirror.NewS3FromOptions(ctx, mirror.S3Options{
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
			Region:       c.S3Region,
			Endpoint:     c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			UsePathStyle: c.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("mirror init error: %w", err)
		}
		return mirror.New(b), nil
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", c.MirrorBackend)
	}
}

// OpenStorage opens the record store and mirror described by c and returns
// the facade over them together with the store handle to close on exit.
func OpenStorage(ctx context.Context, c *config.Config, l logging.Logger) (*services.Storage, *repomanager.Store, error) {
	store, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, l)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	m, err := NewMirror(ctx, c)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	s := services.NewStorage(store.Files, m, services.Options{
		MirrorEnabled: c.MirrorEnabled,
		URLFunc:       services.PrefixURL(c.URLPrefix),
		Logger:        l.With("module", "storage"),
	})
	return s, store, nil
}

// NewApp validates c and opens every backend the server needs.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:      c.LogLevel,
		FilePath:   c.LogFilePath,
		MaxSize:    c.LogMaxSize,
		MaxBackups: c.LogMaxBackups,
		Compress:   c.LogCompress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	storage, store, err := OpenStorage(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, store: store, storage: storage}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.storage,
		app.config.SecretKey, app.config.MaxMessageSize)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := hs.NewServer(app.config.EndpointAddrHTTP, app.config.URLPrefix, app.storage, app.logger)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the record store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"driver", app.config.DatabaseDriver,
		"mirror", app.config.MirrorBackend,
		"mirror_enabled", app.config.MirrorEnabled)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrHTTP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(context.Background(), "Stopped")
	return app.close()
}

func (app *App) close() error {
	if err := app.store.Close(); err != nil {
		return errors.Join(errors.New("db close error"), err)
	}
	return nil
}
