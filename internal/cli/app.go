// Package cli implements the dbfiles admin command line. Commands run against
// a local storage built from the server configuration or, with --remote,
// against a running server over gRPC.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmitrijs2005/dbfiles/internal/client"
	"github.com/dmitrijs2005/dbfiles/internal/logging"
	"github.com/dmitrijs2005/dbfiles/internal/server"
	"github.com/dmitrijs2005/dbfiles/internal/server/auth"
	"github.com/dmitrijs2005/dbfiles/internal/server/config"
	"github.com/dmitrijs2005/dbfiles/internal/server/models"
	"github.com/dmitrijs2005/dbfiles/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dbfiles/internal/server/services"
)

// TokenEnvVar is consulted when --token is not given.
const TokenEnvVar = "DBFILES_TOKEN"

var errRemoteUnsupported = errors.New("command needs direct storage access and cannot run with --remote")

// FileStore is the set of operations available both locally and remotely.
type FileStore interface {
	Open(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, content []byte) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	URL(ctx context.Context, name string) (string, error)
	Size(ctx context.Context, name string) (int64, error)
	Close() error
}

// localStore adapts services.Storage to FileStore and adds the catalog
// operations only a local storage offers.
type localStore struct {
	s     *services.Storage
	store *repomanager.Store
}

func (l *localStore) Open(ctx context.Context, name string) ([]byte, error) {
	f, err := l.s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (l *localStore) Save(ctx context.Context, name string, content []byte) (string, error) {
	return l.s.Save(ctx, name, services.NewFile(name, content))
}

func (l *localStore) Exists(ctx context.Context, name string) (bool, error) {
	return l.s.Exists(ctx, name)
}

func (l *localStore) Delete(ctx context.Context, name string) error {
	return l.s.Delete(ctx, name)
}

func (l *localStore) URL(_ context.Context, name string) (string, error) {
	return l.s.URL(name), nil
}

func (l *localStore) Size(ctx context.Context, name string) (int64, error) {
	return l.s.Size(ctx, name)
}

func (l *localStore) List(ctx context.Context, prefix string) ([]*models.FileInfo, error) {
	return l.s.List(ctx, prefix)
}

func (l *localStore) Dump(ctx context.Context) (int, error) { return l.s.Dump(ctx) }
func (l *localStore) Load(ctx context.Context) (int, error) { return l.s.Load(ctx) }

func (l *localStore) Close() error { return l.store.Close() }

var (
	_ FileStore = (*localStore)(nil)
	_ FileStore = (*client.GRPCClient)(nil)
)

type App struct {
	configPath string
	remote     string
	token      string
	verbose    bool

	isTerminal func(w io.Writer) bool
}

func NewApp() *App {
	return &App{isTerminal: isTerminal}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.FromFile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (a *App) logger(w io.Writer) logging.Logger {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelInfo
	}
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (a *App) openLocal(cmd *cobra.Command) (*localStore, error) {
	if a.remote != "" {
		return nil, errRemoteUnsupported
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	s, store, err := server.OpenStorage(cmd.Context(), cfg, a.logger(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}
	return &localStore{s: s, store: store}, nil
}

func (a *App) openStore(cmd *cobra.Command) (FileStore, error) {
	if a.remote == "" {
		l, err := a.openLocal(cmd)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	token := a.token
	if token == "" {
		token = os.Getenv(TokenEnvVar)
	}
	if token == "" {
		token, err = auth.GenerateToken("dbfiles-cli", []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
		if err != nil {
			return nil, err
		}
	}

	c, err := client.NewGRPCClient(a.remote, token, cfg.MaxMessageSize)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", a.remote, err)
	}
	return c, nil
}

// Command builds the root command with every subcommand attached.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "dbfiles",
		Short: "Manage files stored in the dbfiles record store",
		Long: `Manage files stored in the dbfiles record store.

Commands use the server configuration (--config or $DBFILES_CONFIG) to open
the record store and mirror directly. With --remote they talk to a running
server instead; ls, dump, load and migrate need direct access.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "server JSON config file")
	pf.StringVar(&a.remote, "remote", "", "gRPC address of a running server")
	pf.StringVar(&a.token, "token", "", "access token for --remote writes (default $"+TokenEnvVar+")")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log storage activity to stderr")

	root.AddCommand(
		a.migrateCmd(),
		a.putCmd(),
		a.getCmd(),
		a.rmCmd(),
		a.statCmd(),
		a.existsCmd(),
		a.urlCmd(),
		a.lsCmd(),
		a.dumpCmd(),
		a.loadCmd(),
		a.tokenCmd(),
	)
	return root
}

// Execute runs the command line in args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.Command()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
