package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/spf13/cobra"
)

// Version se fija con -ldflags.
var Version = "dev"

// cliEnv estado compartido entre comandos. openServices se reemplaza en tests.
type cliEnv struct {
	cfg          *config.Config
	log          *logger.Logger
	workspaceID  string
	now          func() time.Time
	openServices func(ctx context.Context, env *cliEnv) (*bootstrap.Services, func(), error)
}

func newEnv() *cliEnv {
	return &cliEnv{now: time.Now, openServices: openPostgresServices}
}

func openPostgresServices(ctx context.Context, env *cliEnv) (*bootstrap.Services, func(), error) {
	pool, err := postgres.NewPool(ctx, env.cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return bootstrap.NewPostgresServices(pool, env.cfg.Ledger, env.log), pool.Close, nil
}

func newRootCommand(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operaciones sobre el ledger de inventario",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `ledgerctl opera el ledger de inventario contra la base configurada
(DATABASE_URL o DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME).

Ejemplos:
  ledgerctl migrate
  ledgerctl -w ws-1 movement process --type RECEIPT --item it-1 --location loc-1 --qty 10
  ledgerctl -w ws-1 stock show --item it-1 --location loc-1
  ledgerctl -w ws-1 kardex --item it-1 --location loc-1 --out kardex.pdf`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if env.cfg == nil {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				env.cfg = cfg
			}
			if env.log == nil {
				env.log = logger.New(logger.Config{
					Env:     env.cfg.App.Env,
					Level:   env.cfg.App.LogLevel,
					Service: "ledgerctl",
					Out:     cmd.ErrOrStderr(),
				})
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&env.workspaceID, "workspace", "w", "", "workspace sobre el que se opera")

	root.AddCommand(newMigrateCommand(env))
	root.AddCommand(newMovementCommand(env))
	root.AddCommand(newTransferCommand(env))
	root.AddCommand(newStockCommand(env))
	root.AddCommand(newCapacityCommand(env))
	root.AddCommand(newKardexCommand(env))
	root.AddCommand(newTokenCommand(env))
	root.AddCommand(newOpenAPICommand())
	return root
}

// withServices abre los servicios, ejecuta fn y libera la conexión.
func (env *cliEnv) withServices(ctx context.Context, fn func(*bootstrap.Services) error) error {
	svc, closeFn, err := env.openServices(ctx, env)
	if err != nil {
		return fmt.Errorf("conectar al ledger: %w", err)
	}
	defer closeFn()
	return fn(svc)
}

func (env *cliEnv) requireWorkspace() (string, error) {
	ws := strings.TrimSpace(env.workspaceID)
	if ws == "" {
		return "", fmt.Errorf("%w: --workspace es obligatorio", domain.ErrInvalidInput)
	}
	return ws, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDay acepta RFC3339 o YYYY-MM-DD; endOfDay lleva la fecha corta al último instante del día.
func parseDay(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha inválida %q", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
