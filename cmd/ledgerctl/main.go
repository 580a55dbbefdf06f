// Command ledgerctl opera el ledger de inventario desde la terminal:
// migraciones, movimientos, consultas de saldo, capacidad y kardex.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(newEnv()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
