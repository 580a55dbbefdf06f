package main

import (
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(env *cliEnv) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Crea las tablas del ledger si no existen",
		Long: `Aplica el esquema embebido del ledger. Es idempotente.
Con --print solo escribe el DDL en la salida estándar.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema())
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), env.cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.ApplySchema(cmd.Context(), pool); err != nil {
				return err
			}
			env.log.Info().Msg("esquema aplicado")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "imprimir el DDL sin conectarse")
	return cmd
}
