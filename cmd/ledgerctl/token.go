package main

import (
	"fmt"

	_ "github.com/jhoicas/stock-ledger/docs"
	"github.com/jhoicas/stock-ledger/internal/domain"
	httpapi "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/spf13/cobra"
	"github.com/swaggo/swag"
)

// newTokenCommand emite un JWT firmado con JWT_SECRET para pruebas locales contra la API.
func newTokenCommand(env *cliEnv) *cobra.Command {
	var userID, role string
	var ttl int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un token de acceso para la API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			switch role {
			case httpapi.RoleAdmin, httpapi.RoleBodeguero, httpapi.RoleAuditor:
			default:
				return fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, role)
			}
			if ttl <= 0 {
				ttl = env.cfg.JWT.Expiration
			}
			token, err := jwt.Generate(env.cfg.JWT.Secret, userID, ws, role, env.cfg.JWT.Issuer, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "ledgerctl", "sujeto del token")
	cmd.Flags().StringVar(&role, "role", "admin", "rol: admin, bodeguero o auditor")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	return cmd
}

func newOpenAPICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "openapi",
		Short: "Imprime el documento OpenAPI de la API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := swag.ReadDoc()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), doc)
			return err
		},
	}
}
