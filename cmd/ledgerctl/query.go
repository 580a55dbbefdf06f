package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newStockCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Consultar saldos",
	}
	var itemID, locationID string
	show := &cobra.Command{
		Use:   "show",
		Short: "Saldo de un ítem en una ubicación",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.Query.GetStock(cmd.Context(), ws, itemID, locationID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	show.Flags().StringVar(&itemID, "item", "", "ID del ítem")
	show.Flags().StringVar(&locationID, "location", "", "ID de la ubicación")
	_ = show.MarkFlagRequired("item")
	_ = show.MarkFlagRequired("location")
	cmd.AddCommand(show)
	return cmd
}

func newCapacityCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Ocupación y admisión de ubicaciones",
	}

	var statsLocation string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Ocupación de una ubicación y sus descendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.Capacity.GetCapacityStats(cmd.Context(), ws, statsLocation)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	stats.Flags().StringVar(&statsLocation, "location", "", "ID de la ubicación")
	_ = stats.MarkFlagRequired("location")

	var (
		req      inventory.CapacityRequest
		quantity string
	)
	check := &cobra.Command{
		Use:   "check",
		Short: "Evalúa si la ubicación admite una cantidad, sin reservarla",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			qty, err := decimal.NewFromString(strings.TrimSpace(quantity))
			if err != nil || !qty.IsPositive() {
				return fmt.Errorf("%w: cantidad inválida %q", domain.ErrInvalidInput, quantity)
			}
			req.WorkspaceID = ws
			req.Quantity = qty
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.Capacity.CanAcceptStock(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	check.Flags().StringVar(&req.LocationID, "location", "", "ID de la ubicación")
	check.Flags().StringVarP(&quantity, "qty", "q", "", "cantidad a admitir")
	check.Flags().StringVar(&req.ItemID, "item", "", "ID del ítem")
	check.Flags().StringVar(&req.ItemType, "item-type", "", "tipo de ítem; si falta se consulta el catálogo")
	check.Flags().StringVar(&req.LotID, "lot-id", "", "ID del lote entrante")
	_ = check.MarkFlagRequired("location")
	_ = check.MarkFlagRequired("qty")

	cmd.AddCommand(stats, check)
	return cmd
}

func newKardexCommand(env *cliEnv) *cobra.Command {
	var itemID, locationID, from, to, out string
	cmd := &cobra.Command{
		Use:   "kardex",
		Short: "Genera el kardex en PDF de un ítem",
		Long: `Genera el kardex (saldo inicial, entradas, salidas y saldo corrido) de un ítem
en una ubicación, opcionalmente limitado a un rango de fechas. Sin --out el archivo
se escribe en el directorio actual con el nombre sugerido.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			fromT, err := parseDay(from, false)
			if err != nil {
				return err
			}
			toT, err := parseDay(to, true)
			if err != nil {
				return err
			}
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				pdf, filename, err := svc.Reports.GenerateKardex(cmd.Context(), ws, itemID, locationID, fromT, toT)
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = filename
				}
				if err := os.WriteFile(filepath.Clean(path), pdf, 0o644); err != nil {
					return fmt.Errorf("escribir kardex: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "ID del ítem")
	cmd.Flags().StringVar(&locationID, "location", "", "ID de la ubicación")
	cmd.Flags().StringVar(&from, "from", "", "desde (YYYY-MM-DD o RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "hasta, inclusive")
	cmd.Flags().StringVarP(&out, "out", "o", "", "ruta del PDF")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}
