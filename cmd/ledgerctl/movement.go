package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// errRejected el motor rechazó la operación; el detalle ya se imprimió.
var errRejected = errors.New("operación rechazada por el ledger")

// movementFlags flags comunes a process y validate.
type movementFlags struct {
	movementType       string
	itemID             string
	locationID         string
	quantity           string
	lotNumber          string
	expires            string
	sourceLocation     string
	destLocation       string
	referenceType      string
	referenceID        string
	reason             string
	createdBy          string
	consumeReservation bool
}

func (f *movementFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.movementType, "type", "t", "", "tipo de movimiento (RECEIPT, SHIPMENT, RESERVE...)")
	cmd.Flags().StringVar(&f.itemID, "item", "", "ID del ítem")
	cmd.Flags().StringVar(&f.locationID, "location", "", "ID de la ubicación")
	cmd.Flags().StringVarP(&f.quantity, "qty", "q", "", "cantidad (magnitud positiva)")
	cmd.Flags().StringVar(&f.lotNumber, "lot", "", "número de lote")
	cmd.Flags().StringVar(&f.expires, "expires", "", "vencimiento del lote (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.sourceLocation, "source", "", "ubicación origen (TRANSFER_IN)")
	cmd.Flags().StringVar(&f.destLocation, "destination", "", "ubicación destino (TRANSFER_OUT)")
	cmd.Flags().StringVar(&f.referenceType, "reference-type", "", "tipo de documento de referencia")
	cmd.Flags().StringVar(&f.referenceID, "reference-id", "", "ID del documento de referencia")
	cmd.Flags().StringVar(&f.reason, "reason", "", "motivo")
	cmd.Flags().StringVar(&f.createdBy, "user", "ledgerctl", "usuario que registra el movimiento")
	cmd.Flags().BoolVar(&f.consumeReservation, "consume-reservation", false, "la salida consume stock reservado")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("qty")
}

func (f *movementFlags) build(env *cliEnv) (*entity.Movement, error) {
	ws, err := env.requireWorkspace()
	if err != nil {
		return nil, err
	}
	mt, err := entity.ParseMovementType(f.movementType)
	if err != nil {
		return nil, err
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(f.quantity))
	if err != nil {
		return nil, fmt.Errorf("%w: cantidad inválida %q", domain.ErrInvalidInput, f.quantity)
	}
	expires, err := parseDay(f.expires, false)
	if err != nil {
		return nil, err
	}
	var metadata map[string]any
	if f.consumeReservation {
		metadata = map[string]any{inventory.MetadataConsumeReservation: true}
	}
	return entity.NewMovement(entity.MovementInput{
		WorkspaceID:           ws,
		Type:                  mt,
		ItemID:                f.itemID,
		LocationID:            f.locationID,
		Quantity:              qty,
		LotNumber:             f.lotNumber,
		ExpirationDate:        expires,
		SourceLocationID:      f.sourceLocation,
		DestinationLocationID: f.destLocation,
		ReferenceType:         f.referenceType,
		ReferenceID:           f.referenceID,
		Reason:                f.reason,
		Metadata:              metadata,
		CreatedBy:             f.createdBy,
	}, env.now())
}

func newMovementCommand(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movement",
		Short: "Registrar, validar y consultar movimientos",
	}
	cmd.AddCommand(newMovementProcessCommand(env))
	cmd.AddCommand(newMovementValidateCommand(env))
	cmd.AddCommand(newMovementListCommand(env))
	cmd.AddCommand(newMovementGetCommand(env))
	return cmd
}

func newMovementProcessCommand(env *cliEnv) *cobra.Command {
	var flags movementFlags
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Aplica un movimiento al saldo",
		Long: `Valida y aplica un movimiento de forma atómica. Si el ledger lo rechaza,
el movimiento queda registrado como FAILED y el comando termina con error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := flags.build(env)
			if err != nil {
				return err
			}
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				res, err := svc.Movements.Process(cmd.Context(), m)
				if err != nil {
					return err
				}
				if !res.Success {
					if err := svc.Movements.RecordFailure(cmd.Context(), m, res.Validation); err != nil {
						env.log.Error().Err(err).Str("movement_id", m.ID).Msg("no se pudo registrar el rechazo")
					}
					mv := inventory.ToMovementResponse(m)
					if err := printJSON(cmd.OutOrStdout(), dto.ValidationFailedResponse{
						Code:     "VALIDATION_FAILED",
						Message:  "movimiento rechazado",
						Errors:   inventory.ToValidationErrors(res.Validation),
						Movement: &mv,
					}); err != nil {
						return err
					}
					return errRejected
				}
				return printJSON(cmd.OutOrStdout(), inventory.ToProcessResultResponse(res))
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newMovementValidateCommand(env *cliEnv) *cobra.Command {
	var flags movementFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Evalúa un movimiento sin aplicarlo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := flags.build(env)
			if err != nil {
				return err
			}
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				v, err := svc.Movements.Validate(cmd.Context(), m)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.ValidationResponse{Valid: v.IsValid(), Errors: inventory.ToValidationErrors(v)})
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newMovementListCommand(env *cliEnv) *cobra.Command {
	var (
		criteria   repository.MovementCriteria
		typeFilter string
		status     string
		from, to   string
		desc       bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Consulta el ledger con filtros y paginación",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			criteria.WorkspaceID = ws
			criteria.SortDesc = desc
			if typeFilter != "" {
				if criteria.Type, err = entity.ParseMovementType(typeFilter); err != nil {
					return err
				}
			}
			if status != "" {
				criteria.Status = entity.MovementStatus(strings.ToUpper(status))
				if !criteria.Status.IsValid() {
					return fmt.Errorf("%w: status inválido %q", domain.ErrInvalidInput, status)
				}
			}
			if criteria.From, err = parseDay(from, false); err != nil {
				return err
			}
			if criteria.To, err = parseDay(to, true); err != nil {
				return err
			}
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.Query.SearchMovements(cmd.Context(), criteria)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&criteria.ItemID, "item", "", "filtrar por ítem")
	cmd.Flags().StringVar(&criteria.LocationID, "location", "", "filtrar por ubicación")
	cmd.Flags().StringVar(&criteria.LotID, "lot-id", "", "filtrar por lote")
	cmd.Flags().StringVar(&criteria.ReferenceID, "reference-id", "", "filtrar por documento de referencia")
	cmd.Flags().StringVarP(&typeFilter, "type", "t", "", "filtrar por tipo")
	cmd.Flags().StringVar(&status, "status", "", "filtrar por estado (COMPLETED, FAILED...)")
	cmd.Flags().StringVar(&from, "from", "", "desde (YYYY-MM-DD o RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "hasta, inclusive")
	cmd.Flags().IntVar(&criteria.Limit, "limit", 0, "tamaño de página")
	cmd.Flags().IntVar(&criteria.Offset, "offset", 0, "desplazamiento")
	cmd.Flags().BoolVar(&desc, "desc", false, "más recientes primero")
	return cmd
}

func newMovementGetCommand(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "get <movement-id>",
		Short: "Muestra un movimiento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				out, err := svc.Query.GetMovement(cmd.Context(), ws, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newTransferCommand(env *cliEnv) *cobra.Command {
	var (
		in       inventory.TransferInput
		quantity string
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Traslada stock entre dos ubicaciones en una sola transacción",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := env.requireWorkspace()
			if err != nil {
				return err
			}
			qty, err := decimal.NewFromString(strings.TrimSpace(quantity))
			if err != nil || !qty.IsPositive() {
				return fmt.Errorf("%w: cantidad inválida %q", domain.ErrInvalidInput, quantity)
			}
			in.WorkspaceID = ws
			in.Quantity = qty
			return env.withServices(cmd.Context(), func(svc *bootstrap.Services) error {
				res, err := svc.Movements.ProcessTransfer(cmd.Context(), in)
				if err != nil {
					return err
				}
				out := dto.TransferResultResponse{Success: res.Success}
				if res.Out != nil {
					r := inventory.ToProcessResultResponse(res.Out)
					out.Out = &r
				}
				if res.In != nil {
					r := inventory.ToProcessResultResponse(res.In)
					out.In = &r
				}
				if err := printJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				if !res.Success {
					return errRejected
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.ItemID, "item", "", "ID del ítem")
	cmd.Flags().StringVar(&in.FromLocationID, "from", "", "ubicación origen")
	cmd.Flags().StringVar(&in.ToLocationID, "to", "", "ubicación destino")
	cmd.Flags().StringVarP(&quantity, "qty", "q", "", "cantidad")
	cmd.Flags().StringVar(&in.LotNumber, "lot", "", "número de lote")
	cmd.Flags().StringVar(&in.Reason, "reason", "", "motivo")
	cmd.Flags().StringVar(&in.ExternalReferenceID, "reference-id", "", "referencia compartida por ambas patas")
	cmd.Flags().StringVar(&in.CreatedBy, "user", "ledgerctl", "usuario que registra el traslado")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}
