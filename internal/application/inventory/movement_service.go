package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MetadataConsumeReservation marca un movimiento de salida que consume stock
// previamente reservado (p. ej. despacho de un pedido reservado).
const MetadataConsumeReservation = "consume_reservation"

// errRejected fuerza el Rollback cuando la validación dentro de la tx falla.
var errRejected = errors.New("movimiento rechazado")

// ProcessResult resultado auditable de aplicar un movimiento.
type ProcessResult struct {
	Success          bool
	Movement         *entity.Movement
	StockItem        *entity.StockItem
	PreviousBalance  decimal.Decimal
	NewBalance       decimal.Decimal
	Delta            decimal.Decimal
	PreviousReserved decimal.Decimal
	NewReserved      decimal.Decimal
	Validation       inventory.ValidationResult
}

// Errors mensajes de las reglas violadas (vacío si Success).
func (r *ProcessResult) Errors() []string { return r.Validation.Messages() }

// TransferInput traslado entre dos ubicaciones: TRANSFER_OUT en origen y TRANSFER_IN en destino.
type TransferInput struct {
	WorkspaceID         string
	ItemID              string
	FromLocationID      string
	ToLocationID        string
	Quantity            decimal.Decimal
	LotNumber           string
	Reason              string
	CreatedBy           string
	Metadata            map[string]any
	ExternalReferenceID string
}

// TransferResult ambas patas de un traslado; Success solo si las dos se aplicaron.
type TransferResult struct {
	Success bool
	Out     *ProcessResult
	In      *ProcessResult
}

// MovementService orquesta validación, mutación del saldo y persistencia de movimientos.
// Cada movimiento se aplica en una sola transacción con bloqueo de fila (SELECT FOR UPDATE)
// sobre el StockItem.
type MovementService struct {
	txRunner TxRunner
	stocks   repository.StockItemRepository
	lots     repository.LotRepository
	capacity *CapacityService // opcional
	log      zerolog.Logger
	now      func() time.Time
}

// MovementServiceOption ajustes opcionales del servicio.
type MovementServiceOption func(*MovementService)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) MovementServiceOption {
	return func(s *MovementService) { s.now = now }
}

// NewMovementService construye el servicio. stocks y lots se usan para Validate (lecturas
// sin bloqueo); dentro de Process se usan los repositorios atados a la tx.
func NewMovementService(
	txRunner TxRunner,
	stocks repository.StockItemRepository,
	lots repository.LotRepository,
	capacity *CapacityService,
	log zerolog.Logger,
	opts ...MovementServiceOption,
) *MovementService {
	s := &MovementService{
		txRunner: txRunner,
		stocks:   stocks,
		lots:     lots,
		capacity: capacity,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate ejecuta todas las reglas y acumula las violaciones; no tiene efectos secundarios.
// Solo devuelve error ante fallos de almacenamiento.
func (s *MovementService) Validate(ctx context.Context, m *entity.Movement) (inventory.ValidationResult, error) {
	stock, err := s.stocks.FindByItemAndLocation(ctx, m.WorkspaceID, m.ItemID, m.LocationID)
	if err != nil {
		return inventory.ValidationResult{}, fmt.Errorf("get stock item: %w", err)
	}
	return s.check(ctx, m, sameWorkspace(stock, m.WorkspaceID), s.lots, s.capacity)
}

// Process valida y aplica el movimiento. Un rechazo de negocio se devuelve como
// ProcessResult{Success:false} sin tocar el estado persistido; error solo para fallos
// inesperados (almacenamiento, agregado ausente tras validar).
func (s *MovementService) Process(ctx context.Context, m *entity.Movement) (*ProcessResult, error) {
	var result *ProcessResult
	snapshot := *m
	err := s.txRunner.Run(ctx, func(tx TxStores) error {
		if m.Type.IsInbound() && m.IsProcessable() {
			if err := tx.Locker.LockLocation(ctx, m.LocationID); err != nil {
				return fmt.Errorf("lock location: %w", err)
			}
		}
		stock, err := tx.Stocks.FindByItemAndLocationForUpdate(ctx, m.WorkspaceID, m.ItemID, m.LocationID)
		if err != nil {
			return fmt.Errorf("get stock item for update: %w", err)
		}
		res, err := s.applyInTx(ctx, tx, m, sameWorkspace(stock, m.WorkspaceID))
		if err != nil {
			return err
		}
		result = res
		if !res.Success {
			return errRejected
		}
		return nil
	})
	if errors.Is(err, errRejected) {
		s.log.Warn().
			Str("movement_id", m.ID).
			Str("type", m.Type.String()).
			Str("item_id", m.ItemID).
			Str("location_id", m.LocationID).
			Str("workspace_id", m.WorkspaceID).
			Strs("errors", result.Errors()).
			Msg("movimiento rechazado")
		return result, nil
	}
	if err != nil {
		// Nada se persistió: el movimiento vuelve a su estado previo.
		*m = snapshot
		return nil, err
	}
	s.log.Info().
		Str("movement_id", m.ID).
		Str("type", m.Type.String()).
		Str("item_id", m.ItemID).
		Str("location_id", m.LocationID).
		Str("workspace_id", m.WorkspaceID).
		Str("previous_balance", result.PreviousBalance.String()).
		Str("new_balance", result.NewBalance.String()).
		Msg("movimiento aplicado")
	return result, nil
}

// ProcessTransfer aplica ambas patas de un traslado en una sola transacción:
// o se completan las dos o ninguna.
func (s *MovementService) ProcessTransfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.FromLocationID == "" || in.ToLocationID == "" || in.FromLocationID == in.ToLocationID {
		return nil, fmt.Errorf("%w: origen y destino deben ser distintos", domain.ErrInvalidInput)
	}
	now := s.now()
	refID := in.ExternalReferenceID
	out, err := entity.NewMovement(entity.MovementInput{
		WorkspaceID:           in.WorkspaceID,
		Type:                  entity.MovementTypeTransferOut,
		ItemID:                in.ItemID,
		LocationID:            in.FromLocationID,
		Quantity:              in.Quantity,
		LotNumber:             in.LotNumber,
		SourceLocationID:      in.FromLocationID,
		DestinationLocationID: in.ToLocationID,
		ReferenceType:         "transfer",
		ReferenceID:           refID,
		Reason:                in.Reason,
		Metadata:              in.Metadata,
		CreatedBy:             in.CreatedBy,
	}, now)
	if err != nil {
		return nil, err
	}
	if refID == "" {
		refID = out.ID
		out.ReferenceID = refID
	}
	inMov, err := entity.NewMovement(entity.MovementInput{
		WorkspaceID:           in.WorkspaceID,
		Type:                  entity.MovementTypeTransferIn,
		ItemID:                in.ItemID,
		LocationID:            in.ToLocationID,
		Quantity:              in.Quantity,
		LotNumber:             in.LotNumber,
		SourceLocationID:      in.FromLocationID,
		DestinationLocationID: in.ToLocationID,
		ReferenceType:         "transfer",
		ReferenceID:           refID,
		Reason:                in.Reason,
		Metadata:              in.Metadata,
		CreatedBy:             in.CreatedBy,
	}, now)
	if err != nil {
		return nil, err
	}

	result := &TransferResult{}
	outSnapshot, inSnapshot := *out, *inMov
	err = s.txRunner.Run(ctx, func(tx TxStores) error {
		if err := tx.Locker.LockLocation(ctx, inMov.LocationID); err != nil {
			return fmt.Errorf("lock location: %w", err)
		}
		// Filas bloqueadas en orden de ubicación para evitar deadlocks entre traslados cruzados.
		legs := []*entity.Movement{out, inMov}
		order := []*entity.Movement{out, inMov}
		sort.Slice(order, func(i, j int) bool { return order[i].LocationID < order[j].LocationID })
		locked := map[string]*entity.StockItem{}
		for _, m := range order {
			stock, err := tx.Stocks.FindByItemAndLocationForUpdate(ctx, m.WorkspaceID, m.ItemID, m.LocationID)
			if err != nil {
				return fmt.Errorf("get stock item for update: %w", err)
			}
			locked[m.LocationID] = sameWorkspace(stock, m.WorkspaceID)
		}
		for i, m := range legs {
			res, err := s.applyInTx(ctx, tx, m, locked[m.LocationID])
			if err != nil {
				return err
			}
			if i == 0 {
				result.Out = res
			} else {
				result.In = res
			}
			if !res.Success {
				return errRejected
			}
		}
		return nil
	})
	if errors.Is(err, errRejected) {
		s.log.Warn().
			Str("reference_id", refID).
			Str("item_id", in.ItemID).
			Str("from", in.FromLocationID).
			Str("to", in.ToLocationID).
			Msg("traslado rechazado")
		// La pata de salida pudo completarse en memoria antes de que la de entrada fallara.
		*out, *inMov = outSnapshot, inSnapshot
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Success = true
	s.log.Info().
		Str("reference_id", refID).
		Str("item_id", in.ItemID).
		Str("from", in.FromLocationID).
		Str("to", in.ToLocationID).
		Str("quantity", in.Quantity.String()).
		Msg("traslado aplicado")
	return result, nil
}

// RecordFailure persiste un movimiento rechazado en estado FAILED para auditoría.
// No toca saldos.
func (s *MovementService) RecordFailure(ctx context.Context, m *entity.Movement, validation inventory.ValidationResult) error {
	if err := m.Fail(validation.Summary()); err != nil {
		return err
	}
	return s.txRunner.Run(ctx, func(tx TxStores) error {
		return tx.Movements.Save(ctx, m)
	})
}

// applyInTx valida contra el saldo bloqueado y, si procede, aplica y persiste.
func (s *MovementService) applyInTx(ctx context.Context, tx TxStores, m *entity.Movement, stock *entity.StockItem) (*ProcessResult, error) {
	capacity := s.capacity
	if capacity != nil {
		capacity = capacity.withStocks(tx.Stocks)
	}
	validation, err := s.check(ctx, m, stock, tx.Lots, capacity)
	if err != nil {
		return nil, err
	}
	if !validation.IsValid() {
		return &ProcessResult{Success: false, Movement: m, StockItem: stock, Validation: validation}, nil
	}

	now := s.now()

	// Lote: se busca por número; solo un movimiento de entrada lo materializa.
	if m.LotNumber != "" && m.LotID == "" {
		lot, err := tx.Lots.FindByLotNumber(ctx, m.WorkspaceID, m.ItemID, m.LotNumber)
		if err != nil {
			return nil, fmt.Errorf("find lot: %w", err)
		}
		if lot == nil && m.Type.IsInbound() {
			created := entity.NewLotFromMovement(m, now)
			if err := tx.Lots.Save(ctx, created); err != nil {
				return nil, fmt.Errorf("save lot: %w", err)
			}
			lot = &created
		}
		if lot != nil {
			m.LotID = lot.ID
		}
	}

	var current entity.StockItem
	persistStock := true
	switch {
	case stock != nil:
		current = *stock
	case m.Type.IsInbound():
		current = entity.NewStockItem(m.WorkspaceID, m.ItemID, m.LocationID, now)
		current.LotID = m.LotID
		current.ExpirationDate = m.ExpirationDate
	case m.Type.IsNeutral():
		// Conteo/reubicación sobre un par sin saldo: queda en el ledger con saldo cero.
		current = entity.NewStockItem(m.WorkspaceID, m.ItemID, m.LocationID, now)
		persistStock = false
	default:
		return nil, fmt.Errorf("%w: stock item ausente para movimiento %s (%s) tras validar", domain.ErrInsufficientStock, m.ID, m.Type)
	}

	previous := current
	next, err := applyEffect(current, m)
	if err != nil {
		// La validación ya cubrió estos casos; si llega aquí es una condición inesperada.
		return nil, fmt.Errorf("apply movement %s: %w", m.ID, err)
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("apply movement %s: %w", m.ID, err)
	}
	next.UpdatedAt = now

	if err := m.WithBalanceAfter(next.Quantity); err != nil {
		return nil, err
	}
	if err := m.Complete(now); err != nil {
		return nil, err
	}

	if persistStock && !m.Type.IsNeutral() {
		if err := tx.Stocks.Save(ctx, next); err != nil {
			return nil, fmt.Errorf("save stock item: %w", err)
		}
	}
	if err := tx.Movements.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save movement: %w", err)
	}

	return &ProcessResult{
		Success:          true,
		Movement:         m,
		StockItem:        &next,
		PreviousBalance:  previous.Quantity,
		NewBalance:       next.Quantity,
		Delta:            next.Quantity.Sub(previous.Quantity),
		PreviousReserved: previous.ReservedQuantity,
		NewReserved:      next.ReservedQuantity,
		Validation:       validation,
	}, nil
}

// applyEffect despacho fijo por tipo: entrada, salida, reserva, liberación o neutro.
func applyEffect(stock entity.StockItem, m *entity.Movement) (entity.StockItem, error) {
	switch {
	case m.Type.AddsStock():
		return stock.AdjustQuantity(m.Quantity)
	case m.Type.RemovesStock():
		if consumesReservation(m) {
			released, err := stock.Release(m.Quantity)
			if err != nil {
				return stock, err
			}
			return released.AdjustQuantity(m.Quantity.Neg())
		}
		return stock.AdjustQuantity(m.Quantity.Neg())
	case m.Type.Reserves():
		return stock.Reserve(m.Quantity)
	case m.Type.Releases():
		return stock.Release(m.Quantity)
	}
	return stock, nil
}

// check reglas independientes; todas se evalúan y se acumulan.
func (s *MovementService) check(
	ctx context.Context,
	m *entity.Movement,
	stock *entity.StockItem,
	lots repository.LotRepository,
	capacity *CapacityService,
) (inventory.ValidationResult, error) {
	var res inventory.ValidationResult
	now := s.now()

	// 1. Estado
	if !m.IsProcessable() {
		res.Add(inventory.CodeCannotProcess,
			fmt.Sprintf("el movimiento %s está en estado %s y no puede procesarse", m.ID, m.Status))
	}

	// La cantidad es una magnitud; el signo lo da el tipo.
	if !m.Quantity.IsPositive() {
		res.Add(inventory.CodeInvalidQuantity,
			fmt.Sprintf("la cantidad debe ser mayor que cero, recibido %s", m.Quantity))
		return res, nil
	}

	// 2. Salidas: el saldo debe existir y cubrir la cantidad
	if m.Type.RemovesStock() {
		switch {
		case stock == nil:
			res.Add(inventory.CodeInsufficientStock,
				fmt.Sprintf("stock insuficiente: no existe saldo del ítem %s en %s, solicitado %s", m.ItemID, m.LocationID, m.Quantity))
		case consumesReservation(m) && stock.ReservedQuantity.LessThan(m.Quantity):
			res.Add(inventory.CodeInsufficientStock,
				fmt.Sprintf("stock insuficiente: reservado %s, solicitado %s", stock.ReservedQuantity, m.Quantity))
		case !consumesReservation(m) && !stock.HasAvailableStock(m.Quantity):
			res.Add(inventory.CodeInsufficientStock,
				fmt.Sprintf("stock insuficiente: disponible %s, solicitado %s, faltante %s",
					stock.AvailableQuantity(), m.Quantity, m.Quantity.Sub(stock.AvailableQuantity())))
		}
	}

	lot, err := s.findLot(ctx, lots, m)
	if err != nil {
		return res, err
	}

	// 3. Vencimiento y estado del lote. EXPIRATION y DAMAGE quedan exentos: son las bajas
	// con las que sale del saldo el stock vencido. Los neutros no mueven cantidades.
	if !m.Type.IsNeutral() && m.Type != entity.MovementTypeExpiration && m.Type != entity.MovementTypeDamage {
		if m.IsExpired(now) {
			res.Add(inventory.CodeExpiredLot,
				fmt.Sprintf("el lote %s venció el %s", m.LotNumber, m.ExpirationDate.Format("2006-01-02")))
		} else if lot != nil {
			switch {
			case lot.IsExpired(now):
				res.Add(inventory.CodeExpiredLot, fmt.Sprintf("el lote %s está vencido", lot.LotNumber))
			case !m.Type.IsInbound() && !m.Type.Releases() && !lot.IsUsable(now):
				res.Add(inventory.CodeLotNotUsable,
					fmt.Sprintf("el lote %s está en estado %s", lot.LotNumber, lot.Status))
			}
		}
	}

	// 4. Capacidad (solo entradas)
	if m.Type.IsInbound() && capacity != nil {
		// Un lote aún no materializado se identifica por su número: nunca coincide
		// con un id existente, así que cualquier otro lote presente cuenta como mezcla.
		incomingLot := m.LotNumber
		if lot != nil {
			incomingLot = lot.ID
		}
		cr, err := capacity.CanAcceptStock(ctx, CapacityRequest{
			WorkspaceID: m.WorkspaceID,
			LocationID:  m.LocationID,
			Quantity:    m.Quantity,
			ItemID:      m.ItemID,
			LotID:       incomingLot,
		})
		if err != nil {
			return res, err
		}
		if !cr.IsValid() {
			res.AddCapacity(cr)
		}
	}

	// 5. Reservas
	switch {
	case m.Type.Reserves():
		available := decimal.Zero
		if stock != nil {
			available = stock.AvailableQuantity()
		}
		if available.LessThan(m.Quantity) {
			res.Add(inventory.CodeInsufficientAvailable,
				fmt.Sprintf("disponible insuficiente para reservar: disponible %s, solicitado %s", available, m.Quantity))
		}
	case m.Type.Releases():
		reserved := decimal.Zero
		if stock != nil {
			reserved = stock.ReservedQuantity
		}
		if reserved.LessThan(m.Quantity) {
			res.Add(inventory.CodeInsufficientReserved,
				fmt.Sprintf("reservado insuficiente para liberar: reservado %s, solicitado %s", reserved, m.Quantity))
		}
	}

	s.log.Debug().
		Str("movement_id", m.ID).
		Str("type", m.Type.String()).
		Bool("valid", res.IsValid()).
		Msg("validación de movimiento")
	return res, nil
}

func (s *MovementService) findLot(ctx context.Context, lots repository.LotRepository, m *entity.Movement) (*entity.Lot, error) {
	if lots == nil || !m.HasLot() {
		return nil, nil
	}
	var (
		lot *entity.Lot
		err error
	)
	if m.LotID != "" {
		lot, err = lots.FindByID(ctx, m.LotID)
	} else {
		lot, err = lots.FindByLotNumber(ctx, m.WorkspaceID, m.ItemID, m.LotNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("find lot: %w", err)
	}
	return lot, nil
}

func consumesReservation(m *entity.Movement) bool {
	v, ok := m.Metadata[MetadataConsumeReservation].(bool)
	return ok && v
}

// sameWorkspace aislamiento multi-tenant: un saldo de otro workspace no existe para el movimiento.
func sameWorkspace(stock *entity.StockItem, workspaceID string) *entity.StockItem {
	if stock == nil || stock.WorkspaceID != workspaceID {
		return nil
	}
	return stock
}
