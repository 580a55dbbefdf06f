package http

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// InventoryHandler expone el ledger de stock (protegido).
type InventoryHandler struct {
	movements *inventory.MovementService
	capacity  *inventory.CapacityService
	query     *inventory.LedgerQueryUseCase
	reports   *inventory.LedgerReportUseCase
	log       zerolog.Logger
	now       func() time.Time
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	movements *inventory.MovementService,
	capacity *inventory.CapacityService,
	query *inventory.LedgerQueryUseCase,
	reports *inventory.LedgerReportUseCase,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		movements: movements,
		capacity:  capacity,
		query:     query,
		reports:   reports,
		log:       log,
		now:       time.Now,
	}
}

// RegisterMovement godoc
// @Summary      Registrar y aplicar un movimiento de stock
// @Description  El movimiento se valida y se aplica en una transacción. Si alguna regla falla
//
//	responde 422 con todas las violaciones y el movimiento queda registrado como FAILED.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterMovementRequest  true  "type, item_id, location_id, quantity"
// @Success      201   {object}  dto.ProcessResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationFailedResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	m, err := h.movementFromBody(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.movements.Process(c.Context(), m)
	if err != nil {
		return writeError(c, err)
	}
	if !res.Success {
		if err := h.movements.RecordFailure(c.Context(), m, res.Validation); err != nil {
			h.log.Error().Err(err).Str("movement_id", m.ID).Msg("no se pudo registrar el rechazo")
		}
		mv := inventory.ToMovementResponse(m)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationFailedResponse{
			Code:     "VALIDATION_FAILED",
			Message:  "movimiento rechazado",
			Errors:   inventory.ToValidationErrors(res.Validation),
			Movement: &mv,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToProcessResultResponse(res))
}

// ValidateMovement godoc
// @Summary      Validar un movimiento sin aplicarlo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterMovementRequest  true  "movimiento a validar"
// @Success      200   {object}  dto.ValidationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/validate [post]
func (h *InventoryHandler) ValidateMovement(c *fiber.Ctx) error {
	m, err := h.movementFromBody(c)
	if err != nil {
		return writeError(c, err)
	}
	v, err := h.movements.Validate(c.Context(), m)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ValidationResponse{Valid: v.IsValid(), Errors: inventory.ToValidationErrors(v)})
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Description  TRANSFER_OUT en origen y TRANSFER_IN en destino, ambas o ninguna.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransferRequest  true  "item_id, from_location_id, to_location_id, quantity"
// @Success      201   {object}  dto.TransferResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationFailedResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ItemID == "" || !in.Quantity.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "item_id y quantity > 0 son requeridos"})
	}
	res, err := h.movements.ProcessTransfer(c.Context(), inventory.TransferInput{
		WorkspaceID:         GetWorkspaceID(c),
		ItemID:              in.ItemID,
		FromLocationID:      in.FromLocationID,
		ToLocationID:        in.ToLocationID,
		Quantity:            in.Quantity,
		LotNumber:           in.LotNumber,
		Reason:              in.Reason,
		CreatedBy:           GetUserID(c),
		ExternalReferenceID: in.ReferenceID,
	})
	if err != nil {
		return writeError(c, err)
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
	if !res.Success {
		failed := res.Out
		if failed.Success && res.In != nil {
			failed = res.In
		}
		mv := inventory.ToMovementResponse(failed.Movement)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationFailedResponse{
			Code:     "VALIDATION_FAILED",
			Message:  "traslado rechazado",
			Errors:   inventory.ToValidationErrors(failed.Validation),
			Movement: &mv,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Consultar el ledger de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id         query  string  false  "Ítem"
// @Param        location_id     query  string  false  "Ubicación"
// @Param        type            query  string  false  "Tipo de movimiento"
// @Param        status          query  string  false  "PENDING, COMPLETED, CANCELLED, FAILED"
// @Param        reference_type  query  string  false  "Tipo de referencia"
// @Param        reference_id    query  string  false  "Referencia externa"
// @Param        from            query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to              query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        sort            query  string  false  "asc | desc"
// @Param        limit           query  int     false  "Límite"  default(20)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	if err := page.Validate(); err != nil {
		return writeError(c, err)
	}
	criteria := repository.MovementCriteria{
		WorkspaceID:   GetWorkspaceID(c),
		ItemID:        c.Query("item_id"),
		LocationID:    c.Query("location_id"),
		LotID:         c.Query("lot_id"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Limit:         page.Limit,
		Offset:        page.Offset,
		SortDesc:      page.Descending(),
	}
	if t := c.Query("type"); t != "" {
		mt, err := entity.ParseMovementType(t)
		if err != nil {
			return writeError(c, err)
		}
		criteria.Type = mt
	}
	if s := c.Query("status"); s != "" {
		st := entity.MovementStatus(strings.ToUpper(s))
		if !st.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status inválido"})
		}
		criteria.Status = st
	}
	var err error
	if criteria.From, err = queryTime(c, "from", false); err != nil {
		return writeError(c, err)
	}
	if criteria.To, err = queryTime(c, "to", true); err != nil {
		return writeError(c, err)
	}

	out, err := h.query.SearchMovements(c.Context(), criteria)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetMovement godoc
// @Summary      Obtener un movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.query.GetMovement(c.Context(), GetWorkspaceID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Saldo de un ítem en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id      query     string  true  "Ítem"
// @Param        location_id  query     string  true  "Ubicación"
// @Success      200          {object}  dto.StockItemResponse
// @Failure      400          {object}  dto.ErrorResponse
// @Failure      404          {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.query.GetStock(c.Context(), GetWorkspaceID(c), c.Query("item_id"), c.Query("location_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetCapacity godoc
// @Summary      Ocupación de una ubicación y sus descendientes
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la ubicación"
// @Success      200  {object}  inventory.CapacityStats
// @Router       /api/inventory/locations/{id}/capacity [get]
func (h *InventoryHandler) GetCapacity(c *fiber.Ctx) error {
	stats, err := h.capacity.GetCapacityStats(c.Context(), GetWorkspaceID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(stats)
}

// GetKardex godoc
// @Summary      Kardex en PDF de un ítem en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        item_id      query  string  true   "Ítem"
// @Param        location_id  query  string  true   "Ubicación"
// @Param        from         query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Success      200  {file}    file
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/kardex [get]
func (h *InventoryHandler) GetKardex(c *fiber.Ctx) error {
	from, err := queryTime(c, "from", false)
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		return writeError(c, err)
	}
	pdf, filename, err := h.reports.GenerateKardex(c.Context(), GetWorkspaceID(c), c.Query("item_id"), c.Query("location_id"), from, to)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

func (h *InventoryHandler) movementFromBody(c *fiber.Ctx) (*entity.Movement, error) {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return nil, errInvalidBody
	}
	mt, err := entity.ParseMovementType(in.Type)
	if err != nil {
		return nil, err
	}
	return entity.NewMovement(entity.MovementInput{
		WorkspaceID:           GetWorkspaceID(c),
		Type:                  mt,
		ItemID:                in.ItemID,
		LocationID:            in.LocationID,
		Quantity:              in.Quantity,
		LotNumber:             in.LotNumber,
		ExpirationDate:        in.ExpirationDate,
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		ReferenceType:         in.ReferenceType,
		ReferenceID:           in.ReferenceID,
		Reason:                in.Reason,
		Metadata:              in.Metadata,
		CreatedBy:             GetUserID(c),
	}, h.now())
}

var errInvalidBody = errors.New("cuerpo inválido")

// queryTime acepta RFC3339 o YYYY-MM-DD; en fechas sin hora, endOfDay lleva al último instante del día.
func queryTime(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe ser RFC3339 o YYYY-MM-DD", domain.ErrInvalidInput, key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// writeError traduce errores de aplicación a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errInvalidBody):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMovementType):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
