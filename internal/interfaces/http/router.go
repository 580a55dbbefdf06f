package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/rs/zerolog"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Movements *inventory.MovementService
	Capacity  *inventory.CapacityService
	Query     *inventory.LedgerQueryUseCase
	Reports   *inventory.LedgerReportUseCase
	Log       zerolog.Logger
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token); el workspace sale del token.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole())

	h := NewInventoryHandler(deps.Movements, deps.Capacity, deps.Query, deps.Reports, deps.Log)
	inv := protected.Group("/inventory")
	write := RequireRole(RoleAdmin, RoleBodeguero)

	inv.Post("/movements", write, h.RegisterMovement)
	inv.Post("/movements/validate", h.ValidateMovement)
	inv.Post("/transfers", write, h.Transfer)
	inv.Get("/movements", h.ListMovements)
	inv.Get("/movements/:id", h.GetMovement)
	inv.Get("/stock", h.GetStock)
	inv.Get("/locations/:id/capacity", h.GetCapacity)
	inv.Get("/kardex", h.GetKardex)
}
