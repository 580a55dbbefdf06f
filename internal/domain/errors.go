package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Ledger de stock.
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrInvariantViolation    = errors.New("violación de invariante de stock")
	ErrInsufficientAvailable = errors.New("cantidad disponible insuficiente")
	ErrOverRelease           = errors.New("liberación mayor a lo reservado")
	ErrInvalidMovementType   = errors.New("tipo de movimiento inválido")
	ErrInvalidTransition     = errors.New("transición de estado inválida")
	ErrBalanceAlreadySet     = errors.New("el saldo posterior ya fue registrado")
)
