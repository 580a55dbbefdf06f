package dto

import (
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// PageRequest paginación y orden de listados del ledger.
// Limit 0 toma el tamaño por defecto configurado (LEDGER_DEFAULT_PAGE_SIZE).
type PageRequest struct {
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
	Sort   string `query:"sort"` // asc | desc
}

// Validate rechaza valores negativos y órdenes desconocidos.
func (p PageRequest) Validate() error {
	if p.Limit < 0 || p.Offset < 0 {
		return fmt.Errorf("%w: limit y offset no pueden ser negativos", domain.ErrInvalidInput)
	}
	switch strings.ToLower(p.Sort) {
	case "", "asc", "desc":
		return nil
	}
	return fmt.Errorf("%w: sort debe ser asc o desc", domain.ErrInvalidInput)
}

// Descending más recientes primero.
func (p PageRequest) Descending() bool { return strings.EqualFold(p.Sort, "desc") }

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
