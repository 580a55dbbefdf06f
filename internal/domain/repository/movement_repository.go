package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementOrder clave de orden de Search.
type MovementOrder int

const (
	// OrderByCreated por created_at (por defecto).
	OrderByCreated MovementOrder = iota
	// OrderByApplied orden en que los movimientos completados se aplicaron al saldo;
	// From/To filtran por processed_at. Los no completados van al final.
	OrderByApplied
)

// MovementCriteria filtros de búsqueda del ledger. Campos vacíos no filtran.
type MovementCriteria struct {
	WorkspaceID   string
	ItemID        string
	LocationID    string
	Type          entity.MovementType
	Status        entity.MovementStatus
	LotID         string
	ReferenceType string
	ReferenceID   string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
	OrderBy       MovementOrder
	SortDesc      bool // false = más antiguo primero
}

// MovementRepository define el puerto de persistencia para movimientos.
type MovementRepository interface {
	Save(ctx context.Context, movement *entity.Movement) error
	// FindByID devuelve nil, nil si no existe.
	FindByID(ctx context.Context, id string) (*entity.Movement, error)
	Search(ctx context.Context, criteria MovementCriteria) ([]*entity.Movement, error)
	Count(ctx context.Context, criteria MovementCriteria) (int, error)
}
