package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes en memoria; (workspace, ítem, número) es único.
type LotRepo struct {
	v view
}

func (r *LotRepo) FindByLotNumber(_ context.Context, workspaceID, itemID, lotNumber string) (*entity.Lot, error) {
	for _, l := range r.v.allLots() {
		if l.WorkspaceID == workspaceID && l.ItemID == itemID && l.LotNumber == lotNumber {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *LotRepo) FindByID(_ context.Context, id string) (*entity.Lot, error) {
	if r.v.tx != nil {
		if l, ok := r.v.tx.lots[id]; ok {
			return &l, nil
		}
	}
	s := r.v.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lots[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *LotRepo) Save(_ context.Context, lot entity.Lot) error {
	for _, other := range r.v.allLots() {
		if other.ID != lot.ID && other.WorkspaceID == lot.WorkspaceID &&
			other.ItemID == lot.ItemID && other.LotNumber == lot.LotNumber {
			return domain.ErrDuplicate
		}
	}
	if r.v.tx != nil {
		r.v.tx.lots[lot.ID] = lot
		return nil
	}
	s := r.v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.ID] = lot
	return nil
}
