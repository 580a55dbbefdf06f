package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo movimientos en memoria. Guarda copias: mutar el valor del llamador
// después de Save no altera lo guardado.
type MovementRepo struct {
	v view
}

func (r *MovementRepo) Save(_ context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if prev, ok := r.v.movement(m.ID); ok && prev.Status == entity.MovementStatusCompleted {
		return fmt.Errorf("%w: el movimiento %s ya está completado", domain.ErrConflict, m.ID)
	}
	cp := cloneMovement(*m)
	if tx := r.v.tx; tx != nil {
		seq := tx.seq
		if existing, ok := tx.movements[cp.ID]; ok {
			seq = existing.seq
		} else {
			tx.seq++
		}
		tx.movements[cp.ID] = storedMovement{m: cp, seq: seq}
		return nil
	}
	s := r.v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.movements[cp.ID]; ok {
		s.movements[cp.ID] = s.stamp(storedMovement{m: cp, seq: existing.seq}, existing)
		return nil
	}
	s.seq++
	s.movements[cp.ID] = s.stamp(storedMovement{m: cp, seq: s.seq}, storedMovement{})
	return nil
}

// stamp asigna ledgerSeq al pasar a COMPLETED. Requiere s.mu tomado.
func (s *Store) stamp(m, previous storedMovement) storedMovement {
	switch {
	case m.m.Status != entity.MovementStatusCompleted:
		m.ledgerSeq = 0
	case previous.ledgerSeq != 0:
		m.ledgerSeq = previous.ledgerSeq
	default:
		s.ledgerSeq++
		m.ledgerSeq = s.ledgerSeq
	}
	return m
}

func (r *MovementRepo) FindByID(_ context.Context, id string) (*entity.Movement, error) {
	if r.v.tx != nil {
		if m, ok := r.v.tx.movements[id]; ok {
			cp := cloneMovement(m.m)
			return &cp, nil
		}
	}
	s := r.v.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movements[id]
	if !ok {
		return nil, nil
	}
	cp := cloneMovement(m.m)
	return &cp, nil
}

func (r *MovementRepo) Search(ctx context.Context, c repository.MovementCriteria) ([]*entity.Movement, error) {
	matched, err := r.match(ctx, c)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if c.OrderBy == repository.OrderByApplied && a.ledgerSeq != b.ledgerSeq {
			// Los no completados (0) van al final en ambos sentidos.
			switch {
			case a.ledgerSeq == 0:
				return false
			case b.ledgerSeq == 0:
				return true
			case c.SortDesc:
				return a.ledgerSeq > b.ledgerSeq
			}
			return a.ledgerSeq < b.ledgerSeq
		}
		if !a.m.CreatedAt.Equal(b.m.CreatedAt) {
			if c.SortDesc {
				return a.m.CreatedAt.After(b.m.CreatedAt)
			}
			return a.m.CreatedAt.Before(b.m.CreatedAt)
		}
		if c.SortDesc {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})
	if c.Offset > 0 {
		if c.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[c.Offset:]
	}
	if c.Limit > 0 && c.Limit < len(matched) {
		matched = matched[:c.Limit]
	}
	out := make([]*entity.Movement, 0, len(matched))
	for _, m := range matched {
		cp := cloneMovement(m.m)
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MovementRepo) Count(ctx context.Context, c repository.MovementCriteria) (int, error) {
	matched, err := r.match(ctx, c)
	return len(matched), err
}

func (r *MovementRepo) match(ctx context.Context, c repository.MovementCriteria) ([]storedMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []storedMovement
	for _, sm := range r.v.allMovements() {
		if matches(sm.m, c) {
			out = append(out, sm)
		}
	}
	return out, nil
}

func matches(m entity.Movement, c repository.MovementCriteria) bool {
	at := timeOf(m, c.OrderBy)
	switch {
	case c.WorkspaceID != "" && m.WorkspaceID != c.WorkspaceID,
		c.ItemID != "" && m.ItemID != c.ItemID,
		c.LocationID != "" && m.LocationID != c.LocationID,
		c.Type != "" && m.Type != c.Type,
		c.Status != "" && m.Status != c.Status,
		c.LotID != "" && m.LotID != c.LotID,
		c.ReferenceType != "" && m.ReferenceType != c.ReferenceType,
		c.ReferenceID != "" && m.ReferenceID != c.ReferenceID,
		c.From != nil && !at.IsZero() && at.Before(*c.From),
		c.To != nil && !at.IsZero() && at.After(*c.To),
		(c.From != nil || c.To != nil) && at.IsZero():
		return false
	}
	return true
}

// timeOf fecha que filtran From/To: created_at, o processed_at al ordenar por aplicación.
func timeOf(m entity.Movement, order repository.MovementOrder) time.Time {
	if order == repository.OrderByApplied {
		if m.ProcessedAt == nil {
			return time.Time{}
		}
		return *m.ProcessedAt
	}
	return m.CreatedAt
}

func cloneMovement(m entity.Movement) entity.Movement {
	if m.Metadata != nil {
		meta := make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			meta[k] = v
		}
		m.Metadata = meta
	}
	return m
}
