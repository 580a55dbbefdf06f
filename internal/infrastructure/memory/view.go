package memory

import (
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// view lectura combinada: escrituras pendientes de la tx (si hay) sobre el estado confirmado.
// Sin tx, las escrituras van directo al almacén.
type view struct {
	s  *Store
	tx *txState
}

func (v view) stock(k stockKey) (entity.StockItem, bool) {
	if v.tx != nil {
		if st, ok := v.tx.stocks[k]; ok {
			return st, true
		}
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	st, ok := v.s.stocks[k]
	return st, ok
}

func (v view) movement(id string) (entity.Movement, bool) {
	if v.tx != nil {
		if m, ok := v.tx.movements[id]; ok {
			return m.m, true
		}
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	m, ok := v.s.movements[id]
	return m.m, ok
}

// allStocks instantánea de todos los saldos visibles.
func (v view) allStocks() []entity.StockItem {
	v.s.mu.RLock()
	merged := make(map[stockKey]entity.StockItem, len(v.s.stocks))
	for k, st := range v.s.stocks {
		merged[k] = st
	}
	v.s.mu.RUnlock()
	if v.tx != nil {
		for k, st := range v.tx.stocks {
			merged[k] = st
		}
	}
	out := make([]entity.StockItem, 0, len(merged))
	for _, st := range merged {
		out = append(out, st)
	}
	return out
}

func (v view) allMovements() []storedMovement {
	v.s.mu.RLock()
	merged := make(map[string]storedMovement, len(v.s.movements))
	for id, m := range v.s.movements {
		merged[id] = m
	}
	v.s.mu.RUnlock()
	if v.tx != nil {
		for id, m := range v.tx.movements {
			if existing, ok := merged[id]; ok {
				m.seq = existing.seq
			} else {
				// Aún no confirmados: después de todo lo confirmado.
				m.seq += 1 << 40
			}
			if m.m.Status == entity.MovementStatusCompleted {
				m.ledgerSeq = m.seq + 1<<41
			}
			merged[id] = m
		}
	}
	out := make([]storedMovement, 0, len(merged))
	for _, m := range merged {
		out = append(out, m)
	}
	return out
}

func (v view) allLots() []entity.Lot {
	v.s.mu.RLock()
	merged := make(map[string]entity.Lot, len(v.s.lots))
	for id, l := range v.s.lots {
		merged[id] = l
	}
	v.s.mu.RUnlock()
	if v.tx != nil {
		for id, l := range v.tx.lots {
			merged[id] = l
		}
	}
	out := make([]entity.Lot, 0, len(merged))
	for _, l := range merged {
		out = append(out, l)
	}
	return out
}
