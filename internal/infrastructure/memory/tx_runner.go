package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// txState escrituras pendientes y bloqueos tomados por una unidad de trabajo.
type txState struct {
	stocks    map[stockKey]entity.StockItem
	movements map[string]storedMovement
	lots      map[string]entity.Lot
	held      map[string]bool
	unlocks   []func()
	seq       int64
}

// TxRunner unidad de trabajo en memoria: las escrituras se aplican solo si fn no falla.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

// Run ejecuta fn con repositorios atados a una unidad de trabajo nueva.
func (r *TxRunner) Run(ctx context.Context, fn func(tx inventory.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txState{
		stocks:    map[stockKey]entity.StockItem{},
		movements: map[string]storedMovement{},
		lots:      map[string]entity.Lot{},
		held:      map[string]bool{},
	}
	defer tx.release()

	v := view{s: r.s, tx: tx}
	stores := inventory.TxStores{
		Movements: &MovementRepo{v},
		Stocks:    &StockItemRepo{v},
		Lots:      &LotRepo{v},
		Locker:    locker{v},
	}
	if err := fn(stores); err != nil {
		return err
	}
	return r.commit(tx)
}

func (r *TxRunner) commit(tx *txState) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lot := range tx.lots {
		for id, other := range s.lots {
			if id != lot.ID && other.WorkspaceID == lot.WorkspaceID &&
				other.ItemID == lot.ItemID && other.LotNumber == lot.LotNumber {
				return fmt.Errorf("commit lot %s: %w", lot.LotNumber, domain.ErrDuplicate)
			}
		}
	}
	for k, v := range tx.stocks {
		s.stocks[k] = v
	}
	for id, lot := range tx.lots {
		s.lots[id] = lot
	}
	// Orden de inserción estable: se respeta el orden en que la tx guardó los movimientos.
	pending := make([]storedMovement, 0, len(tx.movements))
	for _, m := range tx.movements {
		pending = append(pending, m)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	for _, m := range pending {
		existing, ok := s.movements[m.m.ID]
		if ok {
			m.seq = existing.seq
		} else {
			s.seq++
			m.seq = s.seq
		}
		s.movements[m.m.ID] = s.stamp(m, existing)
	}
	return nil
}

func (tx *txState) lock(k *keyedMutex, key string) {
	if tx.held[key] {
		return
	}
	tx.unlocks = append(tx.unlocks, k.lock(key))
	tx.held[key] = true
}

func (tx *txState) release() {
	for i := len(tx.unlocks) - 1; i >= 0; i-- {
		tx.unlocks[i]()
	}
	tx.unlocks = nil
}

// locker bloqueo por ubicación hasta el fin de la unidad de trabajo.
type locker struct {
	v view
}

func (l locker) LockLocation(ctx context.Context, locationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.v.tx.lock(l.v.s.locationLocks, "location:"+locationID)
	return nil
}
