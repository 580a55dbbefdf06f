package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.LocationRepository         = (*LocationRepo)(nil)
	_ repository.LocationSettingsRepository = (*LocationSettingsRepo)(nil)
	_ repository.CatalogGateway             = (*CatalogRepo)(nil)
	_ repository.UnitGateway                = (*CatalogRepo)(nil)
)

// LocationRepo jerarquía de ubicaciones en memoria.
type LocationRepo struct {
	s *Store
}

func (r *LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// GetDescendantIDs recorrido en anchura con conjunto de visitados: termina aunque haya ciclos.
func (r *LocationRepo) GetDescendantIDs(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	children := map[string][]string{}
	for _, l := range r.s.locations {
		if l.ParentID != "" {
			children[l.ParentID] = append(children[l.ParentID], l.ID)
		}
	}
	r.s.mu.RUnlock()

	visited := map[string]bool{id: true}
	queue := []string{id}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	sort.Strings(out)
	return out, nil
}

// LocationSettingsRepo políticas de admisión en memoria.
type LocationSettingsRepo struct {
	s *Store
}

func (r *LocationSettingsRepo) FindByLocationID(_ context.Context, locationID string) (*entity.LocationStockSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.settings[locationID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// CatalogRepo ítems y unidades en memoria.
type CatalogRepo struct {
	s *Store
}

func (r *CatalogRepo) GetItemInfo(_ context.Context, itemID string) (*entity.ItemInfo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	info, ok := r.s.items[itemID]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

func (r *CatalogRepo) GetUnitName(_ context.Context, unitID string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.units[unitID], nil
}
