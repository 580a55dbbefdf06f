// Package memory implementa los puertos del ledger en memoria. Respeta las mismas
// garantías que el adaptador PostgreSQL: bloqueo por fila de saldo, bloqueo por
// ubicación hasta el fin de la unidad de trabajo y descarte total ante error.
package memory

import (
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

type stockKey struct {
	workspaceID string
	itemID      string
	locationID  string
}

func keyOf(s entity.StockItem) stockKey {
	return stockKey{workspaceID: s.WorkspaceID, itemID: s.ItemID, locationID: s.LocationID}
}

// storedMovement seq orden de inserción; ledgerSeq orden en que se completó (0 = no completado).
type storedMovement struct {
	m         entity.Movement
	seq       int64
	ledgerSeq int64
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	stocks    map[stockKey]entity.StockItem
	movements map[string]storedMovement
	lots      map[string]entity.Lot
	locations map[string]entity.Location
	settings  map[string]entity.LocationStockSettings
	items     map[string]entity.ItemInfo
	units     map[string]string
	seq       int64
	ledgerSeq int64

	rowLocks      *keyedMutex
	locationLocks *keyedMutex
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		stocks:        map[stockKey]entity.StockItem{},
		movements:     map[string]storedMovement{},
		lots:          map[string]entity.Lot{},
		locations:     map[string]entity.Location{},
		settings:      map[string]entity.LocationStockSettings{},
		items:         map[string]entity.ItemInfo{},
		units:         map[string]string{},
		rowLocks:      newKeyedMutex(),
		locationLocks: newKeyedMutex(),
	}
}

// PutLocation registra una ubicación (la jerarquía se arma con ParentID).
func (s *Store) PutLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

// PutSettings registra la política de admisión de una ubicación.
func (s *Store) PutSettings(settings entity.LocationStockSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.LocationID] = settings
}

// PutItem registra un ítem del catálogo.
func (s *Store) PutItem(info entity.ItemInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[info.ID] = info
}

// PutUnit registra una unidad de medida.
func (s *Store) PutUnit(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[id] = name
}

// PutStock fija un saldo directamente, sin movimiento (datos de prueba).
func (s *Store) PutStock(item entity.StockItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[keyOf(item)] = item
}

// Stocks repositorio de saldos fuera de transacción.
func (s *Store) Stocks() *StockItemRepo { return &StockItemRepo{view{s: s}} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{view{s: s}} }

// Lots repositorio de lotes fuera de transacción.
func (s *Store) Lots() *LotRepo { return &LotRepo{view{s: s}} }

// Locations jerarquía de ubicaciones.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }

// Settings políticas de admisión.
func (s *Store) Settings() *LocationSettingsRepo { return &LocationSettingsRepo{s: s} }

// Catalog ítems y unidades.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

// keyedMutex un mutex por clave, creado bajo demanda.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*sync.Mutex{}}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
