package entity

// MovementStatus estado del ciclo de vida de un movimiento.
type MovementStatus string

const (
	MovementStatusPending   MovementStatus = "PENDING"
	MovementStatusCompleted MovementStatus = "COMPLETED"
	MovementStatusCancelled MovementStatus = "CANCELLED"
	MovementStatusFailed    MovementStatus = "FAILED"
)

// IsValid indica si el estado es conocido.
func (s MovementStatus) IsValid() bool {
	switch s {
	case MovementStatusPending, MovementStatusCompleted, MovementStatusCancelled, MovementStatusFailed:
		return true
	}
	return false
}

// IsTerminal completado y cancelado no admiten más transiciones.
func (s MovementStatus) IsTerminal() bool {
	return s == MovementStatusCompleted || s == MovementStatusCancelled
}

// CanTransitionTo valida la máquina de estados:
// PENDING → COMPLETED | CANCELLED | FAILED, FAILED → PENDING.
func (s MovementStatus) CanTransitionTo(next MovementStatus) bool {
	switch s {
	case MovementStatusPending:
		return next == MovementStatusCompleted || next == MovementStatusCancelled || next == MovementStatusFailed
	case MovementStatusFailed:
		return next == MovementStatusPending
	}
	return false
}

func (s MovementStatus) String() string { return string(s) }
