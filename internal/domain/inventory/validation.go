package inventory

import "strings"

// ValidationCode código de una regla violada durante la validación de un movimiento.
type ValidationCode string

const (
	CodeCannotProcess         ValidationCode = "CANNOT_PROCESS"
	CodeInsufficientStock     ValidationCode = "INSUFFICIENT_STOCK"
	CodeExpiredLot            ValidationCode = "EXPIRED_LOT"
	CodeLotNotUsable          ValidationCode = "LOT_NOT_USABLE"
	CodeCapacity              ValidationCode = "CAPACITY"
	CodeInsufficientAvailable ValidationCode = "INSUFFICIENT_AVAILABLE"
	CodeInsufficientReserved  ValidationCode = "INSUFFICIENT_RESERVED"
	CodeInvalidQuantity       ValidationCode = "INVALID_QUANTITY"
)

// ValidationError una regla violada. Capacity solo viene en CodeCapacity.
type ValidationError struct {
	Code     ValidationCode            `json:"code"`
	Message  string                    `json:"message"`
	Capacity *CapacityValidationResult `json:"capacity,omitempty"`
}

// ValidationResult acumula todas las reglas violadas; no corta en la primera.
type ValidationResult struct {
	Errors []ValidationError `json:"errors"`
}

// Add agrega una violación.
func (r *ValidationResult) Add(code ValidationCode, message string) {
	r.Errors = append(r.Errors, ValidationError{Code: code, Message: message})
}

// AddCapacity agrega el rechazo del servicio de capacidad con su payload.
func (r *ValidationResult) AddCapacity(c CapacityValidationResult) {
	cc := c
	r.Errors = append(r.Errors, ValidationError{Code: CodeCapacity, Message: c.Message(), Capacity: &cc})
}

func (r ValidationResult) IsValid() bool { return len(r.Errors) == 0 }

// Messages mensajes en el orden en que se detectaron.
func (r ValidationResult) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

func (r ValidationResult) Codes() []ValidationCode {
	out := make([]ValidationCode, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Code)
	}
	return out
}

func (r ValidationResult) HasCode(code ValidationCode) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Summary resumen de una línea, útil en logs.
func (r ValidationResult) Summary() string {
	return strings.Join(r.Messages(), "; ")
}
