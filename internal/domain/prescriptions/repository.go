package prescriptions

import (
	"context"
	"errors"

	"clinical-rx-core/internal/domain/audit"
)

var (
	ErrNotFound = errors.New("prescription not found")
	// ErrDuplicateCode lo devuelve Create cuando el código ya existe.
	// El chequeo es atómico en el storage.
	ErrDuplicateCode = errors.New("verification code already in use")
)

type Repository interface {
	// Create guarda p y su registro de auditoría en la misma unidad.
	Create(ctx context.Context, p Prescription, ar audit.Record) (audit.Record, error)
	GetByID(ctx context.Context, id string) (Prescription, error)
	GetByCode(ctx context.Context, code string) (Prescription, error)
	// ListByPatient devuelve por fecha de emisión descendente.
	ListByPatient(ctx context.Context, patientID string) ([]Prescription, error)
}
