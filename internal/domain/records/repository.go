package records

import (
	"context"
	"errors"

	"clinical-rx-core/internal/domain/audit"
)

var ErrNotFound = errors.New("medical record not found")

type Repository interface {
	// Create guarda rec y su registro de auditoría en la misma unidad:
	// o quedan los dos o ninguno. Devuelve el registro con ID asignado.
	Create(ctx context.Context, rec MedicalRecord, ar audit.Record) (audit.Record, error)
	GetByID(ctx context.Context, id string) (MedicalRecord, error)
	// ListByPatient devuelve por fecha descendente.
	ListByPatient(ctx context.Context, patientID string) ([]MedicalRecord, error)
}
