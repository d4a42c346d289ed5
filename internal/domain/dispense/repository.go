package dispense

import (
	"context"
	"errors"
	"time"

	"clinical-rx-core/internal/domain/audit"
)

var (
	ErrNotFound = errors.New("dispense record not found")

	// Finalize
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrAlreadyCompleted     = errors.New("prescription already completed")
	ErrPrescriptionExpired  = errors.New("prescription expired")

	// SessionStore.Mark
	ErrLineAlreadyMarked = errors.New("line already dispensed in this session")
)

type Repository interface {
	// Finalize es atómico: si la receta sigue activa y no vencida en now,
	// la pasa a completed y guarda rec y ar. Si algo falla no escribe nada.
	Finalize(ctx context.Context, rec DispenseRecord, now time.Time, ar audit.Record) (audit.Record, error)
	GetByPrescription(ctx context.Context, prescriptionID string) (DispenseRecord, error)
	// ListByPharmacy devuelve por fecha descendente.
	ListByPharmacy(ctx context.Context, pharmacyID string) ([]DispenseRecord, error)
}

// SessionStore guarda las líneas marcadas antes de completar.
// Las sesiones se pueden descartar y no se convierten en DispenseRecord
// hasta que CompleteDispensation tiene éxito.
type SessionStore interface {
	// Mark falla con ErrLineAlreadyMarked si el índice ya estaba marcado.
	Mark(ctx context.Context, prescriptionID, pharmacyID string, l Line) error
	// Lines devuelve ordenado por índice.
	Lines(ctx context.Context, prescriptionID, pharmacyID string) ([]Line, error)
	Discard(ctx context.Context, prescriptionID, pharmacyID string) error
}
