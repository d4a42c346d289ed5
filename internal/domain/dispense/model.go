package dispense

import "time"

type RecordStatus string

const (
	StatusCompleted RecordStatus = "completed"
	// StatusPartial solo aparece en la vista de sesión; nunca se persiste.
	StatusPartial RecordStatus = "partial"
)

type Line struct {
	MedicineIndex int
	MedicineName  string
	Quantity      int
	BatchNumber   string
	DispensedAt   time.Time
}

// DispenseRecord existe solo para dispensaciones completas: una por receta.
type DispenseRecord struct {
	ID               string
	PrescriptionID   string
	PharmacyID       string
	DispensedAt      time.Time
	Lines            []Line
	VerificationCode string
	Status           RecordStatus
}

// SessionView es el estado en curso de una farmacia sobre una receta.
type SessionView struct {
	PrescriptionID string
	PharmacyID     string
	Lines          []Line
	// Pending son los índices de medicinas aún sin marcar.
	Pending []int
	Status  RecordStatus
}

// Complete indica si ya se puede cerrar la dispensación.
func (v SessionView) Complete() bool {
	return len(v.Pending) == 0
}
