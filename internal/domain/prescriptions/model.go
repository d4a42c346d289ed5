package prescriptions

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Medicine es inmutable una vez emitida la receta.
type Medicine struct {
	Name      string
	Dosage    string
	Frequency string
	Duration  string
	Notes     string
}

type Prescription struct {
	ID        string
	PatientID string
	DoctorID  string
	Facility  string

	IssueDate  time.Time
	ExpiryDate time.Time

	Medicines    []Medicine
	Instructions string

	// Status persistido: active o completed. expired se deriva al leer.
	Status           Status
	VerificationCode string

	CreatedAt time.Time
}

// IsExpired: el límite es inclusivo (now == expiry ya vence).
// Una receta completada nunca vence.
func (p Prescription) IsExpired(now time.Time) bool {
	return p.Status != StatusCompleted && !now.Before(p.ExpiryDate)
}

func (p Prescription) EffectiveStatus(now time.Time) Status {
	if p.Status == StatusCompleted {
		return StatusCompleted
	}
	if p.IsExpired(now) {
		return StatusExpired
	}
	return StatusActive
}

// At devuelve una copia con el status efectivo en now.
func (p Prescription) At(now time.Time) Prescription {
	p.Status = p.EffectiveStatus(now)
	return p
}
