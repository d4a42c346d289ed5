package records

import "time"

// MedicalRecord es append-only: no hay update ni delete.
type MedicalRecord struct {
	ID        string
	PatientID string
	DoctorID  string
	Facility  string

	Date      time.Time
	Diagnosis string
	// Symptoms conserva el orden de carga.
	Symptoms     []string
	Notes        string
	FollowUpDate *time.Time
	Attachments  []string

	CreatedAt time.Time
}
