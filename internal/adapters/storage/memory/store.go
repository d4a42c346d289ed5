package memory

import (
	"errors"
	"sync"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/dispense"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/domain/prescriptions"
	"clinical-rx-core/internal/domain/records"
)

var ErrIDRequired = errors.New("id required")

// Store es el único objeto de estado clínico del proceso. Un solo mutex
// cubre todos los mapas, así cada operación (p.ej. Finalize, que toca la
// receta y el registro de dispensación) es atómica.
type Store struct {
	mu sync.RWMutex

	users       map[string]identity.User
	patients    map[string]identity.Patient
	healthCards map[string]string

	records map[string]records.MedicalRecord

	prescriptions map[string]prescriptions.Prescription
	codes         map[string]string

	// dispenses indexado por prescription id: a lo sumo uno por receta.
	dispenses map[string]dispense.DispenseRecord

	audit []audit.Record
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]identity.User),
		patients:      make(map[string]identity.Patient),
		healthCards:   make(map[string]string),
		records:       make(map[string]records.MedicalRecord),
		prescriptions: make(map[string]prescriptions.Prescription),
		codes:         make(map[string]string),
		dispenses:     make(map[string]dispense.DispenseRecord),
	}
}

func (s *Store) Identity() identity.Repository           { return identityRepo{s} }
func (s *Store) Records() records.Repository             { return recordsRepo{s} }
func (s *Store) Prescriptions() prescriptions.Repository { return prescriptionsRepo{s} }
func (s *Store) Dispense() dispense.Repository           { return dispenseRepo{s} }
func (s *Store) Audit() audit.Repository                 { return auditRepo{s} }

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
