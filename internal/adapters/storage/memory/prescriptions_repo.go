package memory

import (
	"context"
	"errors"
	"sort"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/prescriptions"
)

type prescriptionsRepo struct{ s *Store }

// Create es el check-and-set de unicidad del código de verificación.
func (r prescriptionsRepo) Create(ctx context.Context, p prescriptions.Prescription, ar audit.Record) (audit.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == "" {
		return audit.Record{}, ErrIDRequired
	}
	if _, exists := r.s.prescriptions[p.ID]; exists {
		return audit.Record{}, errors.New("prescription already exists")
	}
	if _, taken := r.s.codes[p.VerificationCode]; taken {
		return audit.Record{}, prescriptions.ErrDuplicateCode
	}

	r.s.prescriptions[p.ID] = clonePrescription(p)
	r.s.codes[p.VerificationCode] = p.ID
	return r.s.appendAuditLocked(ar, ar.Timestamp), nil
}

func (r prescriptionsRepo) GetByID(ctx context.Context, id string) (prescriptions.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.prescriptions[id]
	if !ok {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	return clonePrescription(p), nil
}

func (r prescriptionsRepo) GetByCode(ctx context.Context, code string) (prescriptions.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.codes[code]
	if !ok {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	return clonePrescription(r.s.prescriptions[id]), nil
}

func (r prescriptionsRepo) ListByPatient(ctx context.Context, patientID string) ([]prescriptions.Prescription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]prescriptions.Prescription, 0)
	for _, p := range r.s.prescriptions {
		if p.PatientID == patientID {
			out = append(out, clonePrescription(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].IssueDate.After(out[j].IssueDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func clonePrescription(p prescriptions.Prescription) prescriptions.Prescription {
	if p.Medicines != nil {
		meds := make([]prescriptions.Medicine, len(p.Medicines))
		copy(meds, p.Medicines)
		p.Medicines = meds
	}
	return p
}
