package memory

import (
	"context"
	"sort"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/dispense"
	"clinical-rx-core/internal/domain/prescriptions"
)

type dispenseRepo struct{ s *Store }

// Finalize: receta activa y no vencida => completed + registro + auditoría,
// todo bajo el mismo lock. Cualquier otro estado no escribe nada.
func (r dispenseRepo) Finalize(ctx context.Context, rec dispense.DispenseRecord, now time.Time, ar audit.Record) (audit.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.prescriptions[rec.PrescriptionID]
	if !ok {
		return audit.Record{}, dispense.ErrPrescriptionNotFound
	}
	if _, done := r.s.dispenses[rec.PrescriptionID]; done || p.Status == prescriptions.StatusCompleted {
		return audit.Record{}, dispense.ErrAlreadyCompleted
	}
	if p.IsExpired(now) {
		return audit.Record{}, dispense.ErrPrescriptionExpired
	}

	p.Status = prescriptions.StatusCompleted
	r.s.prescriptions[p.ID] = p
	r.s.dispenses[rec.PrescriptionID] = cloneDispense(rec)
	return r.s.appendAuditLocked(ar, ar.Timestamp), nil
}

func (r dispenseRepo) GetByPrescription(ctx context.Context, prescriptionID string) (dispense.DispenseRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.dispenses[prescriptionID]
	if !ok {
		return dispense.DispenseRecord{}, dispense.ErrNotFound
	}
	return cloneDispense(rec), nil
}

func (r dispenseRepo) ListByPharmacy(ctx context.Context, pharmacyID string) ([]dispense.DispenseRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]dispense.DispenseRecord, 0)
	for _, rec := range r.s.dispenses {
		if rec.PharmacyID == pharmacyID {
			out = append(out, cloneDispense(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DispensedAt.Equal(out[j].DispensedAt) {
			return out[i].DispensedAt.After(out[j].DispensedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func cloneDispense(rec dispense.DispenseRecord) dispense.DispenseRecord {
	if rec.Lines != nil {
		lines := make([]dispense.Line, len(rec.Lines))
		copy(lines, rec.Lines)
		rec.Lines = lines
	}
	return rec
}
