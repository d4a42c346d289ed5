package memory

import (
	"context"
	"errors"
	"sort"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/records"
)

type recordsRepo struct{ s *Store }

func (r recordsRepo) Create(ctx context.Context, rec records.MedicalRecord, ar audit.Record) (audit.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec.ID == "" {
		return audit.Record{}, ErrIDRequired
	}
	if _, exists := r.s.records[rec.ID]; exists {
		return audit.Record{}, errors.New("medical record already exists")
	}
	r.s.records[rec.ID] = cloneRecord(rec)
	return r.s.appendAuditLocked(ar, ar.Timestamp), nil
}

func (r recordsRepo) GetByID(ctx context.Context, id string) (records.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.records[id]
	if !ok {
		return records.MedicalRecord{}, records.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r recordsRepo) ListByPatient(ctx context.Context, patientID string) ([]records.MedicalRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]records.MedicalRecord, 0)
	for _, rec := range r.s.records {
		if rec.PatientID == patientID {
			out = append(out, cloneRecord(rec))
		}
	}

	// date desc; empate por created_at desc y luego id para que sea estable
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func cloneRecord(rec records.MedicalRecord) records.MedicalRecord {
	rec.Symptoms = cloneStrings(rec.Symptoms)
	rec.Attachments = cloneStrings(rec.Attachments)
	if rec.FollowUpDate != nil {
		t := *rec.FollowUpDate
		rec.FollowUpDate = &t
	}
	return rec
}
