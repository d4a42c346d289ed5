package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/apperr"

	"github.com/google/uuid"
)

// PatientLookup es lo que records necesita de identity.
type PatientLookup interface {
	LookupPatient(ctx context.Context, id string) (identity.Patient, error)
}

// Auditor es el camino de escritura de auditoría.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry) (audit.Record, error)
	// Prepare y Committed rodean las escrituras donde el repo persiste
	// el registro junto con la mutación.
	Prepare(e audit.Entry) (audit.Record, error)
	Committed(r audit.Record)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	audit    Auditor
	now      func() time.Time
}

type Option func(*Service)

func WithNow(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, patients PatientLookup, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		patients: patients,
		audit:    auditor,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	PatientID string
	Facility  string
	// Date cero => ahora.
	Date         time.Time
	Diagnosis    string
	Symptoms     []string
	Notes        string
	FollowUpDate *time.Time
	Attachments  []string
}

func (s *Service) Create(ctx context.Context, actor identity.User, in CreateInput) (MedicalRecord, error) {
	if !identity.Can(actor, identity.OpCreateRecord, "") {
		return MedicalRecord{}, apperr.Forbidden("role cannot create medical records")
	}

	patientID := strings.TrimSpace(in.PatientID)
	if patientID == "" {
		return MedicalRecord{}, apperr.Validation("patient_id is required")
	}
	diagnosis := strings.TrimSpace(in.Diagnosis)
	if diagnosis == "" {
		return MedicalRecord{}, apperr.Validation("diagnosis is required")
	}
	symptoms := cleanList(in.Symptoms)
	if len(symptoms) == 0 {
		return MedicalRecord{}, apperr.Validation("at least one symptom is required")
	}
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return MedicalRecord{}, apperr.Validation("notes are required")
	}

	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	if in.FollowUpDate != nil && in.FollowUpDate.Before(date) {
		return MedicalRecord{}, apperr.Validation("follow_up_date cannot be before the record date")
	}

	if _, err := s.patients.LookupPatient(ctx, patientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return MedicalRecord{}, apperr.Validation("unknown patient")
		}
		return MedicalRecord{}, err
	}

	facility := strings.TrimSpace(in.Facility)
	if facility == "" {
		facility = actor.Hospital
	}

	rec := MedicalRecord{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		DoctorID:     actor.ID,
		Facility:     facility,
		Date:         date,
		Diagnosis:    diagnosis,
		Symptoms:     symptoms,
		Notes:        notes,
		FollowUpDate: in.FollowUpDate,
		Attachments:  cleanList(in.Attachments),
		CreatedAt:    now,
	}

	ar, err := s.audit.Prepare(audit.Entry{
		Type:     audit.TypeAccess,
		EntityID: rec.ID,
		Actor:    actor,
		Action:   "Created medical record",
		Details: map[string]any{
			"patient_id": rec.PatientID,
			"diagnosis":  rec.Diagnosis,
		},
	})
	if err != nil {
		return MedicalRecord{}, err
	}

	saved, err := s.repo.Create(ctx, rec, ar)
	if err != nil {
		return MedicalRecord{}, apperr.Internal("create medical record", err)
	}
	s.audit.Committed(saved)

	return rec, nil
}

// ListForPatient: el propio paciente o un doctor. Vacío no es error.
func (s *Service) ListForPatient(ctx context.Context, actor identity.User, patientID string) ([]MedicalRecord, error) {
	patientID = strings.TrimSpace(patientID)
	if !identity.Can(actor, identity.OpReadRecords, patientID) {
		return nil, apperr.Forbidden("role cannot read these medical records")
	}
	if _, err := s.patients.LookupPatient(ctx, patientID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Internal("list medical records", err)
	}

	if _, err := s.audit.Record(ctx, audit.Entry{
		Type:     audit.TypeAccess,
		EntityID: patientID,
		Actor:    actor,
		Action:   "Accessed patient records",
	}); err != nil {
		return nil, err
	}

	if items == nil {
		items = []MedicalRecord{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, actor identity.User, id string) (MedicalRecord, error) {
	rec, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MedicalRecord{}, apperr.NotFound("medical record not found")
		}
		return MedicalRecord{}, apperr.Internal("get medical record", err)
	}
	if !identity.Can(actor, identity.OpReadRecords, rec.PatientID) {
		return MedicalRecord{}, apperr.Forbidden("role cannot read this medical record")
	}
	return rec, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
