package prescriptions

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/codes"

	"github.com/google/uuid"
)

const (
	DefaultCodeLength      = 6
	DefaultValidity        = 30 * 24 * time.Hour
	DefaultMaxCodeAttempts = 10
)

type PatientLookup interface {
	LookupPatient(ctx context.Context, id string) (identity.Patient, error)
}

// Auditor: Record para lecturas auditadas; Prepare y Committed cuando el
// repo persiste el registro junto con la receta.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry) (audit.Record, error)
	Prepare(e audit.Entry) (audit.Record, error)
	Committed(r audit.Record)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	audit    Auditor

	now         func() time.Time
	newCode     func() (string, error)
	validity    time.Duration
	maxAttempts int
}

type Option func(*Service)

func WithNow(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithCodeGenerator reemplaza el generador de códigos de verificación.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func WithValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.validity = d
		}
	}
}

func WithMaxCodeAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewService(repo Repository, patients PatientLookup, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		patients:    patients,
		audit:       auditor,
		now:         time.Now,
		newCode:     codes.Generator(DefaultCodeLength),
		validity:    DefaultValidity,
		maxAttempts: DefaultMaxCodeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	PatientID string
	Facility  string
	// Cero => ahora / emisión + validez por defecto.
	IssueDate    time.Time
	ExpiryDate   time.Time
	Medicines    []Medicine
	Instructions string
}

func (s *Service) Create(ctx context.Context, actor identity.User, in CreateInput) (Prescription, error) {
	if !identity.Can(actor, identity.OpCreatePrescription, "") {
		return Prescription{}, apperr.Forbidden("role cannot create prescriptions")
	}

	patientID := strings.TrimSpace(in.PatientID)
	if patientID == "" {
		return Prescription{}, apperr.Validation("patient_id is required")
	}

	meds, err := cleanMedicines(in.Medicines)
	if err != nil {
		return Prescription{}, err
	}

	instructions := strings.TrimSpace(in.Instructions)
	if instructions == "" {
		return Prescription{}, apperr.Validation("instructions are required")
	}

	now := s.now()
	issue := in.IssueDate
	if issue.IsZero() {
		issue = now
	}
	expiry := in.ExpiryDate
	if expiry.IsZero() {
		expiry = issue.Add(s.validity)
	}
	if !expiry.After(issue) {
		return Prescription{}, apperr.Validation("expiry_date must be after issue_date")
	}

	if _, err := s.patients.LookupPatient(ctx, patientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Prescription{}, apperr.Validation("unknown patient")
		}
		return Prescription{}, err
	}

	facility := strings.TrimSpace(in.Facility)
	if facility == "" {
		facility = actor.Hospital
	}

	p := Prescription{
		ID:           uuid.NewString(),
		PatientID:    patientID,
		DoctorID:     actor.ID,
		Facility:     facility,
		IssueDate:    issue,
		ExpiryDate:   expiry,
		Medicines:    meds,
		Instructions: instructions,
		Status:       StatusActive,
		CreatedAt:    now,
	}

	lines := make([]audit.MedicineLine, 0, len(meds))
	names := make([]string, 0, len(meds))
	for _, m := range meds {
		lines = append(lines, audit.MedicineLine{Name: m.Name, Dosage: m.Dosage, Frequency: m.Frequency})
		names = append(names, m.Name)
	}

	// El storage es quien garantiza unicidad; acá solo se reintenta.
	var saved audit.Record
	created := false
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return Prescription{}, apperr.Internal("generate verification code", err)
		}
		p.VerificationCode = code

		ar, err := s.audit.Prepare(audit.Entry{
			Type:     audit.TypePrescription,
			EntityID: p.ID,
			Actor:    actor,
			Action:   "Created prescription",
			Details: map[string]any{
				"patient_id":        p.PatientID,
				"verification_code": p.VerificationCode,
				"medicines":         names,
			},
			Medicines: lines,
		})
		if err != nil {
			return Prescription{}, err
		}

		saved, err = s.repo.Create(ctx, p, ar)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, ErrDuplicateCode) {
			continue
		}
		return Prescription{}, apperr.Internal("create prescription", err)
	}
	if !created {
		return Prescription{}, apperr.Internal("create prescription", errors.New("verification code space exhausted"))
	}
	s.audit.Committed(saved)

	return p.At(now), nil
}

// Verify busca por código. Si venció devuelve la receta (status expired)
// junto con un ExpiredError.
func (s *Service) Verify(ctx context.Context, actor identity.User, code string) (Prescription, error) {
	if !identity.Can(actor, identity.OpVerifyPrescription, "") {
		return Prescription{}, apperr.Forbidden("role cannot verify prescriptions")
	}

	code = codes.Normalize(code)
	if code == "" {
		return Prescription{}, apperr.Validation("verification code is required")
	}

	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Prescription{}, apperr.NotFound("no prescription matches this verification code")
		}
		return Prescription{}, apperr.Internal("verify prescription", err)
	}

	p = p.At(s.now())

	if _, err := s.audit.Record(ctx, audit.Entry{
		Type:     audit.TypeAccess,
		EntityID: p.ID,
		Actor:    actor,
		Action:   "Verified prescription",
		Details: map[string]any{
			"verification_code": p.VerificationCode,
			"status":            string(p.Status),
		},
	}); err != nil {
		return Prescription{}, err
	}

	if p.Status == StatusExpired {
		return p, apperr.Expired("prescription expired on " + p.ExpiryDate.Format(time.DateOnly))
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, actor identity.User, id string) (Prescription, error) {
	p, err := s.Lookup(ctx, id)
	if err != nil {
		return Prescription{}, err
	}
	if !identity.Can(actor, identity.OpReadPrescription, p.PatientID) {
		return Prescription{}, apperr.Forbidden("role cannot read this prescription")
	}
	return p, nil
}

// Lookup es la lectura interna (sin authz) con el status efectivo.
func (s *Service) Lookup(ctx context.Context, id string) (Prescription, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Prescription{}, apperr.NotFound("prescription not found")
		}
		return Prescription{}, apperr.Internal("get prescription", err)
	}
	return p.At(s.now()), nil
}

func (s *Service) ListForPatient(ctx context.Context, actor identity.User, patientID string) ([]Prescription, error) {
	patientID = strings.TrimSpace(patientID)
	if !identity.Can(actor, identity.OpReadPrescription, patientID) {
		return nil, apperr.Forbidden("role cannot read these prescriptions")
	}
	if _, err := s.patients.LookupPatient(ctx, patientID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Internal("list prescriptions", err)
	}

	now := s.now()
	out := make([]Prescription, 0, len(items))
	for _, p := range items {
		out = append(out, p.At(now))
	}
	return out, nil
}

func cleanMedicines(in []Medicine) ([]Medicine, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("at least one medicine is required")
	}
	out := make([]Medicine, 0, len(in))
	for i, m := range in {
		m = Medicine{
			Name:      strings.TrimSpace(m.Name),
			Dosage:    strings.TrimSpace(m.Dosage),
			Frequency: strings.TrimSpace(m.Frequency),
			Duration:  strings.TrimSpace(m.Duration),
			Notes:     strings.TrimSpace(m.Notes),
		}
		if m.Name == "" || m.Dosage == "" || m.Frequency == "" || m.Duration == "" {
			return nil, apperr.Validation("medicine " + strconv.Itoa(i) + ": name, dosage, frequency and duration are required")
		}
		out = append(out, m)
	}
	return out, nil
}
