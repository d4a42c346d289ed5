package dispense

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/domain/prescriptions"
	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/logger"

	"github.com/google/uuid"
)

// PrescriptionLookup devuelve la receta con status efectivo (vencimiento perezoso).
type PrescriptionLookup interface {
	Lookup(ctx context.Context, id string) (prescriptions.Prescription, error)
}

// Auditor arma el registro antes de Finalize y recibe el guardado después.
type Auditor interface {
	Prepare(e audit.Entry) (audit.Record, error)
	Committed(r audit.Record)
}

// Observer recibe el resultado de cada intento de completar (métricas).
type Observer interface {
	DispenseCompleted(outcome string)
}

const (
	OutcomeCompleted  = "completed"
	OutcomeConflict   = "already_dispensed"
	OutcomeExpired    = "expired"
	OutcomeIncomplete = "incomplete"
)

type Service struct {
	repo          Repository
	sessions      SessionStore
	prescriptions PrescriptionLookup
	audit         Auditor

	now      func() time.Time
	log      logger.Logger
	observer Observer
}

type Option func(*Service)

func WithNow(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

func NewService(repo Repository, sessions SessionStore, rx PrescriptionLookup, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		sessions:      sessions,
		prescriptions: rx,
		audit:         auditor,
		now:           time.Now,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type LineInput struct {
	MedicineIndex int
	Quantity      int
	BatchNumber   string
}

// dispensable carga la receta y aplica los chequeos comunes a marcar y completar.
func (s *Service) dispensable(ctx context.Context, actor identity.User, prescriptionID string) (prescriptions.Prescription, error) {
	if !identity.Can(actor, identity.OpDispense, "") {
		return prescriptions.Prescription{}, apperr.Forbidden("role cannot dispense")
	}
	p, err := s.prescriptions.Lookup(ctx, prescriptionID)
	if err != nil {
		return prescriptions.Prescription{}, err
	}
	switch p.Status {
	case prescriptions.StatusCompleted:
		return p, apperr.AlreadyDispensed("prescription already dispensed")
	case prescriptions.StatusExpired:
		return p, apperr.Expired("prescription expired on " + p.ExpiryDate.Format(time.DateOnly))
	}
	return p, nil
}

// DispenseMedicine marca una línea en la sesión de la farmacia.
func (s *Service) DispenseMedicine(ctx context.Context, actor identity.User, prescriptionID string, in LineInput) (SessionView, error) {
	p, err := s.dispensable(ctx, actor, prescriptionID)
	if err != nil {
		return SessionView{}, err
	}

	if in.MedicineIndex < 0 || in.MedicineIndex >= len(p.Medicines) {
		return SessionView{}, apperr.InvalidIndex(fmt.Sprintf("medicine index %d out of range [0,%d)", in.MedicineIndex, len(p.Medicines)))
	}
	if in.Quantity <= 0 {
		return SessionView{}, apperr.Validation("quantity must be > 0")
	}
	batch := strings.TrimSpace(in.BatchNumber)
	if batch == "" {
		return SessionView{}, apperr.Validation("batch_number is required")
	}

	line := Line{
		MedicineIndex: in.MedicineIndex,
		MedicineName:  p.Medicines[in.MedicineIndex].Name,
		Quantity:      in.Quantity,
		BatchNumber:   batch,
		DispensedAt:   s.now(),
	}
	if err := s.sessions.Mark(ctx, p.ID, actor.ID, line); err != nil {
		if errors.Is(err, ErrLineAlreadyMarked) {
			return SessionView{}, apperr.AlreadyDispensed(fmt.Sprintf("medicine %d already dispensed in this session", in.MedicineIndex))
		}
		return SessionView{}, apperr.Internal("mark dispense line", err)
	}

	return s.view(ctx, p, actor.ID)
}

// Session devuelve la sesión en curso (posiblemente vacía).
func (s *Service) Session(ctx context.Context, actor identity.User, prescriptionID string) (SessionView, error) {
	if !identity.Can(actor, identity.OpDispense, "") {
		return SessionView{}, apperr.Forbidden("role cannot dispense")
	}
	p, err := s.prescriptions.Lookup(ctx, prescriptionID)
	if err != nil {
		return SessionView{}, err
	}
	return s.view(ctx, p, actor.ID)
}

// Discard abandona la sesión sin dejar rastro persistente.
func (s *Service) Discard(ctx context.Context, actor identity.User, prescriptionID string) error {
	if !identity.Can(actor, identity.OpDispense, "") {
		return apperr.Forbidden("role cannot dispense")
	}
	if err := s.sessions.Discard(ctx, strings.TrimSpace(prescriptionID), actor.ID); err != nil {
		return apperr.Internal("discard dispense session", err)
	}
	return nil
}

// CompleteDispensation cierra la sesión: crea exactamente un DispenseRecord,
// pasa la receta a completed y escribe la auditoría. Con dos intentos
// concurrentes gana uno; el otro recibe AlreadyDispensed (o Expired).
func (s *Service) CompleteDispensation(ctx context.Context, actor identity.User, prescriptionID string) (DispenseRecord, error) {
	p, err := s.dispensable(ctx, actor, prescriptionID)
	if err != nil {
		s.observe(err)
		return DispenseRecord{}, err
	}

	v, err := s.view(ctx, p, actor.ID)
	if err != nil {
		return DispenseRecord{}, err
	}
	if !v.Complete() {
		err := apperr.Incomplete(fmt.Sprintf("medicines not yet dispensed: %v", v.Pending))
		s.observe(err)
		return DispenseRecord{}, err
	}

	now := s.now()
	rec := DispenseRecord{
		ID:               uuid.NewString(),
		PrescriptionID:   p.ID,
		PharmacyID:       actor.ID,
		DispensedAt:      now,
		Lines:            v.Lines,
		VerificationCode: p.VerificationCode,
		Status:           StatusCompleted,
	}

	items := make([]map[string]any, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		items = append(items, map[string]any{
			"medicine_index": l.MedicineIndex,
			"medicine_name":  l.MedicineName,
			"quantity":       l.Quantity,
			"batch_number":   l.BatchNumber,
		})
	}
	ar, err := s.audit.Prepare(audit.Entry{
		Type:     audit.TypeDispense,
		EntityID: p.ID,
		Actor:    actor,
		Action:   "Completed dispensation",
		Details: map[string]any{
			"dispense_id":       rec.ID,
			"verification_code": rec.VerificationCode,
			"lines":             items,
		},
	})
	if err != nil {
		return DispenseRecord{}, err
	}

	saved, err := s.repo.Finalize(ctx, rec, now, ar)
	if err != nil {
		err = mapFinalizeErr(err)
		s.observe(err)
		return DispenseRecord{}, err
	}
	s.audit.Committed(saved)

	if err := s.sessions.Discard(ctx, p.ID, actor.ID); err != nil {
		// La dispensación ya quedó registrada; la sesión vence sola.
		s.log.Warn("discard dispense session failed", map[string]any{
			"prescription_id": p.ID,
			"pharmacy_id":     actor.ID,
			"err":             err.Error(),
		})
	}

	s.observe(nil)
	return rec, nil
}

// ListForPharmacy: la propia farmacia, admin o auditor.
func (s *Service) ListForPharmacy(ctx context.Context, actor identity.User, pharmacyID string) ([]DispenseRecord, error) {
	pharmacyID = strings.TrimSpace(pharmacyID)
	if !identity.Can(actor, identity.OpReadDispensations, pharmacyID) {
		return nil, apperr.Forbidden("role cannot read these dispensations")
	}
	items, err := s.repo.ListByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, apperr.Internal("list dispensations", err)
	}
	if items == nil {
		items = []DispenseRecord{}
	}
	return items, nil
}

// GetForPrescription: quien puede leer la receta, la farmacia que
// dispensó, admin o auditor.
func (s *Service) GetForPrescription(ctx context.Context, actor identity.User, prescriptionID string) (DispenseRecord, error) {
	p, err := s.prescriptions.Lookup(ctx, prescriptionID)
	if err != nil {
		return DispenseRecord{}, err
	}

	rec, err := s.repo.GetByPrescription(ctx, p.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if !identity.Can(actor, identity.OpReadPrescription, p.PatientID) &&
				!identity.Can(actor, identity.OpReadDispensations, "") {
				return DispenseRecord{}, apperr.Forbidden("role cannot read this dispensation")
			}
			return DispenseRecord{}, apperr.NotFound("prescription has not been dispensed")
		}
		return DispenseRecord{}, apperr.Internal("get dispensation", err)
	}

	if !identity.Can(actor, identity.OpReadPrescription, p.PatientID) &&
		!identity.Can(actor, identity.OpReadDispensations, rec.PharmacyID) {
		return DispenseRecord{}, apperr.Forbidden("role cannot read this dispensation")
	}
	return rec, nil
}

func (s *Service) view(ctx context.Context, p prescriptions.Prescription, pharmacyID string) (SessionView, error) {
	lines, err := s.sessions.Lines(ctx, p.ID, pharmacyID)
	if err != nil {
		return SessionView{}, apperr.Internal("load dispense session", err)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MedicineIndex < lines[j].MedicineIndex })

	marked := make(map[int]bool, len(lines))
	for _, l := range lines {
		marked[l.MedicineIndex] = true
	}
	pending := []int{}
	for i := range p.Medicines {
		if !marked[i] {
			pending = append(pending, i)
		}
	}
	if lines == nil {
		lines = []Line{}
	}

	return SessionView{
		PrescriptionID: p.ID,
		PharmacyID:     pharmacyID,
		Lines:          lines,
		Pending:        pending,
		Status:         StatusPartial,
	}, nil
}

func (s *Service) observe(err error) {
	if s.observer == nil {
		return
	}
	switch {
	case err == nil:
		s.observer.DispenseCompleted(OutcomeCompleted)
	case errors.Is(err, apperr.ErrAlreadyDispensed):
		s.observer.DispenseCompleted(OutcomeConflict)
	case errors.Is(err, apperr.ErrExpired):
		s.observer.DispenseCompleted(OutcomeExpired)
	case errors.Is(err, apperr.ErrIncomplete):
		s.observer.DispenseCompleted(OutcomeIncomplete)
	}
}

func mapFinalizeErr(err error) error {
	switch {
	case errors.Is(err, ErrAlreadyCompleted):
		return apperr.AlreadyDispensed("prescription already dispensed")
	case errors.Is(err, ErrPrescriptionExpired):
		return apperr.Expired("prescription expired")
	case errors.Is(err, ErrPrescriptionNotFound):
		return apperr.NotFound("prescription not found")
	default:
		return apperr.Internal("finalize dispensation", err)
	}
}
