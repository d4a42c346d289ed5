package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/dispense"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/domain/prescriptions"
	"clinical-rx-core/internal/domain/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func rx(id, code string) prescriptions.Prescription {
	return prescriptions.Prescription{
		ID:               id,
		PatientID:        "pat-1",
		IssueDate:        t0,
		ExpiryDate:       t0.Add(48 * time.Hour),
		Medicines:        []prescriptions.Medicine{{Name: "Amoxicillin"}},
		Status:           prescriptions.StatusActive,
		VerificationCode: code,
	}
}

func auditFor(entity string) audit.Record {
	return audit.Record{Type: audit.TypeAccess, EntityID: entity, ActorID: "doc-1", Action: "Created " + entity, Timestamp: t0}
}

func createRx(t *testing.T, s *Store, p prescriptions.Prescription) {
	t.Helper()
	_, err := s.Prescriptions().Create(context.Background(), p, auditFor(p.ID))
	require.NoError(t, err)
}

func TestIdentity_UniqueIDAndHealthCard(t *testing.T) {
	repo := NewStore().Identity()
	ctx := context.Background()

	p := identity.Patient{User: identity.User{ID: "pat-1", Role: identity.RolePatient}, HealthCardID: "HC1"}
	require.NoError(t, repo.CreatePatient(ctx, p))

	p2 := p
	p2.ID = "pat-2"
	assert.ErrorIs(t, repo.CreatePatient(ctx, p2), identity.ErrDuplicateHealthCard)

	assert.ErrorIs(t, repo.CreateUser(ctx, identity.User{ID: "pat-1", Role: identity.RoleDoctor}), identity.ErrDuplicateUser)

	u, err := repo.GetUser(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, identity.RolePatient, u.Role)

	_, err = repo.GetPatient(ctx, "pat-2")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestRecords_ListIsDateDescendingAndCopied(t *testing.T) {
	repo := NewStore().Records()
	ctx := context.Background()

	for i, d := range []int{2, 0, 1} {
		_, err := repo.Create(ctx, records.MedicalRecord{
			ID:        fmt.Sprintf("r%d", i),
			PatientID: "pat-1",
			Date:      t0.AddDate(0, 0, d),
			Symptoms:  []string{"cough"},
		}, auditFor(fmt.Sprintf("r%d", i)))
		require.NoError(t, err)
	}

	items, err := repo.ListByPatient(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "r0", items[0].ID)
	assert.Equal(t, "r1", items[2].ID)

	items[0].Symptoms[0] = "mutated"
	again, err := repo.GetByID(ctx, "r0")
	require.NoError(t, err)
	assert.Equal(t, "cough", again.Symptoms[0])

	empty, err := repo.ListByPatient(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestPrescriptions_DuplicateCode(t *testing.T) {
	s := NewStore()
	repo := s.Prescriptions()
	ctx := context.Background()

	createRx(t, s, rx("rx-1", "ABC123"))
	_, err := repo.Create(ctx, rx("rx-2", "ABC123"), auditFor("rx-2"))
	assert.ErrorIs(t, err, prescriptions.ErrDuplicateCode)

	// El rechazo no deja registro de auditoría.
	logged, err := s.Audit().List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "rx-1", logged[0].EntityID)

	got, err := repo.GetByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "rx-1", got.ID)

	_, err = repo.GetByCode(ctx, "ZZZ999")
	assert.ErrorIs(t, err, prescriptions.ErrNotFound)
}

func TestPrescriptions_ConcurrentSameCodeOnlyOneWins(t *testing.T) {
	repo := NewStore().Prescriptions()

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("rx-%d", i)
			if _, err := repo.Create(context.Background(), rx(id, "SAME01"), auditFor(id)); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok)
}

func TestDispense_FinalizeIsCheckAndSet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	createRx(t, s, rx("rx-1", "ABC123"))

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Dispense().Finalize(ctx, dispense.DispenseRecord{
				ID:             fmt.Sprintf("d-%d", i),
				PrescriptionID: "rx-1",
				PharmacyID:     "ph-1",
				Status:         dispense.StatusCompleted,
			}, t0, audit.Record{Type: audit.TypeDispense, EntityID: "rx-1", ActorID: "ph-1", Action: "Completed dispensation", Timestamp: t0})
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case assert.ErrorIs(t, err, dispense.ErrAlreadyCompleted):
				atomic.AddInt32(&conflicts, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(19), conflicts)

	p, err := s.Prescriptions().GetByID(ctx, "rx-1")
	require.NoError(t, err)
	assert.Equal(t, prescriptions.StatusCompleted, p.Status)

	list, err := s.Dispense().ListByPharmacy(ctx, "ph-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Un solo registro de dispensación en la auditoría, el del ganador.
	logged, err := s.Audit().List(ctx, audit.Filter{Type: audit.TypeDispense})
	require.NoError(t, err)
	assert.Len(t, logged, 1)
}

func TestDispense_FinalizeExpiredWritesNothing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	p := rx("rx-1", "ABC123")
	createRx(t, s, p)
	ar := audit.Record{Type: audit.TypeDispense, EntityID: "rx-1", ActorID: "ph-1", Action: "Completed dispensation", Timestamp: t0}

	_, err := s.Dispense().Finalize(ctx, dispense.DispenseRecord{ID: "d-1", PrescriptionID: "rx-1"}, p.ExpiryDate, ar)
	assert.ErrorIs(t, err, dispense.ErrPrescriptionExpired)

	_, err = s.Dispense().GetByPrescription(ctx, "rx-1")
	assert.ErrorIs(t, err, dispense.ErrNotFound)

	_, err = s.Dispense().Finalize(ctx, dispense.DispenseRecord{ID: "d-2", PrescriptionID: "ghost"}, t0, ar)
	assert.ErrorIs(t, err, dispense.ErrPrescriptionNotFound)

	logged, err := s.Audit().List(ctx, audit.Filter{Type: audit.TypeDispense})
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestDispense_FinalizeAppendsAuditInSameUnit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	createRx(t, s, rx("rx-1", "ABC123"))

	saved, err := s.Dispense().Finalize(ctx, dispense.DispenseRecord{ID: "d-1", PrescriptionID: "rx-1", PharmacyID: "ph-1"}, t0, audit.Record{
		Type:      audit.TypeDispense,
		EntityID:  "rx-1",
		ActorID:   "ph-1",
		Action:    "Completed dispensation",
		Timestamp: t0.Add(-time.Hour),
		Details: map[string]any{
			"lines": []map[string]any{{"medicine_index": 0, "quantity": 2}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.ID)
	assert.Equal(t, t0, saved.Timestamp, "se ajusta al último timestamp")

	got, err := s.Audit().Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Completed dispensation", got.Action)
	lines, ok := got.Details["lines"].([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, lines[0]["quantity"])
}

func TestAudit_MonotonicAndDescending(t *testing.T) {
	repo := NewStore().Audit()
	ctx := context.Background()

	a, err := repo.Append(ctx, audit.Record{Type: audit.TypeAccess, Action: "a"}, t0.Add(time.Minute))
	require.NoError(t, err)
	b, err := repo.Append(ctx, audit.Record{Type: audit.TypeAccess, Action: "b"}, t0)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, a.Timestamp, b.Timestamp, "timestamp no retrocede")

	items, err := repo.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Action)

	_, err = repo.Get(ctx, 3)
	assert.ErrorIs(t, err, audit.ErrNotFound)
}

func TestAudit_DetailsAreCopied(t *testing.T) {
	repo := NewStore().Audit()
	ctx := context.Background()

	meds := []string{"Amoxicillin", "Ibuprofen"}
	rec, err := repo.Append(ctx, audit.Record{Type: audit.TypePrescription, Action: "a", Details: map[string]any{"medicines": meds}}, t0)
	require.NoError(t, err)

	meds[0] = "mutated"
	rec.Details["medicines"].([]string)[1] = "mutated"

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Amoxicillin", "Ibuprofen"}, got.Details["medicines"])
}

func TestSessionStore_MarkOnceAndTTL(t *testing.T) {
	now := t0
	s := NewSessionStore(time.Minute)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Mark(ctx, "rx-1", "ph-1", dispense.Line{MedicineIndex: 1}))
	require.NoError(t, s.Mark(ctx, "rx-1", "ph-1", dispense.Line{MedicineIndex: 0}))
	assert.ErrorIs(t, s.Mark(ctx, "rx-1", "ph-1", dispense.Line{MedicineIndex: 0}), dispense.ErrLineAlreadyMarked)

	// Otra farmacia tiene su propia sesión.
	require.NoError(t, s.Mark(ctx, "rx-1", "ph-2", dispense.Line{MedicineIndex: 0}))

	lines, err := s.Lines(ctx, "rx-1", "ph-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 0, lines[0].MedicineIndex)

	now = now.Add(2 * time.Minute)
	lines, err = s.Lines(ctx, "rx-1", "ph-1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, s.Discard(ctx, "rx-1", "ph-2"))
	lines, err = s.Lines(ctx, "rx-1", "ph-2")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
