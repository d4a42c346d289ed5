package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/dispense"
	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/domain/prescriptions"
	"clinical-rx-core/internal/domain/records"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func unique(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint}
}

// expectAudit espera el append de auditoría dentro de la transacción abierta.
func expectAudit(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(auditLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(ts) FROM audit_records`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectQuery(`INSERT INTO "audit_records" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
}

func auditRec(typ audit.Type, entity, action string) audit.Record {
	return audit.Record{
		Type:      typ,
		EntityID:  entity,
		ActorID:   "doc-1",
		ActorRole: identity.RoleDoctor,
		Action:    action,
		Timestamp: now,
	}
}

func TestUniqueConstraint(t *testing.T) {
	name, ok := uniqueConstraint(unique("x_key"))
	assert.True(t, ok)
	assert.Equal(t, "x_key", name)

	_, ok = uniqueConstraint(errors.New("boom"))
	assert.False(t, ok)
	_, ok = uniqueConstraint(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)
}

func TestIdentityRepo_CreatePatientDuplicateHealthCard(t *testing.T) {
	db, mock := newMock(t)
	repo := NewIdentityRepo(db)

	p := identity.Patient{
		User:         identity.User{ID: "pat-1", Name: "Ana", Role: identity.RolePatient, CreatedAt: now},
		DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:       identity.GenderFemale,
		HealthCardID: "HC1",
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO patients").
		WithArgs("pat-1", p.DateOfBirth, "female", "", "", sqlmock.AnyArg(), sqlmock.AnyArg(), "HC1").
		WillReturnError(unique("patients_health_card_id_key"))
	mock.ExpectRollback()

	err := repo.CreatePatient(context.Background(), p)
	assert.ErrorIs(t, err, identity.ErrDuplicateHealthCard)
}

func TestIdentityRepo_CreateUserDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewIdentityRepo(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(unique("users_pkey"))

	err := repo.CreateUser(context.Background(), identity.User{ID: "doc-1", Role: identity.RoleDoctor})
	assert.ErrorIs(t, err, identity.ErrDuplicateUser)
}

func TestIdentityRepo_GetPatient(t *testing.T) {
	db, mock := newMock(t)
	repo := NewIdentityRepo(db)

	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM users u\\s+JOIN patients p").
		WithArgs("pat-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "role", "email", "phone_number", "national_id",
			"specialization", "hospital", "license_number",
			"address", "contact_person", "department", "access_level", "created_at",
			"date_of_birth", "gender", "blood_group", "emergency_contact",
			"allergies", "chronic_conditions", "health_card_id",
		}).AddRow(
			"pat-1", "Ana", "patient", "ana@example.com", "", "",
			"", "", "", "", "", "", 0, now,
			dob, "female", "O+", "",
			"{Penicillin,Latex}", "{}", "HC1",
		))

	p, err := repo.GetPatient(context.Background(), "pat-1")
	require.NoError(t, err)
	assert.Equal(t, identity.RolePatient, p.Role)
	assert.Equal(t, identity.GenderFemale, p.Gender)
	assert.Equal(t, []string{"Penicillin", "Latex"}, p.Allergies)
	assert.Equal(t, "HC1", p.HealthCardID)

	mock.ExpectQuery("FROM users u\\s+JOIN patients p").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetPatient(context.Background(), "ghost")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestRecordsRepo_ListByPatient(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecordsRepo(db)

	fu := now.AddDate(0, 0, 14)
	mock.ExpectQuery("FROM medical_records\\s+WHERE patient_id = \\$1\\s+ORDER BY record_date DESC").
		WithArgs("pat-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "patient_id", "doctor_id", "facility",
			"record_date", "diagnosis", "symptoms", "notes",
			"follow_up_date", "attachments", "created_at",
		}).
			AddRow("r2", "pat-1", "doc-1", "General", now, "Flu", "{fever,cough}", "rest", fu, "{}", now).
			AddRow("r1", "pat-1", "doc-1", "General", now.AddDate(0, 0, -7), "Cold", "{sneeze}", "fluids", nil, "{}", now))

	items, err := repo.ListByPatient(context.Background(), "pat-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"fever", "cough"}, items[0].Symptoms)
	require.NotNil(t, items[0].FollowUpDate)
	assert.Equal(t, fu, *items[0].FollowUpDate)
	assert.Nil(t, items[1].FollowUpDate)
}

func TestRecordsRepo_CreateWritesAuditInSameTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecordsRepo(db)

	rec := records.MedicalRecord{
		ID: "r1", PatientID: "pat-1", DoctorID: "doc-1", Facility: "General",
		Date: now, Diagnosis: "Flu", Symptoms: []string{"fever"}, Notes: "rest", CreatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO medical_records").WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, 5)
	mock.ExpectCommit()

	saved, err := repo.Create(context.Background(), rec, auditRec(audit.TypeAccess, "r1", "Created medical record"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), saved.ID)
	assert.Equal(t, now, saved.Timestamp)
}

func TestRecordsRepo_CreateRollsBackWhenAuditFails(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecordsRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO medical_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), records.MedicalRecord{ID: "r1", PatientID: "pat-1"}, auditRec(audit.TypeAccess, "r1", "Created medical record"))
	assert.EqualError(t, err, "lock timeout")
}

func TestRecordsRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecordsRepo(db)

	mock.ExpectQuery("FROM medical_records WHERE id = \\$1").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestPrescriptionsRepo_CreateDuplicateCode(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPrescriptionsRepo(db)

	p := prescriptions.Prescription{
		ID: "rx-1", PatientID: "pat-1", DoctorID: "doc-1",
		IssueDate: now, ExpiryDate: now.AddDate(0, 0, 30),
		Medicines:        []prescriptions.Medicine{{Name: "Amoxicillin", Dosage: "500mg", Frequency: "3 times daily", Duration: "7 days"}},
		Instructions:     "After meals",
		Status:           prescriptions.StatusActive,
		VerificationCode: "ABC123",
		CreatedAt:        now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prescriptions").
		WithArgs("rx-1", "pat-1", "doc-1", "", now, p.ExpiryDate, sqlmock.AnyArg(), "After meals", "active", "ABC123", now).
		WillReturnError(unique("prescriptions_verification_code_key"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), p, auditRec(audit.TypePrescription, "rx-1", "Created prescription"))
	assert.ErrorIs(t, err, prescriptions.ErrDuplicateCode)
}

func TestPrescriptionsRepo_CreateWritesAuditInSameTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPrescriptionsRepo(db)

	ar := auditRec(audit.TypePrescription, "rx-1", "Created prescription")
	ar.Details = map[string]any{"medicines": []string{"Amoxicillin", "Ibuprofen"}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prescriptions").WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, 9)
	mock.ExpectCommit()

	saved, err := repo.Create(context.Background(), prescriptions.Prescription{ID: "rx-1", VerificationCode: "ABC123"}, ar)
	require.NoError(t, err)
	assert.Equal(t, int64(9), saved.ID)
	assert.Equal(t, []string{"Amoxicillin", "Ibuprofen"}, saved.Details["medicines"])
}

func TestPrescriptionsRepo_GetByCode(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPrescriptionsRepo(db)

	cols := []string{
		"id", "patient_id", "doctor_id", "facility",
		"issue_date", "expiry_date", "medicines", "instructions",
		"status", "verification_code", "created_at",
	}
	mock.ExpectQuery("FROM prescriptions WHERE verification_code = \\$1").
		WithArgs("ABC123").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"rx-1", "pat-1", "doc-1", "General",
			now, now.AddDate(0, 0, 30), []byte(`[{"name":"Amoxicillin","dosage":"500mg","frequency":"3 times daily","duration":"7 days"}]`), "After meals",
			"active", "ABC123", now,
		))

	p, err := repo.GetByCode(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, prescriptions.StatusActive, p.Status)
	require.Len(t, p.Medicines, 1)
	assert.Equal(t, "Amoxicillin", p.Medicines[0].Name)

	mock.ExpectQuery("FROM prescriptions WHERE verification_code = \\$1").
		WithArgs("ZZZ999").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByCode(context.Background(), "ZZZ999")
	assert.ErrorIs(t, err, prescriptions.ErrNotFound)
}

func dispenseRec() dispense.DispenseRecord {
	return dispense.DispenseRecord{
		ID:               "d-1",
		PrescriptionID:   "rx-1",
		PharmacyID:       "ph-1",
		DispensedAt:      now,
		Lines:            []dispense.Line{{MedicineIndex: 0, MedicineName: "Amoxicillin", Quantity: 21, BatchNumber: "B1", DispensedAt: now}},
		VerificationCode: "ABC123",
		Status:           dispense.StatusCompleted,
	}
}

var updateRx = regexp.QuoteMeta(`UPDATE prescriptions`)

func TestDispenseRepo_FinalizeOK(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDispenseRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(updateRx).WithArgs("rx-1", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO dispense_records").
		WithArgs("d-1", "rx-1", "ph-1", now, sqlmock.AnyArg(), "ABC123", "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAudit(mock, 11)
	mock.ExpectCommit()

	saved, err := repo.Finalize(context.Background(), dispenseRec(), now, auditRec(audit.TypeDispense, "rx-1", "Completed dispensation"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), saved.ID)
}

func TestDispenseRepo_FinalizeRollsBackWhenAuditFails(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDispenseRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(updateRx).WithArgs("rx-1", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO dispense_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(auditLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(ts) FROM audit_records`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectQuery(`INSERT INTO "audit_records"`).WillReturnError(errors.New("audit store down"))
	mock.ExpectRollback()

	_, err := repo.Finalize(context.Background(), dispenseRec(), now, auditRec(audit.TypeDispense, "rx-1", "Completed dispensation"))
	assert.EqualError(t, err, "audit store down")
}

func TestDispenseRepo_FinalizeLosesRace(t *testing.T) {
	cases := []struct {
		name  string
		setup func(sqlmock.Sqlmock)
		want  error
	}{
		{
			name: "already completed",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT status FROM prescriptions").WithArgs("rx-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))
			},
			want: dispense.ErrAlreadyCompleted,
		},
		{
			name: "expired",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT status FROM prescriptions").WithArgs("rx-1").
					WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
			},
			want: dispense.ErrPrescriptionExpired,
		},
		{
			name: "missing",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT status FROM prescriptions").WithArgs("rx-1").
					WillReturnError(sql.ErrNoRows)
			},
			want: dispense.ErrPrescriptionNotFound,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewDispenseRepo(db)

			mock.ExpectBegin()
			mock.ExpectExec(updateRx).WithArgs("rx-1", now).WillReturnResult(sqlmock.NewResult(0, 0))
			c.setup(mock)
			mock.ExpectRollback()

			_, err := repo.Finalize(context.Background(), dispenseRec(), now, auditRec(audit.TypeDispense, "rx-1", "Completed dispensation"))
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestDispenseRepo_FinalizeUniqueViolation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDispenseRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(updateRx).WithArgs("rx-1", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO dispense_records").WillReturnError(unique("dispense_records_prescription_id_key"))
	mock.ExpectRollback()

	_, err := repo.Finalize(context.Background(), dispenseRec(), now, auditRec(audit.TypeDispense, "rx-1", "Completed dispensation"))
	assert.ErrorIs(t, err, dispense.ErrAlreadyCompleted)
}

func TestAuditRepo_AppendClampsTimestamp(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuditRepo(db)

	later := now.Add(time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(auditLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(ts) FROM audit_records`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(later))
	mock.ExpectQuery(`INSERT INTO "audit_records" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	rec, err := repo.Append(context.Background(), audit.Record{
		Type:      audit.TypeAccess,
		EntityID:  "pat-1",
		ActorID:   "doc-1",
		ActorRole: identity.RoleDoctor,
		Action:    "Accessed patient records",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, later, rec.Timestamp)
	assert.NotNil(t, rec.Details)
}

func TestAuditRepo_ListBuildsFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuditRepo(db)

	cols := []string{"id", "type", "entity_id", "actor_id", "actor_role", "action", "ts", "details", "flagged", "reason"}

	mock.ExpectQuery(`SELECT .* FROM "audit_records" WHERE .*"type" = \$1.*"flagged" IS TRUE.*ILIKE.*ORDER BY "ts" DESC, "id" DESC LIMIT \$`).
		WithArgs("prescription", `%rx\_1%`, `%rx\_1%`, `%rx\_1%`, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(7), "prescription", "rx_1", "doc-1", "doctor", "Created prescription", now, []byte(`{"medicines":["Morphine"],"patient_id":"pat-1"}`), true, "Controlled substance prescribed: Morphine"))

	items, err := repo.List(context.Background(), audit.Filter{
		Type:        audit.TypePrescription,
		FlaggedOnly: true,
		Query:       "rx_1",
		Limit:       10,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(7), items[0].ID)
	assert.Equal(t, identity.RoleDoctor, items[0].ActorRole)
	assert.Equal(t, []any{"Morphine"}, items[0].Details["medicines"])
	assert.Equal(t, "pat-1", items[0].Details["patient_id"])
}

func TestAuditRepo_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAuditRepo(db)

	mock.ExpectQuery(`SELECT .* FROM "audit_records" WHERE \("id" = \$1\)`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, audit.ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_x\\y`, escapeLike(`50% off_x\y`))
}
