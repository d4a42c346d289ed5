package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/prescriptions"
)

type PrescriptionsRepo struct {
	db *sql.DB
}

func NewPrescriptionsRepo(db *sql.DB) *PrescriptionsRepo {
	return &PrescriptionsRepo{db: db}
}

// medicineJSON es la forma persistida en la columna JSONB.
type medicineJSON struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Notes     string `json:"notes,omitempty"`
}

const prescriptionColumns = `
	id, patient_id, doctor_id, facility,
	issue_date, expiry_date, medicines, instructions,
	status, verification_code, created_at`

// Create se apoya en la UNIQUE de verification_code: el 23505 es el
// check-and-set atómico. La auditoría va en la misma transacción.
func (r *PrescriptionsRepo) Create(ctx context.Context, p prescriptions.Prescription, ar audit.Record) (audit.Record, error) {
	meds := make([]medicineJSON, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		meds = append(meds, medicineJSON(m))
	}
	raw, err := json.Marshal(meds)
	if err != nil {
		return audit.Record{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return audit.Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO prescriptions (`+prescriptionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID, p.PatientID, p.DoctorID, p.Facility,
		p.IssueDate, p.ExpiryDate, raw, p.Instructions,
		string(p.Status), p.VerificationCode, p.CreatedAt,
	)
	if name, ok := uniqueConstraint(err); ok && name == "prescriptions_verification_code_key" {
		return audit.Record{}, prescriptions.ErrDuplicateCode
	}
	if err != nil {
		return audit.Record{}, err
	}

	saved, err := appendAudit(ctx, tx, ar, ar.Timestamp)
	if err != nil {
		return audit.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return audit.Record{}, err
	}
	return saved, nil
}

func (r *PrescriptionsRepo) GetByID(ctx context.Context, id string) (prescriptions.Prescription, error) {
	return r.getOne(ctx, `id`, strings.TrimSpace(id))
}

func (r *PrescriptionsRepo) GetByCode(ctx context.Context, code string) (prescriptions.Prescription, error) {
	return r.getOne(ctx, `verification_code`, strings.TrimSpace(code))
}

func (r *PrescriptionsRepo) getOne(ctx context.Context, column, value string) (prescriptions.Prescription, error) {
	if value == "" {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+prescriptionColumns+` FROM prescriptions WHERE `+column+` = $1`, value)
	p, err := scanPrescription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return prescriptions.Prescription{}, prescriptions.ErrNotFound
	}
	return p, err
}

func (r *PrescriptionsRepo) ListByPatient(ctx context.Context, patientID string) ([]prescriptions.Prescription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prescriptionColumns+`
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY issue_date DESC, id DESC
	`, strings.TrimSpace(patientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]prescriptions.Prescription, 0)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrescription(s scanner) (prescriptions.Prescription, error) {
	var (
		p      prescriptions.Prescription
		raw    []byte
		status string
	)
	if err := s.Scan(
		&p.ID, &p.PatientID, &p.DoctorID, &p.Facility,
		&p.IssueDate, &p.ExpiryDate, &raw, &p.Instructions,
		&status, &p.VerificationCode, &p.CreatedAt,
	); err != nil {
		return prescriptions.Prescription{}, err
	}
	p.Status = prescriptions.Status(status)

	var meds []medicineJSON
	if err := json.Unmarshal(raw, &meds); err != nil {
		return prescriptions.Prescription{}, err
	}
	p.Medicines = make([]prescriptions.Medicine, 0, len(meds))
	for _, m := range meds {
		p.Medicines = append(p.Medicines, prescriptions.Medicine(m))
	}
	return p, nil
}
