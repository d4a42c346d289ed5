package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/dispense"
)

type DispenseRepo struct {
	db *sql.DB
}

func NewDispenseRepo(db *sql.DB) *DispenseRepo {
	return &DispenseRepo{db: db}
}

type lineJSON struct {
	MedicineIndex int       `json:"medicine_index"`
	MedicineName  string    `json:"medicine_name"`
	Quantity      int       `json:"quantity"`
	BatchNumber   string    `json:"batch_number"`
	DispensedAt   time.Time `json:"dispensed_at"`
}

const dispenseColumns = `
	id, prescription_id, pharmacy_id, dispensed_at,
	lines, verification_code, status`

// Finalize: UPDATE condicional + INSERT + auditoría en la misma
// transacción. La UNIQUE sobre prescription_id cubre la carrera que el
// UPDATE no alcance a ver.
func (r *DispenseRepo) Finalize(ctx context.Context, rec dispense.DispenseRecord, now time.Time, ar audit.Record) (audit.Record, error) {
	lines := make([]lineJSON, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		lines = append(lines, lineJSON(l))
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return audit.Record{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return audit.Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE prescriptions
		SET status = 'completed'
		WHERE id = $1 AND status = 'active' AND expiry_date > $2
	`, rec.PrescriptionID, now)
	if err != nil {
		return audit.Record{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return audit.Record{}, err
	}
	if n == 0 {
		return audit.Record{}, r.whyNotFinalized(ctx, tx, rec.PrescriptionID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dispense_records (`+dispenseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		rec.ID, rec.PrescriptionID, rec.PharmacyID, rec.DispensedAt,
		raw, rec.VerificationCode, string(rec.Status),
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return audit.Record{}, dispense.ErrAlreadyCompleted
		}
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

// whyNotFinalized distingue receta inexistente, ya completada o vencida.
func (r *DispenseRepo) whyNotFinalized(ctx context.Context, tx *sql.Tx, prescriptionID string) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM prescriptions WHERE id = $1`, prescriptionID).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return dispense.ErrPrescriptionNotFound
	case err != nil:
		return err
	case status == "completed":
		return dispense.ErrAlreadyCompleted
	default:
		return dispense.ErrPrescriptionExpired
	}
}

func (r *DispenseRepo) GetByPrescription(ctx context.Context, prescriptionID string) (dispense.DispenseRecord, error) {
	prescriptionID = strings.TrimSpace(prescriptionID)
	if prescriptionID == "" {
		return dispense.DispenseRecord{}, dispense.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+dispenseColumns+` FROM dispense_records WHERE prescription_id = $1`, prescriptionID)
	rec, err := scanDispense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return dispense.DispenseRecord{}, dispense.ErrNotFound
	}
	return rec, err
}

func (r *DispenseRepo) ListByPharmacy(ctx context.Context, pharmacyID string) ([]dispense.DispenseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+dispenseColumns+`
		FROM dispense_records
		WHERE pharmacy_id = $1
		ORDER BY dispensed_at DESC, id DESC
	`, strings.TrimSpace(pharmacyID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dispense.DispenseRecord, 0)
	for rows.Next() {
		rec, err := scanDispense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanDispense(s scanner) (dispense.DispenseRecord, error) {
	var (
		rec    dispense.DispenseRecord
		raw    []byte
		status string
	)
	if err := s.Scan(
		&rec.ID, &rec.PrescriptionID, &rec.PharmacyID, &rec.DispensedAt,
		&raw, &rec.VerificationCode, &status,
	); err != nil {
		return dispense.DispenseRecord{}, err
	}
	rec.Status = dispense.RecordStatus(status)

	var lines []lineJSON
	if err := json.Unmarshal(raw, &lines); err != nil {
		return dispense.DispenseRecord{}, err
	}
	rec.Lines = make([]dispense.Line, 0, len(lines))
	for _, l := range lines {
		rec.Lines = append(rec.Lines, dispense.Line(l))
	}
	return rec, nil
}
