package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/records"

	"github.com/lib/pq"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

const recordColumns = `
	id, patient_id, doctor_id, facility,
	record_date, diagnosis, symptoms, notes,
	follow_up_date, attachments, created_at`

func (r *RecordsRepo) Create(ctx context.Context, rec records.MedicalRecord, ar audit.Record) (audit.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return audit.Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO medical_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.Facility,
		rec.Date, rec.Diagnosis, pq.Array(rec.Symptoms), rec.Notes,
		nullTime(rec.FollowUpDate), pq.Array(nonNilStrings(rec.Attachments)), rec.CreatedAt,
	)
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

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.MedicalRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.MedicalRecord{}, records.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM medical_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return records.MedicalRecord{}, records.ErrNotFound
	}
	return rec, err
}

func (r *RecordsRepo) ListByPatient(ctx context.Context, patientID string) ([]records.MedicalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY record_date DESC, created_at DESC, id DESC
	`, strings.TrimSpace(patientID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.MedicalRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(s scanner) (records.MedicalRecord, error) {
	var (
		rec records.MedicalRecord
		fu  sql.NullTime
	)
	if err := s.Scan(
		&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.Facility,
		&rec.Date, &rec.Diagnosis, pq.Array(&rec.Symptoms), &rec.Notes,
		&fu, pq.Array(&rec.Attachments), &rec.CreatedAt,
	); err != nil {
		return records.MedicalRecord{}, err
	}
	if fu.Valid {
		t := fu.Time
		rec.FollowUpDate = &t
	}
	return rec, nil
}
