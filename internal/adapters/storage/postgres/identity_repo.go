package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"clinical-rx-core/internal/domain/identity"

	"github.com/lib/pq"
)

type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

const userColumns = `
	u.id, u.name, u.role,
	u.email, u.phone_number, u.national_id,
	u.specialization, u.hospital, u.license_number,
	u.address, u.contact_person, u.department, u.access_level,
	u.created_at`

const insertUserSQL = `
	INSERT INTO users (
		id, name, role,
		email, phone_number, national_id,
		specialization, hospital, license_number,
		address, contact_person, department, access_level,
		created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, ex execer, u identity.User) error {
	_, err := ex.ExecContext(ctx, insertUserSQL,
		u.ID, u.Name, string(u.Role),
		u.Email, u.PhoneNumber, u.NationalID,
		u.Specialization, u.Hospital, u.LicenseNumber,
		u.Address, u.ContactPerson, u.Department, u.AccessLevel,
		u.CreatedAt,
	)
	return mapIdentityErr(err)
}

func (r *IdentityRepo) CreateUser(ctx context.Context, u identity.User) error {
	return insertUser(ctx, r.db, u)
}

// CreatePatient inserta users + patients en una transacción.
func (r *IdentityRepo) CreatePatient(ctx context.Context, p identity.Patient) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertUser(ctx, tx, p.User); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO patients (
			user_id, date_of_birth, gender,
			blood_group, emergency_contact,
			allergies, chronic_conditions,
			health_card_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		p.ID, p.DateOfBirth, string(p.Gender),
		p.BloodGroup, p.EmergencyContact,
		pq.Array(nonNilStrings(p.Allergies)), pq.Array(nonNilStrings(p.ChronicConditions)),
		p.HealthCardID,
	)
	if err != nil {
		return mapIdentityErr(err)
	}

	return tx.Commit()
}

func (r *IdentityRepo) GetUser(ctx context.Context, id string) (identity.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return identity.User{}, identity.ErrUserNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, identity.ErrUserNotFound
	}
	return u, err
}

func (r *IdentityRepo) GetPatient(ctx context.Context, id string) (identity.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return identity.Patient{}, identity.ErrUserNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`,
			p.date_of_birth, p.gender, p.blood_group, p.emergency_contact,
			p.allergies, p.chronic_conditions, p.health_card_id
		FROM users u
		JOIN patients p ON p.user_id = u.id
		WHERE u.id = $1
	`, id)

	var (
		p      identity.Patient
		role   string
		gender string
	)
	err := row.Scan(
		&p.ID, &p.Name, &role,
		&p.Email, &p.PhoneNumber, &p.NationalID,
		&p.Specialization, &p.Hospital, &p.LicenseNumber,
		&p.Address, &p.ContactPerson, &p.Department, &p.AccessLevel,
		&p.CreatedAt,
		&p.DateOfBirth, &gender, &p.BloodGroup, &p.EmergencyContact,
		pq.Array(&p.Allergies), pq.Array(&p.ChronicConditions), &p.HealthCardID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Patient{}, identity.ErrUserNotFound
		}
		return identity.Patient{}, err
	}
	p.Role = identity.Role(role)
	p.Gender = identity.Gender(gender)
	return p, nil
}

func (r *IdentityRepo) ListByRole(ctx context.Context, role identity.Role) ([]identity.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u
		WHERE u.role = $1
		ORDER BY u.created_at ASC, u.id ASC
	`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]identity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (identity.User, error) {
	var (
		u    identity.User
		role string
	)
	err := s.Scan(
		&u.ID, &u.Name, &role,
		&u.Email, &u.PhoneNumber, &u.NationalID,
		&u.Specialization, &u.Hospital, &u.LicenseNumber,
		&u.Address, &u.ContactPerson, &u.Department, &u.AccessLevel,
		&u.CreatedAt,
	)
	u.Role = identity.Role(role)
	return u, err
}

func mapIdentityErr(err error) error {
	if err == nil {
		return nil
	}
	if name, ok := uniqueConstraint(err); ok {
		switch name {
		case "patients_health_card_id_key":
			return identity.ErrDuplicateHealthCard
		default:
			return identity.ErrDuplicateUser
		}
	}
	return err
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
