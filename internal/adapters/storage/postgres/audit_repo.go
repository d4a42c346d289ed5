package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/audit"
	"clinical-rx-core/internal/domain/identity"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// auditLockKey serializa los Append para que ts nunca retroceda.
const auditLockKey int64 = 0x41554449

var auditDialect = goqu.Dialect("postgres")

type AuditRepo struct {
	db *sql.DB
	gq *goqu.Database
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{
		db: db,
		gq: goqu.New("postgres", db),
	}
}

var auditSelect = []any{
	"id", "type", "entity_id", "actor_id", "actor_role",
	"action", "ts", "details", "flagged", "reason",
}

func (r *AuditRepo) Append(ctx context.Context, rec audit.Record, now time.Time) (audit.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return audit.Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	saved, err := appendAudit(ctx, tx, rec, now)
	if err != nil {
		return audit.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return audit.Record{}, err
	}
	return saved, nil
}

// appendAudit inserta dentro de tx; el lock se libera con el commit o el
// rollback de quien llama. Los repos de escritura lo usan para que la
// auditoría entre en la misma transacción que su mutación.
func appendAudit(ctx context.Context, tx *sql.Tx, rec audit.Record, now time.Time) (audit.Record, error) {
	details := rec.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return audit.Record{}, err
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, auditLockKey); err != nil {
		return audit.Record{}, err
	}

	var last sql.NullTime
	if err := tx.QueryRowContext(ctx, `SELECT MAX(ts) FROM audit_records`).Scan(&last); err != nil {
		return audit.Record{}, err
	}
	rec.Timestamp = now
	if last.Valid && last.Time.After(now) {
		rec.Timestamp = last.Time
	}

	query, args, err := auditDialect.Insert("audit_records").
		Prepared(true).
		Rows(goqu.Record{
			"type":       string(rec.Type),
			"entity_id":  rec.EntityID,
			"actor_id":   rec.ActorID,
			"actor_role": string(rec.ActorRole),
			"action":     rec.Action,
			"ts":         rec.Timestamp,
			"details":    string(raw),
			"flagged":    rec.Flagged,
			"reason":     rec.Reason,
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return audit.Record{}, err
	}

	if err := tx.QueryRowContext(ctx, query, args...).Scan(&rec.ID); err != nil {
		return audit.Record{}, err
	}

	rec.Details = details
	return rec, nil
}

func (r *AuditRepo) Get(ctx context.Context, id int64) (audit.Record, error) {
	query, args, err := r.gq.From("audit_records").
		Prepared(true).
		Select(auditSelect...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return audit.Record{}, err
	}

	rec, err := scanAudit(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Record{}, audit.ErrNotFound
	}
	return rec, err
}

// List arma el WHERE dinámico con goqu; orden ts desc, id desc.
func (r *AuditRepo) List(ctx context.Context, f audit.Filter) ([]audit.Record, error) {
	ds := r.gq.From("audit_records").Prepared(true).Select(auditSelect...)

	if f.Type != "" {
		ds = ds.Where(goqu.C("type").Eq(string(f.Type)))
	}
	if f.ActorRole != "" {
		ds = ds.Where(goqu.C("actor_role").Eq(string(f.ActorRole)))
	}
	if f.FlaggedOnly {
		ds = ds.Where(goqu.C("flagged").IsTrue())
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("action").ILike(pattern),
			goqu.C("entity_id").ILike(pattern),
			goqu.C("type").ILike(pattern),
		))
	}
	ds = ds.Order(goqu.C("ts").Desc(), goqu.C("id").Desc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Record, 0)
	for rows.Next() {
		rec, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanAudit(s scanner) (audit.Record, error) {
	var (
		rec  audit.Record
		typ  string
		role string
		raw  []byte
	)
	if err := s.Scan(
		&rec.ID, &typ, &rec.EntityID, &rec.ActorID, &role,
		&rec.Action, &rec.Timestamp, &raw, &rec.Flagged, &rec.Reason,
	); err != nil {
		return audit.Record{}, err
	}
	rec.Type = audit.Type(typ)
	rec.ActorRole = identity.Role(role)

	rec.Details = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Details); err != nil {
			return audit.Record{}, err
		}
	}
	return rec, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
