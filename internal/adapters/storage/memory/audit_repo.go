package memory

import (
	"context"
	"time"

	"clinical-rx-core/internal/domain/audit"
)

type auditRepo struct{ s *Store }

// Append: id = posición + 1; timestamp nunca menor al anterior.
func (r auditRepo) Append(ctx context.Context, rec audit.Record, now time.Time) (audit.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.appendAuditLocked(rec, now), nil
}

// appendAuditLocked requiere s.mu tomado; lo usan también los repos que
// escriben su auditoría junto con la mutación.
func (s *Store) appendAuditLocked(rec audit.Record, now time.Time) audit.Record {
	rec.ID = int64(len(s.audit) + 1)
	rec.Timestamp = now
	if n := len(s.audit); n > 0 {
		if last := s.audit[n-1].Timestamp; last.After(now) {
			rec.Timestamp = last
		}
	}
	rec.Details = audit.CloneDetails(rec.Details)

	s.audit = append(s.audit, rec)
	return cloneAudit(rec)
}

func (r auditRepo) Get(ctx context.Context, id int64) (audit.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if id <= 0 || id > int64(len(r.s.audit)) {
		return audit.Record{}, audit.ErrNotFound
	}
	return cloneAudit(r.s.audit[id-1]), nil
}

// List recorre de atrás hacia adelante: el orden de inserción ya es
// timestamp ascendente.
func (r auditRepo) List(ctx context.Context, f audit.Filter) ([]audit.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]audit.Record, 0)
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		rec := r.s.audit[i]
		if !f.Matches(rec) {
			continue
		}
		out = append(out, cloneAudit(rec))
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func cloneAudit(rec audit.Record) audit.Record {
	rec.Details = audit.CloneDetails(rec.Details)
	return rec
}
