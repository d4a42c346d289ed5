package audit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/logger"
)

// Observer recibe cada registro escrito (métricas).
type Observer interface {
	AuditRecorded(recordType string, flagged bool)
}

type Service struct {
	repo     Repository
	policy   Policy
	now      func() time.Time
	log      logger.Logger
	observer Observer
}

type Option func(*Service)

func WithNow(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithPolicy(p Policy) Option { return func(s *Service) { s.policy = p } }

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record es el camino de escritura interno; no pasa por authz porque lo
// invocan los otros services después de autorizar su propia operación.
func (s *Service) Record(ctx context.Context, e Entry) (Record, error) {
	rec, err := s.Prepare(e)
	if err != nil {
		return Record{}, err
	}

	saved, err := s.repo.Append(ctx, rec, rec.Timestamp)
	if err != nil {
		return Record{}, apperr.Internal("append audit record", err)
	}

	s.Committed(saved)
	return saved, nil
}

// Prepare valida la entrada y aplica la política, sin escribir nada.
// El registro devuelto lleva Timestamp = ahora como candidato; el repositorio
// que lo persista junto con su mutación asigna ID y ajusta el timestamp.
func (s *Service) Prepare(e Entry) (Record, error) {
	if !e.Type.Valid() {
		return Record{}, apperr.Validation("unknown audit type")
	}
	if strings.TrimSpace(e.Actor.ID) == "" {
		return Record{}, apperr.Validation("audit actor is required")
	}
	action := strings.TrimSpace(e.Action)
	if action == "" {
		return Record{}, apperr.Validation("audit action is required")
	}

	flagged, reason := e.Flagged, strings.TrimSpace(e.Reason)
	if !flagged {
		flagged, reason = s.policy.Evaluate(e.Medicines)
	}
	if flagged && reason == "" {
		reason = DefaultFlagReason
	}

	return Record{
		Type:      e.Type,
		EntityID:  strings.TrimSpace(e.EntityID),
		ActorID:   e.Actor.ID,
		ActorRole: e.Actor.Role,
		Action:    action,
		Timestamp: s.now(),
		Details:   CloneDetails(e.Details),
		Flagged:   flagged,
		Reason:    reason,
	}, nil
}

// Committed se llama una vez que el registro quedó persistido.
func (s *Service) Committed(saved Record) {
	if saved.Flagged {
		s.log.Warn("audit record flagged", map[string]any{
			"audit_id":  saved.ID,
			"type":      string(saved.Type),
			"entity_id": saved.EntityID,
			"actor_id":  saved.ActorID,
			"reason":    saved.Reason,
		})
	}
	if s.observer != nil {
		s.observer.AuditRecorded(string(saved.Type), saved.Flagged)
	}
}

// Query: admin y auditor. Orden timestamp descendente.
func (s *Service) Query(ctx context.Context, actor identity.User, f Filter) ([]Record, error) {
	if !identity.Can(actor, identity.OpReadAudit, "") {
		return nil, apperr.Forbidden("role cannot read audit records")
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Validation("unknown audit type")
	}
	if f.ActorRole != "" {
		if _, ok := identity.ParseRole(string(f.ActorRole)); !ok {
			return nil, apperr.Validation("unknown actor role")
		}
	}
	if f.Limit < 0 {
		return nil, apperr.Validation("limit must be >= 0")
	}
	f.Query = strings.TrimSpace(f.Query)

	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list audit records", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, actor identity.User, id int64) (Record, error) {
	if !identity.Can(actor, identity.OpReadAudit, "") {
		return Record{}, apperr.Forbidden("role cannot read audit records")
	}
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id int64) (Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, apperr.NotFound("audit record not found")
		}
		return Record{}, apperr.Internal("get audit record", err)
	}
	return rec, nil
}

// Flag no modifica el original: agrega un registro nuevo, marcado, que
// lo referencia.
func (s *Service) Flag(ctx context.Context, actor identity.User, id int64, reason string) (Record, error) {
	if !identity.Can(actor, identity.OpFlagAudit, "") {
		return Record{}, apperr.Forbidden("role cannot flag audit records")
	}
	orig, err := s.get(ctx, id)
	if err != nil {
		return Record{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultFlagReason
	}

	return s.Record(ctx, Entry{
		Type:     orig.Type,
		EntityID: orig.EntityID,
		Actor:    actor,
		Action:   "Flagged audit record #" + strconv.FormatInt(orig.ID, 10),
		Details: map[string]any{
			"flagged_record_id": orig.ID,
			"original_action":   orig.Action,
		},
		Flagged: true,
		Reason:  reason,
	})
}

// Summary alimenta las tarjetas del dashboard de admin.
func (s *Service) Summary(ctx context.Context, actor identity.User) (Summary, error) {
	items, err := s.Query(ctx, actor, Filter{})
	if err != nil {
		return Summary{}, err
	}
	out := Summary{ByType: map[Type]int{
		TypePrescription: 0,
		TypeDispense:     0,
		TypeAccess:       0,
	}}
	for _, r := range items {
		out.Total++
		if r.Flagged {
			out.Flagged++
		}
		out.ByType[r.Type]++
	}
	return out, nil
}

// CloneDetails copia en profundidad listas y objetos anidados; los repos
// en memoria la usan para no compartir mapas con quien llama.
func CloneDetails(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneDetails(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i := range t {
			out[i] = CloneDetails(t[i])
		}
		return out
	default:
		return v
	}
}
