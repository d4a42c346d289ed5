package audit

import (
	"strings"
	"time"

	"clinical-rx-core/internal/domain/identity"
)

type Type string

const (
	TypePrescription Type = "prescription"
	TypeDispense     Type = "dispense"
	TypeAccess       Type = "access"
)

func (t Type) Valid() bool {
	switch t {
	case TypePrescription, TypeDispense, TypeAccess:
		return true
	}
	return false
}

// DefaultFlagReason se usa cuando se marca un registro sin motivo explícito.
const DefaultFlagReason = "Suspicious activity detected"

// Record es append-only: ID y Timestamp los asigna el repositorio.
// Details admite valores JSON (strings, números, listas, objetos).
type Record struct {
	ID        int64
	Type      Type
	EntityID  string
	ActorID   string
	ActorRole identity.Role
	Action    string
	Timestamp time.Time
	Details   map[string]any
	Flagged   bool
	Reason    string
}

// MedicineLine es lo mínimo que la política necesita para evaluar una receta.
type MedicineLine struct {
	Name      string
	Dosage    string
	Frequency string
}

// Entry es lo que escriben los otros módulos.
type Entry struct {
	Type     Type
	EntityID string
	Actor    identity.User
	Action   string
	Details  map[string]any

	// Flagged fuerza la marca; si es false decide la política.
	Flagged bool
	Reason  string

	Medicines []MedicineLine
}

// Filter: todos los campos son opcionales.
type Filter struct {
	Type        Type
	ActorRole   identity.Role
	FlaggedOnly bool
	// Query es substring case-insensitive sobre action, entity id y type.
	Query string
	Limit int
}

// Matches lo usa el adapter in-memory; el de Postgres traduce a SQL.
func (f Filter) Matches(r Record) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.ActorRole != "" && r.ActorRole != f.ActorRole {
		return false
	}
	if f.FlaggedOnly && !r.Flagged {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Action), q) ||
		strings.Contains(strings.ToLower(r.EntityID), q) ||
		strings.Contains(string(r.Type), q)
}

type Summary struct {
	Total   int          `json:"total"`
	Flagged int          `json:"flagged"`
	ByType  map[Type]int `json:"by_type"`
}
