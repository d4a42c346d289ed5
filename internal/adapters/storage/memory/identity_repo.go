package memory

import (
	"context"
	"sort"
	"strings"

	"clinical-rx-core/internal/domain/identity"
)

type identityRepo struct{ s *Store }

func (r identityRepo) CreateUser(ctx context.Context, u identity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return ErrIDRequired
	}
	if _, exists := r.s.users[u.ID]; exists {
		return identity.ErrDuplicateUser
	}
	r.s.users[u.ID] = u
	return nil
}

// CreatePatient chequea id y health card en la misma sección crítica.
func (r identityRepo) CreatePatient(ctx context.Context, p identity.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return ErrIDRequired
	}
	if _, exists := r.s.users[p.ID]; exists {
		return identity.ErrDuplicateUser
	}
	if _, taken := r.s.healthCards[p.HealthCardID]; taken {
		return identity.ErrDuplicateHealthCard
	}

	p.Allergies = cloneStrings(p.Allergies)
	p.ChronicConditions = cloneStrings(p.ChronicConditions)

	r.s.users[p.ID] = p.User
	r.s.patients[p.ID] = p
	r.s.healthCards[p.HealthCardID] = p.ID
	return nil
}

func (r identityRepo) GetUser(ctx context.Context, id string) (identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return u, nil
}

func (r identityRepo) GetPatient(ctx context.Context, id string) (identity.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok {
		return identity.Patient{}, identity.ErrUserNotFound
	}
	p.Allergies = cloneStrings(p.Allergies)
	p.ChronicConditions = cloneStrings(p.ChronicConditions)
	return p, nil
}

func (r identityRepo) ListByRole(ctx context.Context, role identity.Role) ([]identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]identity.User, 0)
	for _, u := range r.s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
