package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinical-rx-core/internal/domain/dispense"
)

type sessionKey struct {
	prescriptionID string
	pharmacyID     string
}

type session struct {
	lines     map[int]dispense.Line
	touchedAt time.Time
}

// SessionStore guarda sesiones de dispensación en memoria. Con ttl > 0
// una sesión sin actividad por más de ttl se considera vacía.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[sessionKey]*session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[sessionKey]*session),
	}
}

func (s *SessionStore) Mark(ctx context.Context, prescriptionID, pharmacyID string, l dispense.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := sessionKey{prescriptionID, pharmacyID}
	sess := s.live(k)
	if sess == nil {
		sess = &session{lines: make(map[int]dispense.Line)}
		s.sessions[k] = sess
	}
	if _, marked := sess.lines[l.MedicineIndex]; marked {
		return dispense.ErrLineAlreadyMarked
	}
	sess.lines[l.MedicineIndex] = l
	sess.touchedAt = s.now()
	return nil
}

func (s *SessionStore) Lines(ctx context.Context, prescriptionID, pharmacyID string) ([]dispense.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionKey{prescriptionID, pharmacyID})
	if sess == nil {
		return []dispense.Line{}, nil
	}
	out := make([]dispense.Line, 0, len(sess.lines))
	for _, l := range sess.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MedicineIndex < out[j].MedicineIndex })
	return out, nil
}

func (s *SessionStore) Discard(ctx context.Context, prescriptionID, pharmacyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionKey{prescriptionID, pharmacyID})
	return nil
}

// live devuelve la sesión si existe y no venció; las vencidas se borran.
func (s *SessionStore) live(k sessionKey) *session {
	sess, ok := s.sessions[k]
	if !ok {
		return nil
	}
	if s.ttl > 0 && s.now().Sub(sess.touchedAt) > s.ttl {
		delete(s.sessions, k)
		return nil
	}
	return sess
}
