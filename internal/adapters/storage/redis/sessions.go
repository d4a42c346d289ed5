package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"clinical-rx-core/internal/domain/dispense"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "rxcore:dispense"

// SessionStore guarda cada sesión como un hash: campo = índice de medicina,
// valor = línea en JSON. HSETNX da el "marcar una sola vez" atómico.
type SessionStore struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewSessionStore(rdb goredis.Cmdable, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

type lineJSON struct {
	MedicineIndex int       `json:"medicine_index"`
	MedicineName  string    `json:"medicine_name"`
	Quantity      int       `json:"quantity"`
	BatchNumber   string    `json:"batch_number"`
	DispensedAt   time.Time `json:"dispensed_at"`
}

func sessionKey(prescriptionID, pharmacyID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, prescriptionID, pharmacyID)
}

func (s *SessionStore) Mark(ctx context.Context, prescriptionID, pharmacyID string, l dispense.Line) error {
	raw, err := json.Marshal(lineJSON(l))
	if err != nil {
		return err
	}

	key := sessionKey(prescriptionID, pharmacyID)
	var set *goredis.BoolCmd
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		set = p.HSetNX(ctx, key, strconv.Itoa(l.MedicineIndex), raw)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark dispense line: %w", err)
	}
	if !set.Val() {
		return dispense.ErrLineAlreadyMarked
	}
	return nil
}

func (s *SessionStore) Lines(ctx context.Context, prescriptionID, pharmacyID string) ([]dispense.Line, error) {
	fields, err := s.rdb.HGetAll(ctx, sessionKey(prescriptionID, pharmacyID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load dispense session: %w", err)
	}
	return decodeLines(fields)
}

func (s *SessionStore) Discard(ctx context.Context, prescriptionID, pharmacyID string) error {
	if err := s.rdb.Del(ctx, sessionKey(prescriptionID, pharmacyID)).Err(); err != nil {
		return fmt.Errorf("discard dispense session: %w", err)
	}
	return nil
}

func decodeLines(fields map[string]string) ([]dispense.Line, error) {
	out := make([]dispense.Line, 0, len(fields))
	for field, raw := range fields {
		var l lineJSON
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("decode dispense line %s: %w", field, err)
		}
		out = append(out, dispense.Line(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MedicineIndex < out[j].MedicineIndex })
	return out, nil
}
