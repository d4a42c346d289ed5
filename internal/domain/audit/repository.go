package audit

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("audit record not found")

type Repository interface {
	// Append asigna ID secuencial y Timestamp = max(now, último timestamp),
	// de modo que el orden de inserción nunca retrocede en el tiempo.
	// Los repos de recetas, historias y dispensación escriben su registro
	// con la misma regla dentro de su propia transacción.
	Append(ctx context.Context, r Record, now time.Time) (Record, error)
	Get(ctx context.Context, id int64) (Record, error)
	// List devuelve por timestamp descendente (y id descendente en empate).
	List(ctx context.Context, f Filter) ([]Record, error)
}
