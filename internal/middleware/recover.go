package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"clinical-rx-core/internal/platform/httpjson"
	"clinical-rx-core/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

var errPanic = errors.New("panic in handler")

// Recover reemplaza a chimw.Recoverer: loguea el panic con el request id y
// responde 500 con el mismo cuerpo opaco que cualquier error interno.
func Recover(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered", map[string]any{
					"panic":      rec,
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": chimw.GetReqID(r.Context()),
					"stack":      string(debug.Stack()),
				})
				httpjson.WriteError(w, log, errPanic)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
