package audit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/httpjson"
	"clinical-rx-core/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, idSvc *identity.Service, log logger.Logger) {
	r.Route("/audit", func(ar chi.Router) {
		ar.Get("/", queryHandler(svc, idSvc, log))
		ar.Get("/summary", summaryHandler(svc, idSvc, log))
		ar.Get("/{auditID}", getHandler(svc, idSvc, log))
		ar.Post("/{auditID}/flag", flagHandler(svc, idSvc, log))
	})
}

type recordResponse struct {
	ID        int64          `json:"id"`
	Type      Type           `json:"type"`
	EntityID  string         `json:"entity_id"`
	ActorID   string         `json:"actor_id"`
	ActorRole identity.Role  `json:"actor_role"`
	Action    string         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details"`
	Flagged   bool           `json:"flagged"`
	Reason    string         `json:"reason,omitempty"`
}

type flagRequest struct {
	Reason string `json:"reason"`
}

// queryHandler godoc
// @Summary Consultar registros de auditoría
// @Description Admin y auditor. Orden por timestamp descendente.
// @Tags audit
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param type query string false "prescription | dispense | access"
// @Param role query string false "Rol del actor"
// @Param flagged query bool false "Solo marcados"
// @Param q query string false "Substring sobre action, entity id y type"
// @Param limit query int false "Máximo de resultados"
// @Success 200 {array} recordResponse
// @Failure 400 {object} httpjson.errorResponse
// @Failure 403 {object} httpjson.errorResponse
// @Router /audit [get]
func queryHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}

		q := r.URL.Query()
		f := Filter{
			Type:      Type(strings.TrimSpace(q.Get("type"))),
			ActorRole: identity.Role(strings.TrimSpace(q.Get("role"))),
			Query:     q.Get("q"),
		}
		if v := strings.TrimSpace(q.Get("flagged")); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				httpjson.WriteError(w, log, apperr.Validation("flagged must be a boolean"))
				return
			}
			f.FlaggedOnly = b
		}
		if v := strings.TrimSpace(q.Get("limit")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				httpjson.WriteError(w, log, apperr.Validation("limit must be an integer"))
				return
			}
			f.Limit = n
		}

		items, err := svc.Query(r.Context(), actor, f)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toResponse(rec))
		}
		httpjson.WriteJSON(w, http.StatusOK, out)
	}
}

func summaryHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		sum, err := svc.Summary(r.Context(), actor)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, sum)
	}
}

func getHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		id, err := auditID(r)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		rec, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toResponse(rec))
	}
}

// flagHandler godoc
// @Summary Marcar registro de auditoría
// @Description Agrega un registro nuevo marcado que referencia al original; el original no cambia.
// @Tags audit
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param auditID path int true "Audit record ID"
// @Param payload body flagRequest false "Motivo"
// @Success 201 {object} recordResponse
// @Failure 403 {object} httpjson.errorResponse
// @Failure 404 {object} httpjson.errorResponse
// @Router /audit/{auditID}/flag [post]
func flagHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		id, err := auditID(r)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		var req flagRequest
		if r.ContentLength != 0 {
			if err := httpjson.DecodeJSON(r, &req); err != nil {
				httpjson.WriteError(w, log, err)
				return
			}
		}

		rec, err := svc.Flag(r.Context(), actor, id, req.Reason)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusCreated, toResponse(rec))
	}
}

func auditID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "auditID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("audit id must be a positive integer")
	}
	return id, nil
}

func toResponse(rec Record) recordResponse {
	details := rec.Details
	if details == nil {
		details = map[string]any{}
	}
	return recordResponse{
		ID:        rec.ID,
		Type:      rec.Type,
		EntityID:  rec.EntityID,
		ActorID:   rec.ActorID,
		ActorRole: rec.ActorRole,
		Action:    rec.Action,
		Timestamp: rec.Timestamp,
		Details:   details,
		Flagged:   rec.Flagged,
		Reason:    rec.Reason,
	}
}
