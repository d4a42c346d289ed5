package records

import (
	"net/http"
	"strings"
	"time"

	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/httpjson"
	"clinical-rx-core/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, idSvc *identity.Service, log logger.Logger) {
	r.Route("/patients/{patientID}/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc, idSvc, log))
		rr.Get("/", listRecordsHandler(svc, idSvc, log))
	})

	r.Get("/records/{recordID}", getRecordHandler(svc, idSvc, log))
}

type createRecordRequest struct {
	Facility     string   `json:"facility"`
	Date         string   `json:"date"` // RFC3339 o YYYY-MM-DD; vacío => ahora
	Diagnosis    string   `json:"diagnosis"`
	Symptoms     []string `json:"symptoms"`
	Notes        string   `json:"notes"`
	FollowUpDate string   `json:"follow_up_date"`
	Attachments  []string `json:"attachments"`
}

type recordResponse struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patient_id"`
	DoctorID     string     `json:"doctor_id"`
	Facility     string     `json:"facility"`
	Date         time.Time  `json:"date"`
	Diagnosis    string     `json:"diagnosis"`
	Symptoms     []string   `json:"symptoms"`
	Notes        string     `json:"notes"`
	FollowUpDate *time.Time `json:"follow_up_date,omitempty"`
	Attachments  []string   `json:"attachments"`
	CreatedAt    time.Time  `json:"created_at"`
}

// createRecordHandler godoc
// @Summary Crear registro médico
// @Description Solo doctores. Append-only; genera un registro de auditoría.
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param patientID path string true "Patient ID"
// @Param payload body createRecordRequest true "Registro"
// @Success 201 {object} recordResponse
// @Failure 400 {object} httpjson.errorResponse
// @Failure 403 {object} httpjson.errorResponse
// @Router /patients/{patientID}/records [post]
func createRecordHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}

		var req createRecordRequest
		if err := httpjson.DecodeJSON(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		in := CreateInput{
			PatientID:   chi.URLParam(r, "patientID"),
			Facility:    req.Facility,
			Diagnosis:   req.Diagnosis,
			Symptoms:    req.Symptoms,
			Notes:       req.Notes,
			Attachments: req.Attachments,
		}
		if v := strings.TrimSpace(req.Date); v != "" {
			t, err := ParseDate(v)
			if err != nil {
				httpjson.WriteError(w, log, apperr.Validation("date must be RFC3339 or YYYY-MM-DD"))
				return
			}
			in.Date = t
		}
		if v := strings.TrimSpace(req.FollowUpDate); v != "" {
			t, err := ParseDate(v)
			if err != nil {
				httpjson.WriteError(w, log, apperr.Validation("follow_up_date must be RFC3339 or YYYY-MM-DD"))
				return
			}
			in.FollowUpDate = &t
		}

		rec, err := svc.Create(r.Context(), actor, in)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusCreated, toResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar registros de un paciente
// @Description Doctor o el propio paciente. Orden por fecha descendente.
// @Tags records
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param patientID path string true "Patient ID"
// @Success 200 {array} recordResponse
// @Failure 403 {object} httpjson.errorResponse
// @Failure 404 {object} httpjson.errorResponse
// @Router /patients/{patientID}/records [get]
func listRecordsHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}

		items, err := svc.ListForPatient(r.Context(), actor, chi.URLParam(r, "patientID"))
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

func getRecordHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		rec, err := svc.Get(r.Context(), actor, chi.URLParam(r, "recordID"))
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toResponse(rec))
	}
}

// ParseDate acepta RFC3339 o fecha sola (UTC).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

func toResponse(rec MedicalRecord) recordResponse {
	symptoms := rec.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	attachments := rec.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return recordResponse{
		ID:           rec.ID,
		PatientID:    rec.PatientID,
		DoctorID:     rec.DoctorID,
		Facility:     rec.Facility,
		Date:         rec.Date,
		Diagnosis:    rec.Diagnosis,
		Symptoms:     symptoms,
		Notes:        rec.Notes,
		FollowUpDate: rec.FollowUpDate,
		Attachments:  attachments,
		CreatedAt:    rec.CreatedAt,
	}
}
