package dispense

import (
	"net/http"
	"time"

	"clinical-rx-core/internal/domain/identity"
	"clinical-rx-core/internal/platform/httpjson"
	"clinical-rx-core/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, idSvc *identity.Service, log logger.Logger) {
	r.Route("/prescriptions/{prescriptionID}/dispense", func(dr chi.Router) {
		dr.Post("/", dispenseLineHandler(svc, idSvc, log))
		dr.Get("/", sessionHandler(svc, idSvc, log))
		dr.Delete("/", discardHandler(svc, idSvc, log))
		dr.Post("/complete", completeHandler(svc, idSvc, log))
		dr.Get("/record", recordHandler(svc, idSvc, log))
	})

	r.Get("/me/dispensations", myDispensationsHandler(svc, idSvc, log))
	r.Get("/pharmacies/{pharmacyID}/dispensations", pharmacyDispensationsHandler(svc, idSvc, log))
}

type dispenseLineRequest struct {
	MedicineIndex *int   `json:"medicine_index"`
	Quantity      int    `json:"quantity"`
	BatchNumber   string `json:"batch_number"`
}

type lineResponse struct {
	MedicineIndex int       `json:"medicine_index"`
	MedicineName  string    `json:"medicine_name"`
	Quantity      int       `json:"quantity"`
	BatchNumber   string    `json:"batch_number"`
	DispensedAt   time.Time `json:"dispensed_at"`
}

type sessionResponse struct {
	PrescriptionID string         `json:"prescription_id"`
	PharmacyID     string         `json:"pharmacy_id"`
	Lines          []lineResponse `json:"lines"`
	Pending        []int          `json:"pending"`
	Status         RecordStatus   `json:"status"`
}

type recordResponse struct {
	ID               string         `json:"id"`
	PrescriptionID   string         `json:"prescription_id"`
	PharmacyID       string         `json:"pharmacy_id"`
	DispensedAt      time.Time      `json:"dispensed_at"`
	Lines            []lineResponse `json:"lines"`
	VerificationCode string         `json:"verification_code"`
	Status           RecordStatus   `json:"status"`
}

// dispenseLineHandler godoc
// @Summary Marcar una medicina como dispensada
// @Description Solo farmacias. La línea queda en la sesión hasta completar.
// @Tags dispense
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param prescriptionID path string true "Prescription ID"
// @Param payload body dispenseLineRequest true "Línea"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} httpjson.errorResponse
// @Failure 409 {object} httpjson.errorResponse
// @Failure 410 {object} httpjson.errorResponse
// @Router /prescriptions/{prescriptionID}/dispense [post]
func dispenseLineHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}

		var req dispenseLineRequest
		if err := httpjson.DecodeJSON(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		idx := -1
		if req.MedicineIndex != nil {
			idx = *req.MedicineIndex
		}

		v, err := svc.DispenseMedicine(r.Context(), actor, chi.URLParam(r, "prescriptionID"), LineInput{
			MedicineIndex: idx,
			Quantity:      req.Quantity,
			BatchNumber:   req.BatchNumber,
		})
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toSessionResponse(v))
	}
}

func sessionHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		v, err := svc.Session(r.Context(), actor, chi.URLParam(r, "prescriptionID"))
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toSessionResponse(v))
	}
}

func discardHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		if err := svc.Discard(r.Context(), actor, chi.URLParam(r, "prescriptionID")); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// completeHandler godoc
// @Summary Completar dispensación
// @Description Requiere todas las líneas marcadas. Crea un único registro y pasa la receta a completed.
// @Tags dispense
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param prescriptionID path string true "Prescription ID"
// @Success 201 {object} recordResponse
// @Failure 409 {object} httpjson.errorResponse
// @Failure 410 {object} httpjson.errorResponse
// @Router /prescriptions/{prescriptionID}/dispense/complete [post]
func completeHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		rec, err := svc.CompleteDispensation(r.Context(), actor, chi.URLParam(r, "prescriptionID"))
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

func recordHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		rec, err := svc.GetForPrescription(r.Context(), actor, chi.URLParam(r, "prescriptionID"))
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func myDispensationsHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		writeList(w, log, svc, r, actor, actor.ID)
	}
}

func pharmacyDispensationsHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		writeList(w, log, svc, r, actor, chi.URLParam(r, "pharmacyID"))
	}
}

func writeList(w http.ResponseWriter, log logger.Logger, svc *Service, r *http.Request, actor identity.User, pharmacyID string) {
	items, err := svc.ListForPharmacy(r.Context(), actor, pharmacyID)
	if err != nil {
		httpjson.WriteError(w, log, err)
		return
	}
	out := make([]recordResponse, 0, len(items))
	for _, rec := range items {
		out = append(out, toRecordResponse(rec))
	}
	httpjson.WriteJSON(w, http.StatusOK, out)
}

func toLines(in []Line) []lineResponse {
	out := make([]lineResponse, 0, len(in))
	for _, l := range in {
		out = append(out, lineResponse(l))
	}
	return out
}

func toSessionResponse(v SessionView) sessionResponse {
	return sessionResponse{
		PrescriptionID: v.PrescriptionID,
		PharmacyID:     v.PharmacyID,
		Lines:          toLines(v.Lines),
		Pending:        v.Pending,
		Status:         v.Status,
	}
}

func toRecordResponse(rec DispenseRecord) recordResponse {
	return recordResponse{
		ID:               rec.ID,
		PrescriptionID:   rec.PrescriptionID,
		PharmacyID:       rec.PharmacyID,
		DispensedAt:      rec.DispensedAt,
		Lines:            toLines(rec.Lines),
		VerificationCode: rec.VerificationCode,
		Status:           rec.Status,
	}
}
