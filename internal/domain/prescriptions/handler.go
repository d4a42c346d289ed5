package prescriptions

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
	r.Route("/prescriptions", func(pr chi.Router) {
		pr.Post("/", createPrescriptionHandler(svc, idSvc, log))
		pr.Post("/verify", verifyPrescriptionHandler(svc, idSvc, log))
		pr.Get("/{prescriptionID}", getPrescriptionHandler(svc, idSvc, log))
	})

	r.Get("/patients/{patientID}/prescriptions", listPrescriptionsHandler(svc, idSvc, log))
}

type medicineDTO struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Notes     string `json:"notes,omitempty"`
}

type createPrescriptionRequest struct {
	PatientID    string        `json:"patient_id"`
	Facility     string        `json:"facility"`
	IssueDate    string        `json:"issue_date"`  // RFC3339 o YYYY-MM-DD
	ExpiryDate   string        `json:"expiry_date"` // vacío => emisión + validez configurada
	Medicines    []medicineDTO `json:"medicines"`
	Instructions string        `json:"instructions"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type PrescriptionResponse struct {
	ID               string        `json:"id"`
	PatientID        string        `json:"patient_id"`
	DoctorID         string        `json:"doctor_id"`
	Facility         string        `json:"facility"`
	IssueDate        time.Time     `json:"issue_date"`
	ExpiryDate       time.Time     `json:"expiry_date"`
	Medicines        []medicineDTO `json:"medicines"`
	Instructions     string        `json:"instructions"`
	Status           Status        `json:"status" enums:"active,completed,expired"`
	VerificationCode string        `json:"verification_code"`
	CreatedAt        time.Time     `json:"created_at"`
}

// createPrescriptionHandler godoc
// @Summary Emitir receta
// @Description Solo doctores. Genera un código de verificación único de 6 caracteres.
// @Tags prescriptions
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body createPrescriptionRequest true "Receta"
// @Success 201 {object} PrescriptionResponse
// @Failure 400 {object} httpjson.errorResponse
// @Failure 403 {object} httpjson.errorResponse
// @Router /prescriptions [post]
func createPrescriptionHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}

		var req createPrescriptionRequest
		if err := httpjson.DecodeJSON(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		in := CreateInput{
			PatientID:    req.PatientID,
			Facility:     req.Facility,
			Instructions: req.Instructions,
		}
		for _, m := range req.Medicines {
			in.Medicines = append(in.Medicines, Medicine(m))
		}

		var err error
		if in.IssueDate, err = parseOptionalDate(req.IssueDate, "issue_date"); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		if in.ExpiryDate, err = parseOptionalDate(req.ExpiryDate, "expiry_date"); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		p, err := svc.Create(r.Context(), actor, in)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusCreated, toResponse(p))
	}
}

// verifyPrescriptionHandler godoc
// @Summary Verificar receta por código
// @Description Farmacia o doctor. 404 si el código no existe; 410 con la receta si venció.
// @Tags prescriptions
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body verifyRequest true "Código"
// @Success 200 {object} PrescriptionResponse
// @Failure 404 {object} httpjson.errorResponse
// @Failure 410 {object} map[string]any
// @Router /prescriptions/verify [post]
func verifyPrescriptionHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}

		var req verifyRequest
		if err := httpjson.DecodeJSON(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		p, err := svc.Verify(r.Context(), actor, req.Code)
		if err != nil {
			if p.ID != "" {
				httpjson.WriteErrorWith(w, log, err, "prescription", toResponse(p))
				return
			}
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toResponse(p))
	}
}

func getPrescriptionHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := identity.CurrentUser(w, r, idSvc)
		if !ok {
			return
		}
		p, err := svc.Get(r.Context(), actor, chi.URLParam(r, "prescriptionID"))
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toResponse(p))
	}
}

func listPrescriptionsHandler(svc *Service, idSvc *identity.Service, log logger.Logger) http.HandlerFunc {
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
		out := make([]PrescriptionResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toResponse(p))
		}
		httpjson.WriteJSON(w, http.StatusOK, out)
	}
}

func parseOptionalDate(s, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

// toResponse arma el payload de la receta; Verify lo adjunta también a la
// respuesta de error cuando la receta venció.
func toResponse(p Prescription) PrescriptionResponse {
	meds := make([]medicineDTO, 0, len(p.Medicines))
	for _, m := range p.Medicines {
		meds = append(meds, medicineDTO(m))
	}
	return PrescriptionResponse{
		ID:               p.ID,
		PatientID:        p.PatientID,
		DoctorID:         p.DoctorID,
		Facility:         p.Facility,
		IssueDate:        p.IssueDate,
		ExpiryDate:       p.ExpiryDate,
		Medicines:        meds,
		Instructions:     p.Instructions,
		Status:           p.Status,
		VerificationCode: p.VerificationCode,
		CreatedAt:        p.CreatedAt,
	}
}
