package identity

import (
	"net/http"
	"strings"
	"time"

	"clinical-rx-core/internal/middleware"
	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/httpjson"
	"clinical-rx-core/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/users", func(ur chi.Router) {
		ur.Post("/", registerUserHandler(svc, log))
		ur.Get("/", listUsersHandler(svc, log))
	})

	r.Route("/patients", func(pr chi.Router) {
		pr.Post("/", registerPatientHandler(svc, log))
		pr.Get("/{patientID}", getPatientHandler(svc, log))
	})

	r.Get("/me", meHandler(svc))
}

// CurrentUser resuelve el actor del request. Si no hay claims o el usuario
// no existe responde 401 y devuelve ok=false.
func CurrentUser(w http.ResponseWriter, r *http.Request, svc *Service) (User, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		httpjson.Unauthorized(w)
		return User{}, false
	}
	u, err := svc.Resolve(r.Context(), claims.UserID)
	if err != nil {
		httpjson.Unauthorized(w)
		return User{}, false
	}
	return u, true
}

type registerUserRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           Role   `json:"role" enums:"doctor,pharmacy,admin,auditor"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	NationalID     string `json:"national_id"`
	Specialization string `json:"specialization"`
	Hospital       string `json:"hospital"`
	LicenseNumber  string `json:"license_number"`
	Address        string `json:"address"`
	ContactPerson  string `json:"contact_person"`
	Department     string `json:"department"`
	AccessLevel    int    `json:"access_level"`
}

type userResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	Email          string    `json:"email,omitempty"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	NationalID     string    `json:"national_id,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Hospital       string    `json:"hospital,omitempty"`
	LicenseNumber  string    `json:"license_number,omitempty"`
	Address        string    `json:"address,omitempty"`
	ContactPerson  string    `json:"contact_person,omitempty"`
	Department     string    `json:"department,omitempty"`
	AccessLevel    int       `json:"access_level,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type registerPatientRequest struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	PhoneNumber       string   `json:"phone_number"`
	NationalID        string   `json:"national_id"`
	DateOfBirth       string   `json:"date_of_birth"` // YYYY-MM-DD
	Gender            Gender   `json:"gender" enums:"male,female,other"`
	BloodGroup        string   `json:"blood_group"`
	EmergencyContact  string   `json:"emergency_contact"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronic_conditions"`
	HealthCardID      string   `json:"health_card_id"`
}

type patientResponse struct {
	userResponse
	DateOfBirth       string   `json:"date_of_birth"`
	Gender            Gender   `json:"gender"`
	BloodGroup        string   `json:"blood_group,omitempty"`
	EmergencyContact  string   `json:"emergency_contact,omitempty"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronic_conditions"`
	HealthCardID      string   `json:"health_card_id"`
}

// registerUserHandler godoc
// @Summary Registrar usuario (no paciente)
// @Description Solo admin. Registra doctores, farmacias, admins y auditores.
// @Tags identity
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body registerUserRequest true "Datos del usuario"
// @Success 201 {object} userResponse
// @Failure 400 {object} httpjson.errorResponse
// @Failure 401 {object} httpjson.errorResponse
// @Failure 403 {object} httpjson.errorResponse
// @Failure 409 {object} httpjson.errorResponse
// @Router /users [post]
func registerUserHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentUser(w, r, svc)
		if !ok {
			return
		}

		var req registerUserRequest
		if err := httpjson.DecodeJSON(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		u, err := svc.RegisterUser(r.Context(), actor, RegisterUserInput{
			ID:             req.ID,
			Name:           req.Name,
			Role:           req.Role,
			Email:          req.Email,
			PhoneNumber:    req.PhoneNumber,
			NationalID:     req.NationalID,
			Specialization: req.Specialization,
			Hospital:       req.Hospital,
			LicenseNumber:  req.LicenseNumber,
			Address:        req.Address,
			ContactPerson:  req.ContactPerson,
			Department:     req.Department,
			AccessLevel:    req.AccessLevel,
		})
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		httpjson.WriteJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func listUsersHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentUser(w, r, svc)
		if !ok {
			return
		}

		role := Role(strings.TrimSpace(r.URL.Query().Get("role")))
		items, err := svc.ListByRole(r.Context(), actor, role)
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		httpjson.WriteJSON(w, http.StatusOK, out)
	}
}

// registerPatientHandler godoc
// @Summary Registrar paciente
// @Description Admin o doctor. Si no se envía health_card_id se genera uno único.
// @Tags identity
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body registerPatientRequest true "Datos del paciente; date_of_birth YYYY-MM-DD"
// @Success 201 {object} patientResponse
// @Failure 400 {object} httpjson.errorResponse
// @Failure 403 {object} httpjson.errorResponse
// @Failure 409 {object} httpjson.errorResponse
// @Router /patients [post]
func registerPatientHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentUser(w, r, svc)
		if !ok {
			return
		}

		var req registerPatientRequest
		if err := httpjson.DecodeJSON(r, &req); err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		var dob time.Time
		if strings.TrimSpace(req.DateOfBirth) != "" {
			t, err := time.Parse(time.DateOnly, req.DateOfBirth)
			if err != nil {
				httpjson.WriteError(w, log, apperr.Validation("date_of_birth must be YYYY-MM-DD"))
				return
			}
			dob = t
		}

		p, err := svc.RegisterPatient(r.Context(), actor, RegisterPatientInput{
			ID:                req.ID,
			Name:              req.Name,
			Email:             req.Email,
			PhoneNumber:       req.PhoneNumber,
			NationalID:        req.NationalID,
			DateOfBirth:       dob,
			Gender:            req.Gender,
			BloodGroup:        req.BloodGroup,
			EmergencyContact:  req.EmergencyContact,
			Allergies:         req.Allergies,
			ChronicConditions: req.ChronicConditions,
			HealthCardID:      req.HealthCardID,
		})
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}

		httpjson.WriteJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func getPatientHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentUser(w, r, svc)
		if !ok {
			return
		}

		p, err := svc.GetPatient(r.Context(), actor, chi.URLParam(r, "patientID"))
		if err != nil {
			httpjson.WriteError(w, log, err)
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := CurrentUser(w, r, svc)
		if !ok {
			return
		}
		httpjson.WriteJSON(w, http.StatusOK, toUserResponse(actor))
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:             u.ID,
		Name:           u.Name,
		Role:           u.Role,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		NationalID:     u.NationalID,
		Specialization: u.Specialization,
		Hospital:       u.Hospital,
		LicenseNumber:  u.LicenseNumber,
		Address:        u.Address,
		ContactPerson:  u.ContactPerson,
		Department:     u.Department,
		AccessLevel:    u.AccessLevel,
		CreatedAt:      u.CreatedAt,
	}
}

func toPatientResponse(p Patient) patientResponse {
	return patientResponse{
		userResponse:      toUserResponse(p.User),
		DateOfBirth:       p.DateOfBirth.Format(time.DateOnly),
		Gender:            p.Gender,
		BloodGroup:        p.BloodGroup,
		EmergencyContact:  p.EmergencyContact,
		Allergies:         nonNil(p.Allergies),
		ChronicConditions: nonNil(p.ChronicConditions),
		HealthCardID:      p.HealthCardID,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
