package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/codes"

	"github.com/google/uuid"
)

const healthCardPrefix = "HC"

type Service struct {
	repo       Repository
	now        func() time.Time
	newCardID  func() (string, error)
	maxRetries int
}

type Option func(*Service)

// WithNow reemplaza el reloj (tests).
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHealthCardGenerator reemplaza el generador de health card ids.
func WithHealthCardGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCardID = gen }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		now:        time.Now,
		newCardID:  codes.Generator(10),
		maxRetries: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterUserInput struct {
	ID          string
	Name        string
	Role        Role
	Email       string
	PhoneNumber string
	NationalID  string

	Specialization string
	Hospital       string
	LicenseNumber  string
	Address        string
	ContactPerson  string
	Department     string
	AccessLevel    int
}

// RegisterUser da de alta usuarios no-paciente. Solo admin.
func (s *Service) RegisterUser(ctx context.Context, actor User, in RegisterUserInput) (User, error) {
	if !Can(actor, OpRegisterUser, "") {
		return User{}, apperr.Forbidden("role cannot register users")
	}
	return s.createUser(ctx, in)
}

// Seed registra usuarios de bootstrap sin actor (config). Idempotente por id.
func (s *Service) Seed(ctx context.Context, in RegisterUserInput) (User, error) {
	if id := strings.TrimSpace(in.ID); id != "" {
		if u, err := s.repo.GetUser(ctx, id); err == nil {
			if u.Role != in.Role {
				return User{}, apperr.Conflict("seed user " + id + " exists with another role")
			}
			return u, nil
		}
	}
	return s.createUser(ctx, in)
}

func (s *Service) createUser(ctx context.Context, in RegisterUserInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return User{}, apperr.Validation("name is required")
	}
	if _, ok := ParseRole(string(in.Role)); !ok {
		return User{}, apperr.Validation("unknown role")
	}
	if in.Role == RolePatient {
		return User{}, apperr.Validation("patients are registered through RegisterPatient")
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	u := User{
		ID:             id,
		Name:           name,
		Role:           in.Role,
		Email:          strings.TrimSpace(in.Email),
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
		NationalID:     strings.TrimSpace(in.NationalID),
		Specialization: strings.TrimSpace(in.Specialization),
		Hospital:       strings.TrimSpace(in.Hospital),
		LicenseNumber:  strings.TrimSpace(in.LicenseNumber),
		Address:        strings.TrimSpace(in.Address),
		ContactPerson:  strings.TrimSpace(in.ContactPerson),
		Department:     strings.TrimSpace(in.Department),
		AccessLevel:    in.AccessLevel,
		CreatedAt:      s.now(),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return User{}, mapRepoErr(err, "create user")
	}
	return u, nil
}

type RegisterPatientInput struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber string
	NationalID  string

	DateOfBirth       time.Time
	Gender            Gender
	BloodGroup        string
	EmergencyContact  string
	Allergies         []string
	ChronicConditions []string

	// Opcional: si viene vacío se genera.
	HealthCardID string
}

// RegisterPatient: admin o doctor.
func (s *Service) RegisterPatient(ctx context.Context, actor User, in RegisterPatientInput) (Patient, error) {
	if !Can(actor, OpRegisterPatient, "") {
		return Patient{}, apperr.Forbidden("role cannot register patients")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Patient{}, apperr.Validation("name is required")
	}
	if in.DateOfBirth.IsZero() {
		return Patient{}, apperr.Validation("date_of_birth is required")
	}
	now := s.now()
	if in.DateOfBirth.After(now) {
		return Patient{}, apperr.Validation("date_of_birth cannot be in the future")
	}
	switch in.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return Patient{}, apperr.Validation("gender must be male, female or other")
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	p := Patient{
		User: User{
			ID:          id,
			Name:        name,
			Role:        RolePatient,
			Email:       strings.TrimSpace(in.Email),
			PhoneNumber: strings.TrimSpace(in.PhoneNumber),
			NationalID:  strings.TrimSpace(in.NationalID),
			CreatedAt:   now,
		},
		DateOfBirth:       in.DateOfBirth,
		Gender:            in.Gender,
		BloodGroup:        strings.TrimSpace(in.BloodGroup),
		EmergencyContact:  strings.TrimSpace(in.EmergencyContact),
		Allergies:         normalizeSet(in.Allergies),
		ChronicConditions: normalizeSet(in.ChronicConditions),
	}

	// Health card explícita: un solo intento, el duplicado es error del caller.
	if card := strings.ToUpper(strings.TrimSpace(in.HealthCardID)); card != "" {
		p.HealthCardID = card
		if err := s.repo.CreatePatient(ctx, p); err != nil {
			return Patient{}, mapRepoErr(err, "create patient")
		}
		return p, nil
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		card, err := s.newCardID()
		if err != nil {
			return Patient{}, apperr.Internal("generate health card id", err)
		}
		p.HealthCardID = healthCardPrefix + card

		err = s.repo.CreatePatient(ctx, p)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrDuplicateHealthCard) {
			continue
		}
		return Patient{}, mapRepoErr(err, "create patient")
	}
	return Patient{}, apperr.Internal("create patient", errors.New("health card id space exhausted"))
}

// GetPatient: el propio paciente, doctores y admins.
func (s *Service) GetPatient(ctx context.Context, actor User, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if !Can(actor, OpReadPatient, id) {
		return Patient{}, apperr.Forbidden("role cannot read this patient")
	}
	return s.LookupPatient(ctx, id)
}

// LookupPatient es la lectura interna (sin authz) que usan otros módulos
// para validar referencias.
func (s *Service) LookupPatient(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, apperr.Validation("patient id is required")
	}
	p, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return Patient{}, mapRepoErr(err, "patient")
	}
	return p, nil
}

// Resolve traduce el user id de los claims al actor completo.
func (s *Service) Resolve(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, apperr.NotFound("user not found")
	}
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return User{}, mapRepoErr(err, "user")
	}
	return u, nil
}

func (s *Service) ListByRole(ctx context.Context, actor User, role Role) ([]User, error) {
	if !Can(actor, OpListUsers, "") {
		return nil, apperr.Forbidden("role cannot list users")
	}
	if _, ok := ParseRole(string(role)); !ok {
		return nil, apperr.Validation("unknown role")
	}
	items, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, apperr.Internal("list users", err)
	}
	return items, nil
}

func mapRepoErr(err error, what string) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, ErrDuplicateUser):
		return apperr.Conflict(what + ": id already registered")
	case errors.Is(err, ErrDuplicateHealthCard):
		return apperr.Conflict(what + ": health card id already assigned")
	default:
		return apperr.Internal(what, err)
	}
}

// normalizeSet hace trim, descarta vacíos y deduplica (case-insensitive)
// manteniendo el primer orden visto.
func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
