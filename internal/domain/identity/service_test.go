package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinical-rx-core/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	mu       sync.Mutex
	users    map[string]User
	patients map[string]Patient
	cards    map[string]string
}

func newTestRepo() *testRepo {
	return &testRepo{
		users:    map[string]User{},
		patients: map[string]Patient{},
		cards:    map[string]string{},
	}
}

func (r *testRepo) CreateUser(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return ErrDuplicateUser
	}
	r.users[u.ID] = u
	return nil
}

func (r *testRepo) CreatePatient(_ context.Context, p Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[p.ID]; ok {
		return ErrDuplicateUser
	}
	if _, ok := r.cards[p.HealthCardID]; ok {
		return ErrDuplicateHealthCard
	}
	r.users[p.ID] = p.User
	r.patients[p.ID] = p
	r.cards[p.HealthCardID] = p.ID
	return nil
}

func (r *testRepo) GetUser(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *testRepo) GetPatient(_ context.Context, id string) (Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return Patient{}, ErrUserNotFound
	}
	return p, nil
}

func (r *testRepo) ListByRole(_ context.Context, role Role) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []User{}
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newSvc(repo Repository, opts ...Option) *Service {
	opts = append([]Option{WithNow(func() time.Time { return fixedNow })}, opts...)
	return NewService(repo, opts...)
}

func admin() User  { return User{ID: "adm-1", Role: RoleAdmin} }
func doctor() User { return User{ID: "doc-1", Role: RoleDoctor, Hospital: "General"} }

func validPatient() RegisterPatientInput {
	return RegisterPatientInput{
		Name:        "Ana Pérez",
		DateOfBirth: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Gender:      GenderFemale,
		Allergies:   []string{"Penicillin", " penicillin ", "", "Latex"},
	}
}

func TestRegisterUser_AdminOnly(t *testing.T) {
	svc := newSvc(newTestRepo())

	_, err := svc.RegisterUser(context.Background(), doctor(), RegisterUserInput{Name: "X", Role: RoleDoctor})
	require.ErrorIs(t, err, apperr.ErrAuthorization)

	u, err := svc.RegisterUser(context.Background(), admin(), RegisterUserInput{
		ID: "doc-9", Name: " Dr. House ", Role: RoleDoctor, Hospital: "PPTH",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. House", u.Name)
	assert.Equal(t, fixedNow, u.CreatedAt)
}

func TestRegisterUser_Validation(t *testing.T) {
	svc := newSvc(newTestRepo())
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, admin(), RegisterUserInput{Role: RoleDoctor})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.RegisterUser(ctx, admin(), RegisterUserInput{Name: "x", Role: "nurse"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.RegisterUser(ctx, admin(), RegisterUserInput{Name: "x", Role: RolePatient})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegisterUser_DuplicateIsConflict(t *testing.T) {
	svc := newSvc(newTestRepo())
	ctx := context.Background()

	in := RegisterUserInput{ID: "ph-1", Name: "Farmacia", Role: RolePharmacy}
	_, err := svc.RegisterUser(ctx, admin(), in)
	require.NoError(t, err)

	_, err = svc.RegisterUser(ctx, admin(), in)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSeed_IsIdempotent(t *testing.T) {
	svc := newSvc(newTestRepo())
	ctx := context.Background()

	in := RegisterUserInput{ID: "adm-1", Name: "Root", Role: RoleAdmin}
	first, err := svc.Seed(ctx, in)
	require.NoError(t, err)
	again, err := svc.Seed(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	in.Role = RoleAuditor
	_, err = svc.Seed(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterPatient_GeneratesHealthCard(t *testing.T) {
	svc := newSvc(newTestRepo(), WithHealthCardGenerator(func() (string, error) { return "ABCDEFGHIJ", nil }))

	p, err := svc.RegisterPatient(context.Background(), doctor(), validPatient())
	require.NoError(t, err)
	assert.Equal(t, "HCABCDEFGHIJ", p.HealthCardID)
	assert.Equal(t, RolePatient, p.Role)
	assert.Equal(t, []string{"Penicillin", "Latex"}, p.Allergies)
}

func TestRegisterPatient_RetriesOnCardCollision(t *testing.T) {
	repo := newTestRepo()
	seq := []string{"AAAAAAAAAA", "AAAAAAAAAA", "BBBBBBBBBB"}
	i := 0
	gen := func() (string, error) {
		v := seq[i]
		i++
		return v, nil
	}
	svc := newSvc(repo, WithHealthCardGenerator(gen))
	ctx := context.Background()

	p1, err := svc.RegisterPatient(ctx, admin(), validPatient())
	require.NoError(t, err)
	p2, err := svc.RegisterPatient(ctx, admin(), validPatient())
	require.NoError(t, err)

	assert.Equal(t, "HCAAAAAAAAAA", p1.HealthCardID)
	assert.Equal(t, "HCBBBBBBBBBB", p2.HealthCardID)
	assert.Equal(t, 3, i)
}

func TestRegisterPatient_GeneratorFailureIsInternal(t *testing.T) {
	svc := newSvc(newTestRepo(), WithHealthCardGenerator(func() (string, error) {
		return "", errors.New("entropy")
	}))

	_, err := svc.RegisterPatient(context.Background(), admin(), validPatient())
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestRegisterPatient_ExplicitDuplicateCardIsConflict(t *testing.T) {
	svc := newSvc(newTestRepo())
	ctx := context.Background()

	in := validPatient()
	in.HealthCardID = "hc-1"
	p, err := svc.RegisterPatient(ctx, admin(), in)
	require.NoError(t, err)
	assert.Equal(t, "HC-1", p.HealthCardID)

	_, err = svc.RegisterPatient(ctx, admin(), in)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterPatient_Validation(t *testing.T) {
	svc := newSvc(newTestRepo())
	ctx := context.Background()

	cases := map[string]func(*RegisterPatientInput){
		"no name":    func(in *RegisterPatientInput) { in.Name = " " },
		"no dob":     func(in *RegisterPatientInput) { in.DateOfBirth = time.Time{} },
		"future dob": func(in *RegisterPatientInput) { in.DateOfBirth = fixedNow.Add(24 * time.Hour) },
		"gender":     func(in *RegisterPatientInput) { in.Gender = "unknown" },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			in := validPatient()
			mut(&in)
			_, err := svc.RegisterPatient(ctx, admin(), in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestRegisterPatient_PharmacyForbidden(t *testing.T) {
	svc := newSvc(newTestRepo())
	_, err := svc.RegisterPatient(context.Background(), User{ID: "ph-1", Role: RolePharmacy}, validPatient())
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
}

func TestGetPatient_Access(t *testing.T) {
	svc := newSvc(newTestRepo())
	ctx := context.Background()

	in := validPatient()
	in.ID = "pat-1"
	_, err := svc.RegisterPatient(ctx, admin(), in)
	require.NoError(t, err)

	self := User{ID: "pat-1", Role: RolePatient}
	other := User{ID: "pat-2", Role: RolePatient}

	_, err = svc.GetPatient(ctx, self, "pat-1")
	assert.NoError(t, err)
	_, err = svc.GetPatient(ctx, doctor(), "pat-1")
	assert.NoError(t, err)
	_, err = svc.GetPatient(ctx, other, "pat-1")
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	_, err = svc.GetPatient(ctx, doctor(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveAndListByRole(t *testing.T) {
	svc := newSvc(newTestRepo())
	ctx := context.Background()

	_, err := svc.Seed(ctx, RegisterUserInput{ID: "adm-1", Name: "Root", Role: RoleAdmin})
	require.NoError(t, err)
	_, err = svc.RegisterUser(ctx, admin(), RegisterUserInput{ID: "aud-1", Name: "Aud", Role: RoleAuditor})
	require.NoError(t, err)

	u, err := svc.Resolve(ctx, "aud-1")
	require.NoError(t, err)
	assert.Equal(t, RoleAuditor, u.Role)

	_, err = svc.Resolve(ctx, "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	items, err := svc.ListByRole(ctx, admin(), RoleAuditor)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.ListByRole(ctx, u, RoleAuditor)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
}
