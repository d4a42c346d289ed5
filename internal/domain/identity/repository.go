package identity

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateUser: id ya registrado.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrDuplicateHealthCard: health card id ya asignado a otro paciente.
	ErrDuplicateHealthCard = errors.New("health card id already assigned")
	// ErrUserNotFound lo devuelven los adapters cuando no hay fila.
	ErrUserNotFound = errors.New("user not found")
)

type Repository interface {
	CreateUser(ctx context.Context, u User) error
	CreatePatient(ctx context.Context, p Patient) error
	GetUser(ctx context.Context, id string) (User, error)
	GetPatient(ctx context.Context, id string) (Patient, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
}
