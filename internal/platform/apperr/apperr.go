package apperr

import (
	"errors"
	"fmt"
)

// Kind clasifica errores de dominio. Todos son recuperables por el caller.
type Kind string

const (
	KindValidation       Kind = "VALIDATION"
	KindNotFound         Kind = "NOT_FOUND"
	KindExpired          Kind = "EXPIRED"
	KindAlreadyDispensed Kind = "ALREADY_DISPENSED"
	KindIncomplete       Kind = "INCOMPLETE"
	KindInvalidIndex     Kind = "INVALID_INDEX"
	KindAuthorization    Kind = "AUTHORIZATION"
	KindConflict         Kind = "CONFLICT"
	KindInternal         Kind = "INTERNAL"
)

// Error es el error tipado que devuelven los services.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is compara por Kind, así errors.Is(err, apperr.ErrExpired) funciona
// sin importar el mensaje.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels para errors.Is.
var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrExpired          = &Error{Kind: KindExpired}
	ErrAlreadyDispensed = &Error{Kind: KindAlreadyDispensed}
	ErrIncomplete       = &Error{Kind: KindIncomplete}
	ErrInvalidIndex     = &Error{Kind: KindInvalidIndex}
	ErrAuthorization    = &Error{Kind: KindAuthorization}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrInternal         = &Error{Kind: KindInternal}
)

func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func Expired(msg string) error { return &Error{Kind: KindExpired, Message: msg} }

func AlreadyDispensed(msg string) error { return &Error{Kind: KindAlreadyDispensed, Message: msg} }

func Incomplete(msg string) error { return &Error{Kind: KindIncomplete, Message: msg} }

func InvalidIndex(msg string) error { return &Error{Kind: KindInvalidIndex, Message: msg} }

func Forbidden(msg string) error { return &Error{Kind: KindAuthorization, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// Internal envuelve una falla inesperada (storage, etc).
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf devuelve el Kind del primer *Error en la cadena, o KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// MessageOf devuelve el mensaje apto para el usuario.
// Los internos nunca exponen detalle.
func MessageOf(err error) string {
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind == KindInternal {
		return "internal error"
	}
	if ae.Message == "" {
		return string(ae.Kind)
	}
	return ae.Message
}
