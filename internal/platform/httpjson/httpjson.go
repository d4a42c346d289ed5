package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinical-rx-core/internal/platform/apperr"
	"clinical-rx-core/internal/platform/logger"
)

// WriteJSON escribe v como JSON con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusOf mapea el Kind de dominio a status HTTP.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInvalidIndex:
		return http.StatusBadRequest
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAlreadyDispensed, apperr.KindConflict, apperr.KindIncomplete:
		return http.StatusConflict
	case apperr.KindExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// WriteError responde con el mensaje de dominio. Los errores internos
// se loguean completos y salen opacos.
func WriteError(w http.ResponseWriter, log logger.Logger, err error) {
	status := StatusOf(err)
	kind := apperr.KindOf(err)
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", map[string]any{"err": err.Error()})
	}
	WriteJSON(w, status, errorResponse{
		Error: apperr.MessageOf(err),
		Kind:  string(kind),
	})
}

// WriteErrorWith agrega un payload (p.ej. la receta vencida en verify).
func WriteErrorWith(w http.ResponseWriter, log logger.Logger, err error, key string, payload any) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, status, map[string]any{
		"error": apperr.MessageOf(err),
		"kind":  string(apperr.KindOf(err)),
		key:     payload,
	})
}

// Unauthorized es el 401 de borde: sin claims o usuario desconocido.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Kind: "UNAUTHENTICATED"})
}

// DecodeJSON decodifica el body y traduce fallas a ValidationError.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return apperr.Validation("invalid json")
		}
		return apperr.Validation("invalid json: " + err.Error())
	}
	return nil
}
