package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinical-rx-core/internal/platform/logger"
	"clinical-rx-core/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (s stubVerifier) Verify(_ context.Context, _ string) (auth.Claims, error) {
	return s.claims, s.err
}

func claimsProbe(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if want == "" {
			assert.False(t, ok)
		} else {
			require.True(t, ok)
			assert.Equal(t, want, c.UserID)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthContext_DevHeader(t *testing.T) {
	h := AuthContext(nil, nil)(claimsProbe(t, "doc-1"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", " doc-1 ")
	h.ServeHTTP(httptest.NewRecorder(), req)

	h = AuthContext(nil, nil)(claimsProbe(t, ""))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestAuthContext_Verifier(t *testing.T) {
	ok := stubVerifier{claims: auth.Claims{UserID: "ph-1"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tkn")
	AuthContext(ok, nil)(claimsProbe(t, "ph-1")).ServeHTTP(httptest.NewRecorder(), req)

	// con verifier el header de debug no se acepta
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "admin")
	AuthContext(ok, nil)(claimsProbe(t, "")).ServeHTTP(httptest.NewRecorder(), req)

	bad := stubVerifier{err: errors.New("expired token")}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tkn")
	AuthContext(bad, nil)(claimsProbe(t, "")).ServeHTTP(httptest.NewRecorder(), req)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken(""))
}

func TestRecover_OpaqueInternalError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Options{Level: logger.Debug, Format: logger.FormatJSON})

	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom: secret detail")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Contains(t, rec.Body.String(), "internal error")
	assert.Contains(t, buf.String(), "panic recovered")
}

type recordedHTTP struct {
	method, route string
	status        int
}

type fakeHTTPObserver struct{ calls []recordedHTTP }

func (f *fakeHTTPObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	f.calls = append(f.calls, recordedHTTP{method, route, status})
}

func TestAccessLog_UsesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Options{Level: logger.Debug, Format: logger.FormatJSON})
	obs := &fakeHTTPObserver{}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestID)
	r.Use(AccessLog(log, obs))
	r.Get("/prescriptions/{prescriptionID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prescriptions/rx-42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	require.Len(t, obs.calls, 1)
	assert.Equal(t, recordedHTTP{http.MethodGet, "/prescriptions/{prescriptionID}", http.StatusTeapot}, obs.calls[0])
	assert.Contains(t, buf.String(), `"route":"/prescriptions/{prescriptionID}"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unmatched", obs.calls[1].route)
}
