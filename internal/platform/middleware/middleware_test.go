package middleware_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rightsledger/internal/platform/middleware"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/requestcontext"
	"rightsledger/pkg/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var captured string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1"))

	require.NotEmpty(t, captured)
	assert.Equal(t, captured, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDHonorsInboundHeader(t *testing.T) {
	var captured string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))

	req := testutil.NewRequest(t, http.MethodGet, "/tokens/1")
	req.Header.Set("X-Request-ID", "req-42")
	rec := testutil.DoRequest(h, req)

	assert.Equal(t, "req-42", captured)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRequestTimeIsStampedOnce(t *testing.T) {
	var first, second time.Time
	h := middleware.RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		second = requestcontext.Now(r.Context())
	}))

	testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1"))

	require.False(t, first.IsZero())
	assert.Equal(t, first, second)
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	h := middleware.Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1"))

	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	assert.Equal(t, "internal", testutil.UnmarshalErrorResponse(t, rec)["error"])
}

func TestContentTypeJSONRejectsOtherTypes(t *testing.T) {
	h := middleware.ContentTypeJSON(okHandler())

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/tokens", `{}`)
	req.Header.Set("Content-Type", "text/plain")
	rec := testutil.DoRequest(h, req)
	testutil.AssertStatus(t, rec, http.StatusUnsupportedMediaType)

	rec = testutil.DoRequest(h, testutil.NewRequestWithBody(t, http.MethodPost, "/tokens", `{}`))
	testutil.AssertStatus(t, rec, http.StatusOK)

	// GET requests are not content-type checked.
	req = testutil.NewRequest(t, http.MethodGet, "/tokens/1")
	req.Header.Set("Content-Type", "text/plain")
	rec = testutil.DoRequest(h, req)
	testutil.AssertStatus(t, rec, http.StatusOK)
}

type stubValidator struct {
	claims *middleware.JWTClaims
	err    error
}

func (s *stubValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return s.claims, s.err
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	h := middleware.RequireAuth(&stubValidator{}, discardLogger())(okHandler())

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodPost, "/tokens"))

	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, "unauthorized", testutil.UnmarshalErrorResponse(t, rec)["error"])
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	v := &stubValidator{err: errors.New("token expired")}
	h := middleware.RequireAuth(v, discardLogger())(okHandler())

	req := testutil.NewRequest(t, http.MethodPost, "/tokens")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := testutil.DoRequest(h, req)

	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestRequireAuthStoresCaller(t *testing.T) {
	v := &stubValidator{claims: &middleware.JWTClaims{Address: "0xcaller"}}
	var caller id.Address
	h := middleware.RequireAuth(v, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = middleware.GetCaller(r.Context())
	}))

	req := testutil.NewRequest(t, http.MethodPost, "/tokens")
	req.Header.Set("Authorization", "Bearer valid")
	testutil.DoRequest(h, req)

	assert.Equal(t, id.Address("0xcaller"), caller)
}

func TestGetCallerFromSeededRequest(t *testing.T) {
	var caller id.Address
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = middleware.GetCaller(r.Context())
	})

	req := testutil.WithCaller(testutil.NewRequest(t, http.MethodGet, "/tokens/1"), "0xseeded")
	testutil.DoRequest(h, req)

	assert.Equal(t, id.Address("0xseeded"), caller)
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	h := middleware.NewRateLimiter(3, time.Minute).Middleware(okHandler())

	for i := 0; i < 3; i++ {
		rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1"))
		testutil.AssertStatus(t, rec, http.StatusOK)
	}

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1"))
	testutil.AssertStatus(t, rec, http.StatusTooManyRequests)
	assert.Equal(t, "rate_limited", testutil.UnmarshalErrorResponse(t, rec)["error"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiterIsPerClient(t *testing.T) {
	h := middleware.NewRateLimiter(1, time.Minute).Middleware(okHandler())

	reqA := testutil.NewRequest(t, http.MethodGet, "/tokens/1")
	reqA.Header.Set("X-Forwarded-For", "10.0.0.1")
	reqB := testutil.NewRequest(t, http.MethodGet, "/tokens/1")
	reqB.Header.Set("X-Forwarded-For", "10.0.0.2")

	testutil.AssertStatus(t, testutil.DoRequest(h, reqA), http.StatusOK)
	testutil.AssertStatus(t, testutil.DoRequest(h, reqB), http.StatusOK)

	reqA2 := testutil.NewRequest(t, http.MethodGet, "/tokens/1")
	reqA2.Header.Set("X-Forwarded-For", "10.0.0.1")
	testutil.AssertStatus(t, testutil.DoRequest(h, reqA2), http.StatusTooManyRequests)
}

func TestRateLimiterReportsRemaining(t *testing.T) {
	h := middleware.NewRateLimiter(5, time.Minute).Middleware(okHandler())

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1"))
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))

	rec = testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1"))
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterDisabledWhenZero(t *testing.T) {
	h := middleware.NewRateLimiter(0, time.Minute).Middleware(okHandler())

	for i := 0; i < 20; i++ {
		testutil.AssertStatus(t, testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/tokens/1")), http.StatusOK)
	}
}

func TestWithRequestTimePinsClock(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var seen time.Time
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Now(r.Context())
	})

	req := testutil.WithRequestTime(testutil.NewRequest(t, http.MethodGet, "/tokens/1"), at)
	testutil.DoRequest(h, req)

	assert.Equal(t, at, seen)
}
