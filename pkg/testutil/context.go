package testutil

import (
	"net/http"
	"time"

	id "rightsledger/pkg/domain"
	"rightsledger/pkg/requestcontext"
)

// WithCaller attaches an authenticated caller to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithCaller(req *http.Request, caller id.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithRequestTime pins the request time so fee and timestamp assertions
// are deterministic.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
