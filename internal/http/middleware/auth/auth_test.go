package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/logx"
)

const (
	testSecret = "s3cret"
	testIssuer = "jobs-test"
)

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newVerifier(t *testing.T) (*Verifier, *testclock.Clock) {
	t.Helper()
	clk := testclock.NewClock(now)
	v, err := NewVerifier(testSecret, testIssuer, clk)
	require.NoError(t, err)
	return v, clk
}

func token(t *testing.T, secret string, p Principal, ttl time.Duration) string {
	t.Helper()
	raw, err := Issue(secret, testIssuer, p, now, ttl)
	require.NoError(t, err)
	return raw
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier("  ", "", nil)
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	v, clk := newVerifier(t)

	p, err := v.Verify(token(t, testSecret, Principal{ID: "drv-1"}, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: "drv-1", Role: RoleDriver}, p)

	p, err = v.Verify(token(t, testSecret, Principal{ID: "ops", Role: RoleDispatcher}, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, RoleDispatcher, p.Role)

	_, err = v.Verify(token(t, "other", Principal{ID: "drv-1"}, time.Hour))
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = v.Verify(token(t, testSecret, Principal{}, time.Hour))
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	short := token(t, testSecret, Principal{ID: "drv-1"}, time.Minute)
	clk.Advance(2 * time.Minute)
	_, err = v.Verify(short)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	v, _ := newVerifier(t)
	raw, err := Issue(testSecret, "someone-else", Principal{ID: "drv-1"}, now, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(raw)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	v, _ := newVerifier(t)
	var seen Principal
	h := Middleware(v, logx.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + token(t, testSecret, Principal{ID: "drv-7"}, time.Hour), http.StatusNoContent},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/jobs/b1/assignment", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		require.Equal(t, tc.want, rr.Code, tc.name)
		if tc.want == http.StatusUnauthorized {
			assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"), tc.name)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String(), tc.name)
		}
	}
	assert.Equal(t, "drv-7", seen.ID)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	h := RequireRole(logx.Nop(), RoleDispatcher, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	serve := func(p *Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/offers", nil)
		if p != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *p))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil).Code)

	rr := serve(&Principal{ID: "drv-1", Role: RoleDriver})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"forbidden","reason":"insufficient_role"}`, rr.Body.String())

	assert.Equal(t, http.StatusCreated, serve(&Principal{ID: "ops", Role: RoleDispatcher}).Code)
	assert.Equal(t, http.StatusCreated, serve(&Principal{ID: "root", Role: RoleAdmin}).Code)
}
