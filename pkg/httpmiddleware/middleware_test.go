package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func get(handler http.Handler, addr string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BudgetAndHeaders(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		rec := get(handler, "10.0.0.1:1234", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := get(handler, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, get(handler, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(handler, "10.0.0.1:9999", nil).Code)
	assert.Equal(t, http.StatusOK, get(handler, "10.0.0.2:1234", nil).Code)
}

func TestRateLimit_WindowRotates(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	_, _, allowed := l.take("k", now)
	require.True(t, allowed)
	_, _, allowed = l.take("k", now.Add(time.Second))
	require.False(t, allowed)
	_, _, allowed = l.take("k", now.Add(time.Minute))
	assert.True(t, allowed)
}

func TestRateLimit_ForwardedForWins(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	hdr := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}
	assert.Equal(t, http.StatusOK, get(handler, "10.0.0.1:1234", hdr).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(handler, "10.0.0.2:1234", hdr).Code)
}

func TestCORS_PreflightAllowedOrigin(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins: []string{"https://store.example.com"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       600,
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://store.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://store.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_DisallowedOriginGetsNoHeaders(t *testing.T) {
	handler := CORS(CORSConfig{AllowOrigins: []string{"https://store.example.com"}})(okHandler())

	rec := get(handler, "10.0.0.1:1234", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORS_CredentialsNeverWildcard(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowOrigins:     []string{"https://store.example.com"},
		AllowCredentials: true,
	})(okHandler())

	rec := get(handler, "10.0.0.1:1234", map[string]string{"Origin": "https://Store.Example.Com"})
	assert.Equal(t, "https://store.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	var seen string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := get(handler, "10.0.0.1:1234", nil)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_KeepsValidIncoming(t *testing.T) {
	handler := RequestID()(okHandler())

	rec := get(handler, "10.0.0.1:1234", map[string]string{"X-Request-ID": "trace-42"})
	assert.Equal(t, "trace-42", rec.Header().Get("X-Request-ID"))

	rec = get(handler, "10.0.0.1:1234", map[string]string{"X-Request-ID": "bad\x01id"})
	assert.NotEqual(t, "bad\x01id", rec.Header().Get("X-Request-ID"))
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	handler := Wrap(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		RequestID(),
		Recovery(),
	)

	rec := get(handler, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWrap_OrderIsOutsideIn(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	get(Wrap(okHandler(), tag("outer"), tag("inner")), "10.0.0.1:1234", nil)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
