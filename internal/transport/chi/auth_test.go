package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuth_NoKeysDisablesAuth(t *testing.T) {
	h := BearerAuthMiddleware(nil)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/admin/cache/stats", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Errorf("expected pass-through with no keys, got %d", rr.Code)
	}
}

func TestBearerAuth_ValidKey(t *testing.T) {
	h := BearerAuthMiddleware([]string{"secret"})(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/admin/cache/stats", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 with valid key, got %d", rr.Code)
	}
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	h := BearerAuthMiddleware([]string{"secret"})(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/admin/cache/stats", http.NoBody))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", rr.Code)
	}
}

func TestBearerAuth_InvalidKey(t *testing.T) {
	h := BearerAuthMiddleware([]string{"secret"})(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/admin/cache/stats", http.NoBody)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with invalid key, got %d", rr.Code)
	}
}

func TestBearerAuth_HealthExempt(t *testing.T) {
	h := BearerAuthMiddleware([]string{"secret"})(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Errorf("expected health to bypass auth, got %d", rr.Code)
	}
}
