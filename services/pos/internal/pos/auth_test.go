package pos

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	authHandler := BearerAuth([]string{"kds-token", "cashier-token"})(testHandler)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{
			name:           "validToken",
			header:         "Bearer kds-token",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "secondValidToken",
			header:         "Bearer cashier-token",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missingHeader",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "notBearerScheme",
			header:         "Basic a2RzOnRva2Vu",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalidToken",
			header:         "Bearer wrong-token",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/pos/orders/kitchen", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			authHandler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestBearerAuthNoTokensConfigured(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	authHandler := BearerAuth(nil)(testHandler)

	req := httptest.NewRequest(http.MethodGet, "/pos/orders/kitchen", nil)
	req.Header.Set("Authorization", "Bearer anything")

	w := httptest.NewRecorder()
	authHandler.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
