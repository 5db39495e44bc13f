package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJWTAuthRoundTrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	token, err := auth.GenerateDeviceToken("device-42")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotClientID string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClientID = GetClientID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/metadata", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotClientID != "device-42" {
		t.Errorf("expected client_id device-42, got %q", gotClientID)
	}
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	otherAuth := NewJWTAuth("different-secret")

	foreignToken, err := otherAuth.GenerateDeviceToken("device-42")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong signing key", "Bearer " + foreignToken},
	}

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("inner handler must not run for a rejected token")
	}))

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/metadata", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestVerifyTokenRequiresClientID(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	token, err := auth.GenerateDeviceToken("device-42")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	clientID, err := auth.VerifyToken(token)
	if err != nil {
		t.Fatalf("expected token to verify: %v", err)
	}
	if clientID != "device-42" {
		t.Errorf("expected device-42, got %q", clientID)
	}

	if _, err := auth.VerifyToken("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
