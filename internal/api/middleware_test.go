package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hodalor/smBank-sub000/internal/domain"
)

const testSecret = "test-jwt-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	valid := signToken(t, testSecret, jwt.MapClaims{"sub": "mgr.kwame", "role": "manager"})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{"sub": "mgr.kwame", "role": "manager"})
	noRole := signToken(t, testSecret, jwt.MapClaims{"sub": "mgr.kwame"})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantActor  domain.Actor
	}{
		{
			name:       "valid token passes actor through",
			authHeader: "Bearer " + valid,
			wantStatus: http.StatusOK,
			wantActor:  domain.Actor{Username: "mgr.kwame", Role: domain.RoleManager},
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			authHeader: valid,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token signed with wrong key",
			authHeader: "Bearer " + wrongKey,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "token without role claim",
			authHeader: "Bearer " + noRole,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotActor domain.Actor
			var sawActor bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotActor, sawActor = actorFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(testSecret)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if !sawActor || gotActor != tt.wantActor {
					t.Fatalf("expected actor %+v, got %+v (present %v)", tt.wantActor, gotActor, sawActor)
				}
			} else if sawActor {
				t.Fatal("handler must not run on rejected requests")
			}
		})
	}
}
