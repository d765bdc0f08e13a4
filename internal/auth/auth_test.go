package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "s3cret"

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return NewService(NewRepository("admin", hash), testSecret)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrInvalidCredentials)
	}
	if _, err := svc.Login("root", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrInvalidCredentials)
	}
	token, err := svc.Login("admin", "hunter2")
	if err != nil || token == "" {
		t.Fatalf("Login failed: token=%q err=%v", token, err)
	}
}

func TestEmptyRepositoryRejectsEveryone(t *testing.T) {
	repo := NewRepository("admin", "")
	if !repo.Empty() {
		t.Fatalf("repository without hash should be empty")
	}
	if _, err := NewService(repo, testSecret).Login("admin", ""); err == nil {
		t.Fatalf("expected login failure")
	}
}

func TestJWTMiddleware(t *testing.T) {
	svc := newTestService(t)
	valid, err := svc.Login("admin", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	expiredSvc := newTestService(t)
	expiredSvc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := expiredSvc.Login("admin", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin"},
	}).SignedString([]byte("other"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	var seen string
	protected := JWTMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "malformed", header: "Token " + valid, want: http.StatusUnauthorized},
		{name: "forged", header: "Bearer " + forged, want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + valid, want: http.StatusOK},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tc.want)
			}
		})
	}
	if seen != "admin" {
		t.Fatalf("operator not stored in context: got=%q", seen)
	}
}

func TestLoginHandler(t *testing.T) {
	h := NewHandler(newTestService(t))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"admin","password":"hunter2"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Token == "" || resp.ExpiresAt.IsZero() {
		t.Fatalf("unexpected login response: %+v err=%v", resp, err)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"admin","password":"nope"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"  ","password":"hunter2"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestJWTMiddlewareWebsocketToken(t *testing.T) {
	valid, err := newTestService(t).Login("admin", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	protected := JWTMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name    string
		query   string
		upgrade bool
		want    int
	}{
		{name: "handshake without token", upgrade: true, want: http.StatusUnauthorized},
		{name: "handshake with forged token", query: "?token=abc", upgrade: true, want: http.StatusUnauthorized},
		{name: "handshake with token", query: "?token=" + valid, upgrade: true, want: http.StatusOK},
		{name: "query token on plain request", query: "?token=" + valid, want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws/-1001"+tc.query, nil)
			if tc.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, tc.want)
			}
		})
	}
}
