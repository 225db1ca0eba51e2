package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrms/internal/domain/auth"
)

type fakeChecker struct {
	allowed map[string]bool
}

func (f *fakeChecker) HasPermission(_ context.Context, roleID, collection, action string) (bool, error) {
	return f.allowed[roleID+":"+collection+":"+action], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRejectsAnonymous(t *testing.T) {
	handler := Require("employees", "read", &fakeChecker{})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/employees", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireChecksRolePermission(t *testing.T) {
	checker := &fakeChecker{allowed: map[string]bool{"role-hr:employees:read": true}}
	handler := Require("employees", "read", checker)(okHandler())

	r := httptest.NewRequest("GET", "/employees", nil)
	r = r.WithContext(WithUser(r.Context(), auth.UserContext{UserID: "u1", RoleID: "role-hr"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("granted role: status = %d, want 200", rec.Code)
	}

	r = httptest.NewRequest("GET", "/employees", nil)
	r = r.WithContext(WithUser(r.Context(), auth.UserContext{UserID: "u2", RoleID: "role-staff"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("denied role: status = %d, want 403", rec.Code)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if seen == "" {
		t.Fatal("request id missing from context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatal("response header must echo the request id")
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if seen != "client-supplied" {
		t.Fatalf("client id must win, got %q", seen)
	}
}

func TestBodyLimitTruncatesOversizedBodies(t *testing.T) {
	handler := BodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", strings.NewReader("small")))
	if rec.Code != http.StatusOK {
		t.Fatalf("small body: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 64))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body: status = %d, want 413", rec.Code)
	}
}

func TestRateLimitPerActor(t *testing.T) {
	handler := RateLimit(2, time.Minute)(okHandler())

	get := func(user string) int {
		r := httptest.NewRequest("GET", "/", nil)
		if user != "" {
			r = r.WithContext(WithUser(r.Context(), auth.UserContext{UserID: user}))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec.Code
	}

	if get("u1") != http.StatusOK || get("u1") != http.StatusOK {
		t.Fatal("first two requests must pass")
	}
	if get("u1") != http.StatusTooManyRequests {
		t.Fatal("third request in window must be limited")
	}
	if get("u2") != http.StatusOK {
		t.Fatal("another actor must have its own window")
	}
}
