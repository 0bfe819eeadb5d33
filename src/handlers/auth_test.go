package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/khabaroff/portfolio-site/src/middleware"
	"github.com/khabaroff/portfolio-site/src/models"
	"github.com/khabaroff/portfolio-site/src/repositories/mock"
	"github.com/khabaroff/portfolio-site/src/services"
)

func TestHandleLogin_Success(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)

	before := time.Now().UTC()
	w, token := s.login(t, "admin", testPassword)

	assertStatusCode(t, w, http.StatusOK)
	if token == "" {
		t.Fatal("expected session cookie")
	}

	response := decodeJSON(t, w)
	if response["success"] != true {
		t.Errorf("expected success true, got %v", response["success"])
	}
	user, ok := response["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected user object, got %v", response["user"])
	}
	if user["username"] != "admin" || user["role"] != models.RoleAdmin {
		t.Errorf("unexpected profile: %v", user)
	}
	if _, leaked := response["token"]; leaked {
		t.Error("token must only travel in the cookie")
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.DefaultSessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite=Lax, got %v", cookie.SameSite)
	}
	if cookie.Path != "/" {
		t.Errorf("expected path /, got %q", cookie.Path)
	}
	if cookie.MaxAge != int(services.DefaultSessionTTL.Seconds()) {
		t.Errorf("expected max-age %d, got %d", int(services.DefaultSessionTTL.Seconds()), cookie.MaxAge)
	}

	admin, err := s.repo.GetByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("failed to load admin: %v", err)
	}
	claims, err := s.codec.Verify(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if !admin.HasSession(claims.SessionID) {
		t.Error("token session id is not the stored active session")
	}
	if len(claims.SessionID) < 43 {
		t.Errorf("session id too short for 32 random bytes: %q", claims.SessionID)
	}
	if admin.LastLoginAt == nil || admin.LastLoginAt.Sub(before) > time.Second || admin.LastLoginAt.Before(before.Add(-time.Second)) {
		t.Errorf("lastLoginAt not updated to now: %v", admin.LastLoginAt)
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)
	s.seed(t, "retired", false)

	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
		wantError  string
	}{
		{"missing username", "", testPassword, http.StatusBadRequest, msgMissingCredentials},
		{"missing password", "admin", "", http.StatusBadRequest, msgMissingCredentials},
		{"wrong password", "admin", "wrong-password", http.StatusUnauthorized, msgInvalidCredentials},
		{"unknown user", "nobody", testPassword, http.StatusUnauthorized, msgInvalidCredentials},
		{"deactivated", "retired", testPassword, http.StatusUnauthorized, msgAccountDeactivated},
		{"deactivated wrong password", "retired", "wrong-password", http.StatusUnauthorized, msgAccountDeactivated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, token := s.login(t, tt.username, tt.password)

			assertStatusCode(t, w, tt.wantStatus)
			assertJSONError(t, w, tt.wantError)
			if token != "" {
				t.Error("no cookie expected on failure")
			}
			if decodeJSON(t, w)["success"] != false {
				t.Error("expected success false")
			}
		})
	}
}

func TestHandleLogin_DeactivatedLeavesStoreUntouched(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "retired", false)

	w, _ := s.login(t, "retired", testPassword)

	assertStatusCode(t, w, http.StatusUnauthorized)
	if !strings.HasPrefix(decodeJSON(t, w)["error"].(string), "Account is deactivated") {
		t.Errorf("unexpected message: %v", decodeJSON(t, w)["error"])
	}

	admin, err := s.repo.GetByUsername(context.Background(), "retired")
	if err != nil {
		t.Fatalf("failed to load admin: %v", err)
	}
	if admin.ActiveSessionID != nil || admin.LastLoginAt != nil {
		t.Error("deactivated login must not write session state")
	}
}

func TestHandleLogin_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)

	assertStatusCode(t, w, http.StatusBadRequest)
	assertJSONError(t, w, msgMissingCredentials)
}

func TestHandleLogin_StoreUnavailable(t *testing.T) {
	repo := mock.NewAdminRepository()
	repo.GetByUsernameFunc = func(context.Context, string) (*models.AdminUser, error) {
		return nil, errors.New("connection reset")
	}
	s := newTestServerWithRepo(t, repo)

	w, _ := s.login(t, "admin", testPassword)

	assertStatusCode(t, w, http.StatusServiceUnavailable)
	if repo.Mutations() != 0 {
		t.Errorf("expected no writes, got %d", repo.Mutations())
	}
}

func TestHandleCheckSession(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)

	t.Run("no token", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil))

		assertStatusCode(t, w, http.StatusUnauthorized)
		if got := w.Header().Get("Cache-Control"); got != "no-store" {
			t.Errorf("expected no-store, got %q", got)
		}
		response := decodeJSON(t, w)
		if response["valid"] != false || response["reason"] != services.ReasonNoToken {
			t.Errorf("unexpected body: %v", response)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), "not.a.token"))

		assertStatusCode(t, w, http.StatusUnauthorized)
		if reason := decodeJSON(t, w)["reason"]; reason != services.ReasonInvalidToken {
			t.Errorf("expected %q, got %v", services.ReasonInvalidToken, reason)
		}
	})

	t.Run("current session", func(t *testing.T) {
		token := s.mustLogin(t, "admin")
		claims, _ := s.codec.Verify(token)

		w := s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), token))

		assertStatusCode(t, w, http.StatusOK)
		if got := w.Header().Get("Cache-Control"); got != "private, max-age=10" {
			t.Errorf("expected short private cache, got %q", got)
		}
		response := decodeJSON(t, w)
		if response["valid"] != true {
			t.Errorf("expected valid true, got %v", response)
		}
		if response["sessionId"] != claims.SessionID {
			t.Errorf("expected sessionId %s, got %v", claims.SessionID, response["sessionId"])
		}
		if _, ok := response["timestamp"]; !ok {
			t.Error("expected timestamp")
		}
		if _, ok := response["username"]; ok {
			t.Error("username must not be exposed")
		}
	})
}

func TestHandleCheckSession_NewerLoginSupersedes(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)

	first := s.mustLogin(t, "admin")
	second := s.mustLogin(t, "admin")

	w := s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), first))
	assertStatusCode(t, w, http.StatusUnauthorized)
	response := decodeJSON(t, w)
	if response["reason"] != services.ReasonSuperseded {
		t.Errorf("expected %q, got %v", services.ReasonSuperseded, response["reason"])
	}
	if response["sessionId"] == nil {
		t.Error("expected the stale session id to be echoed")
	}

	w = s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), second))
	assertStatusCode(t, w, http.StatusOK)
}

func TestHandleCheckSession_DeactivatedUser(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)
	token := s.mustLogin(t, "admin")

	if err := s.repo.SetActive(context.Background(), "admin", false); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	w := s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), token))
	assertStatusCode(t, w, http.StatusUnauthorized)
	if reason := decodeJSON(t, w)["reason"]; reason != services.ReasonUserInactive {
		t.Errorf("expected %q, got %v", services.ReasonUserInactive, reason)
	}
}

func TestHandleLogout(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)
	token := s.mustLogin(t, "admin")

	w := s.do(authed(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), token))
	assertStatusCode(t, w, http.StatusOK)
	if !cookieCleared(w) {
		t.Error("expected cookie to be cleared")
	}

	admin, _ := s.repo.GetByUsername(context.Background(), "admin")
	if admin.ActiveSessionID != nil {
		t.Error("expected server-side session to be cleared")
	}

	w = s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), token))
	assertStatusCode(t, w, http.StatusUnauthorized)

	// Idempotent: same token again, and no token at all
	w = s.do(authed(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), token))
	assertStatusCode(t, w, http.StatusOK)
	w = s.do(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assertStatusCode(t, w, http.StatusOK)
}

func TestHandleLogout_StaleTokenKeepsNewerSession(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)

	stale := s.mustLogin(t, "admin")
	current := s.mustLogin(t, "admin")

	w := s.do(authed(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), stale))
	assertStatusCode(t, w, http.StatusOK)

	w = s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), current))
	assertStatusCode(t, w, http.StatusOK)
}

func TestHandleForceLogoutAll(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)
	s.seed(t, "editor", true)

	t.Run("requires session", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodPost, "/api/auth/force-logout-all", nil))
		assertStatusCode(t, w, http.StatusUnauthorized)
	})

	t.Run("superseded caller rejected", func(t *testing.T) {
		stale := s.mustLogin(t, "admin")
		s.mustLogin(t, "admin")

		w := s.do(authed(httptest.NewRequest(http.MethodPost, "/api/auth/force-logout-all", nil), stale))
		assertStatusCode(t, w, http.StatusUnauthorized)
	})

	t.Run("terminates everyone", func(t *testing.T) {
		adminToken := s.mustLogin(t, "admin")
		editorToken := s.mustLogin(t, "editor")

		w := s.do(authed(httptest.NewRequest(http.MethodPost, "/api/auth/force-logout-all", nil), adminToken))
		assertStatusCode(t, w, http.StatusOK)

		response := decodeJSON(t, w)
		if response["terminatedBy"] != "admin" {
			t.Errorf("expected terminatedBy admin, got %v", response["terminatedBy"])
		}
		if msg, _ := response["message"].(string); msg == "" {
			t.Error("expected message")
		}
		if !cookieCleared(w) {
			t.Error("expected caller cookie to be cleared")
		}

		for _, token := range []string{adminToken, editorToken} {
			w := s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/check-session", nil), token))
			assertStatusCode(t, w, http.StatusUnauthorized)
		}
	})
}

func TestHandleEvents(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "admin", true)

	s.mustLogin(t, "admin")
	token := s.mustLogin(t, "admin")

	w := s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/events?limit=5", nil), token))
	assertStatusCode(t, w, http.StatusOK)

	events, ok := decodeJSON(t, w)["events"].([]interface{})
	if !ok {
		t.Fatalf("expected events array: %s", w.Body.String())
	}
	if len(events) != 2 {
		t.Errorf("expected 2 login events, got %d", len(events))
	}

	w = s.do(authed(httptest.NewRequest(http.MethodGet, "/api/auth/events?limit=zero", nil), token))
	assertStatusCode(t, w, http.StatusBadRequest)
}
