package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mgrendahl/tackle/internal/dashboard"
	"github.com/mgrendahl/tackle/pkg/auth"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/session"
	"github.com/mgrendahl/tackle/pkg/store"
)

// devUser is the identity NoAuth requests run as.
const devUser = "static:local"

// newTestServer builds a NoAuth server over fresh in-memory stores.
// Every request runs as the fixed development identity.
func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	stores := store.NewMemoryStores()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	svc := dashboard.NewService(stores, nil, nil, logger)
	s := New(Config{NoAuth: true}, Deps{Stores: stores, Dashboard: svc, Logger: logger})
	return s, s.Router()
}

// newAuthServer builds a server with real cookie auth over the static
// provider, returning the session store for direct manipulation.
func newAuthServer(t *testing.T) (http.Handler, session.Store) {
	t.Helper()
	stores := store.NewMemoryStores()
	sessions := session.NewMemoryStore()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(Config{}, Deps{Stores: stores, Sessions: sessions, Logger: logger})
	return s.Router(), sessions
}

// doJSON performs a request with an optional JSON body.
func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decodeData unwraps the success envelope into v.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *apiError       `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, w.Body.String())
	}
	if env.Error != nil {
		t.Fatalf("unexpected error response: %s: %s", env.Error.Code, env.Error.Message)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

// errorCode unwraps the error envelope and returns its code.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, w.Body.String())
	}
	if env.Error == nil {
		t.Fatalf("expected an error response, got %q", w.Body.String())
	}
	return env.Error.Code
}

// signIn walks the static-provider flow and returns the session cookie.
func signIn(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	w := doJSON(t, h, http.MethodGet, "/api/v1/auth/login", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d, want %d", w.Code, http.StatusFound)
	}

	w = doJSON(t, h, http.MethodGet, w.Header().Get("Location"), nil)
	if w.Code != http.StatusFound {
		t.Fatalf("callback status = %d, want %d (body %s)", w.Code, http.StatusFound, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("callback set no session cookie")
	return nil
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var data map[string]string
	decodeData(t, w, &data)
	if data["status"] != "ok" {
		t.Errorf("status field = %q, want %q", data["status"], "ok")
	}
}

func TestRequiresSession(t *testing.T) {
	h, _ := newAuthServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/contacts", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeUnauthorized) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeUnauthorized)
	}
}

func TestStaticSignInFlow(t *testing.T) {
	h, _ := newAuthServer(t)
	cookie := signIn(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, want %d", w.Code, http.StatusOK)
	}
	var me meResult
	decodeData(t, w, &me)
	if me.User == nil || me.User.Key() != devUser {
		t.Errorf("me user = %+v, want key %q", me.User, devUser)
	}
	if me.SessionID == "" {
		t.Error("me returned an empty session id")
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	h, _ := newAuthServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/auth/callback?code=static&state=bogus", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeForbidden) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeForbidden)
	}
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	h, _ := newAuthServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/auth/login", nil)
	loc := w.Header().Get("Location")

	if w = doJSON(t, h, http.MethodGet, loc, nil); w.Code != http.StatusFound {
		t.Fatalf("first callback status = %d, want %d", w.Code, http.StatusFound)
	}
	if w = doJSON(t, h, http.MethodGet, loc, nil); w.Code != http.StatusForbidden {
		t.Errorf("replayed callback status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestSessionListAndRevoke(t *testing.T) {
	h, _ := newAuthServer(t)
	first := signIn(t, h)
	second := signIn(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/v1/auth/sessions", nil, second)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", w.Code, http.StatusOK)
	}
	var infos []sessionInfo
	decodeData(t, w, &infos)
	if len(infos) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(infos))
	}

	var other string
	currents := 0
	for _, info := range infos {
		if info.Current {
			currents++
		} else {
			other = info.ID
		}
	}
	if currents != 1 {
		t.Errorf("%d sessions marked current, want 1", currents)
	}
	if other != first.Value {
		t.Errorf("non-current session = %q, want %q", other, first.Value)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/auth/sessions/"+other, nil, second)
	if w.Code != http.StatusNoContent {
		t.Fatalf("revoke status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/auth/sessions", nil, second)
	decodeData(t, w, &infos)
	if len(infos) != 1 {
		t.Errorf("listed %d sessions after revoke, want 1", len(infos))
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/auth/sessions/"+other, nil, second)
	if w.Code != http.StatusNotFound {
		t.Errorf("revoking a revoked session status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	h, sessions := newAuthServer(t)

	sess, err := session.New("tok", &auth.Identity{Provider: "static", ID: "local"}, -time.Minute)
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	if err := sessions.Set(context.Background(), sess); err != nil {
		t.Fatalf("store session: %v", err)
	}

	cookie := &http.Cookie{Name: sessionCookie, Value: sess.ID}
	w := doJSON(t, h, http.MethodGet, "/api/v1/contacts", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeSessionExpired) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeSessionExpired)
	}
}

func TestRecovererConvertsPanics(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := doJSON(t, h, http.MethodGet, "/anything", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if code := errorCode(t, w); code != string(errors.ErrCodeInternal) {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeInternal)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	_, h := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/nonsense", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
