package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haiintel/dashboard/internal/logging"
	"github.com/haiintel/dashboard/internal/model/user"
)

type fakeTokens map[string]user.User

func (f fakeTokens) ParseToken(token string) (user.User, error) {
	u, ok := f[token]
	if !ok {
		return user.User{}, errors.New("bad token")
	}
	return u, nil
}

var admin = user.User{ID: "1", Email: "admin@haiintel.com", Role: "admin", Name: "sundar"}

func guardedRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Guard(fakeTokens{"good": admin}))
	ok := func(w http.ResponseWriter, r *http.Request) {
		if u, found := UserFrom(r.Context()); found {
			_, _ = w.Write([]byte(u.Name))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	}
	r.Get("/", ok)
	r.Get("/login", ok)
	r.Get("/static/app.css", ok)
	r.Get("/favicon.ico", ok)
	r.Post("/api/auth/login", ok)
	r.Get("/api/chat/session", ok)
	return r
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		status   int
		location string
		body     string
	}{
		{"dashboard anonymous", http.MethodGet, "/", "", http.StatusFound, "/login", ""},
		{"dashboard bad token", http.MethodGet, "/", "forged", http.StatusFound, "/login", ""},
		{"dashboard signed in", http.MethodGet, "/", "good", http.StatusOK, "", "sundar"},
		{"login anonymous", http.MethodGet, "/login", "", http.StatusOK, "", "anonymous"},
		{"login signed in", http.MethodGet, "/login", "good", http.StatusFound, "/", ""},
		{"static", http.MethodGet, "/static/app.css", "", http.StatusOK, "", "anonymous"},
		{"favicon", http.MethodGet, "/favicon.ico", "", http.StatusOK, "", "anonymous"},
		{"login api", http.MethodPost, "/api/auth/login", "", http.StatusOK, "", "anonymous"},
		{"api anonymous", http.MethodGet, "/api/chat/session", "", http.StatusUnauthorized, "", `{"error":"unauthorized"}` + "\n"},
		{"api signed in", http.MethodGet, "/api/chat/session", "good", http.StatusOK, "", "sundar"},
	}

	h := guardedRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.token})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestDeviceIssuesCookie(t *testing.T) {
	var seen string
	h := Device(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DeviceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DeviceCookieName, cookies[0].Name)
	assert.Equal(t, seen, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestDeviceReusesCookie(t *testing.T) {
	id := uuid.NewString()
	var seen string
	h := Device(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DeviceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, id, seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestDeviceReplacesMalformedCookie(t *testing.T) {
	var seen string
	h := Device(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = DeviceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "../../etc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEqual(t, "../../etc", seen)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://haiintel.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/session", nil)
	req.Header.Set("Origin", "https://haiintel.com")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://haiintel.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	h := RequestLogger(logging.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.(http.Flusher).Flush()
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, rec.Flushed)
}
