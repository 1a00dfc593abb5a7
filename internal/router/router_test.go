package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classsite/internal/config"
	apperrors "classsite/internal/errors"
	"classsite/internal/handler"
	"classsite/internal/model"
	"classsite/internal/service"
)

// stubAuth resolves tokens from a fixed table.
type stubAuth struct {
	users map[string]*model.User
	err   error
}

func (s *stubAuth) Authenticate(ctx context.Context, account, password string) (*model.User, error) {
	return nil, apperrors.ErrInvalidCredentials
}

func (s *stubAuth) Login(ctx context.Context, account, password string) (*service.LoginResult, error) {
	return nil, apperrors.ErrInvalidCredentials
}

func (s *stubAuth) Authorize(ctx context.Context, token string, roles ...model.Role) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[token]
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	if len(roles) > 0 && !user.HasRole(roles...) {
		required := make([]string, len(roles))
		for i, r := range roles {
			required[i] = string(r)
		}
		return nil, &apperrors.ForbiddenError{Required: required}
	}
	return user, nil
}

func (s *stubAuth) Logout(ctx context.Context, token string) error { return nil }

type stubSite struct{}

func (stubSite) GetSite(ctx context.Context) (*model.SiteInfo, error) {
	return &model.SiteInfo{}, nil
}

func (stubSite) UpdateSite(ctx context.Context, in model.SiteInfo) (*model.SiteInfo, error) {
	return &in, nil
}

func (stubSite) GetSchedule(ctx context.Context) (map[string]interface{}, error) { return nil, nil }

func (stubSite) UploadScheduleImage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	return "", nil
}

func (stubSite) DeleteScheduleImage(ctx context.Context) error { return nil }

func newTestServer(auth service.AuthService) *echo.Echo {
	e := echo.New()
	cfg := &config.Config{
		CORSOrigins: []string{"http://localhost:5173"},
		Media:       config.MediaConfig{Backend: config.MediaMinIO},
	}
	Register(e, cfg, Handlers{
		Auth:          handler.NewAuthHandler(auth, false),
		Users:         handler.NewUserHandler(nil),
		Site:          handler.NewSiteHandler(stubSite{}),
		Health:        handler.NewHealthHandler(nil),
		Announcements: handler.NewContentHandler[model.Announcement](nil),
		Assignments:   handler.NewContentHandler[model.Assignment](nil),
		Resources:     handler.NewContentHandler[model.Resource](nil),
		Gallery:       handler.NewGalleryHandler(nil),
		Rules:         handler.NewContentHandler[model.Rule](nil),
	}, auth, prometheus.NewRegistry())
	return e
}

func serve(e *echo.Echo, method, target string, prepare func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
}

func testAuth() *stubAuth {
	return &stubAuth{users: map[string]*model.User{
		"student-token": {ID: 1, Account: "sam", Role: model.RoleStudent, Enabled: true},
		"teacher-token": {ID: 2, Account: "tess", Name: "Tess", Role: model.RoleTeacher, Enabled: true},
		"admin-token":   {ID: 3, Account: "admin", Role: model.RoleAdmin, Enabled: true},
	}}
}

func TestGuard_AdminSite(t *testing.T) {
	e := newTestServer(testAuth())

	tests := []struct {
		name     string
		prepare  func(*http.Request)
		wantCode int
		wantBody string
	}{
		{name: "no token", wantCode: http.StatusUnauthorized, wantBody: "UNAUTHENTICATED"},
		{name: "unknown token", prepare: bearer("forged"), wantCode: http.StatusUnauthorized, wantBody: "UNAUTHENTICATED"},
		{name: "student", prepare: bearer("student-token"), wantCode: http.StatusForbidden, wantBody: "FORBIDDEN"},
		{name: "teacher", prepare: bearer("teacher-token"), wantCode: http.StatusOK},
		{name: "admin", prepare: bearer("admin-token"), wantCode: http.StatusOK},
		{
			name: "teacher via cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: handler.SessionCookie, Value: "teacher-token"})
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/api/admin/site", tt.prepare)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestGuard_UserManagementIsAdminOnly(t *testing.T) {
	e := newTestServer(testAuth())

	rec := serve(e, http.MethodGet, "/api/admin/users", bearer("teacher-token"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodPost, "/api/admin/users/2/unlock", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_GalleryUploadIsStaffOnly(t *testing.T) {
	e := newTestServer(testAuth())

	rec := serve(e, http.MethodPost, "/api/admin/gallery/upload", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodPost, "/api/admin/gallery/upload", bearer("student-token"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuard_StorageUnavailable(t *testing.T) {
	auth := testAuth()
	auth.err = apperrors.Storage("user lookup", assert.AnError)
	e := newTestServer(auth)

	rec := serve(e, http.MethodGet, "/api/admin/site", bearer("teacher-token"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "STORAGE_UNAVAILABLE")
}

func TestOptionalGuard_Me(t *testing.T) {
	e := newTestServer(testAuth())

	t.Run("anonymous", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/api/auth/me", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "null", rec.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/api/auth/me", bearer("forged"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "null", rec.Body.String())
	})

	t.Run("authenticated", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/api/auth/me", bearer("teacher-token"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":2,"account":"tess","name":"Tess","role":"teacher"}`, rec.Body.String())
	})

	t.Run("storage unavailable", func(t *testing.T) {
		auth := testAuth()
		auth.err = apperrors.Storage("user lookup", assert.AnError)
		rec := serve(newTestServer(auth), http.MethodGet, "/api/auth/me", bearer("teacher-token"))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestPublicRoutes(t *testing.T) {
	e := newTestServer(testAuth())

	rec := serve(e, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/site", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_AllowsCredentials(t *testing.T) {
	e := newTestServer(testAuth())

	rec := serve(e, http.MethodOptions, "/api/auth/login", func(r *http.Request) {
		r.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
		r.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	})

	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}
