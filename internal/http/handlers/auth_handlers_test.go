package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerMocks struct {
	authSvc   *mocks.MockAuthService
	csrfRepo  *mocks.MockCsrfRepository
	validator *mocks.MockStepValidator
}

func newHandlerMocks() *handlerMocks {
	return &handlerMocks{
		authSvc:   mocks.NewMockAuthService(),
		csrfRepo:  mocks.NewMockCsrfRepository(),
		validator: mocks.NewMockStepValidator(),
	}
}

func newTestRouter(m *handlerMocks) *gin.Engine {
	h := NewAuthHandlers(m.authSvc, m.csrfRepo, m.validator, "platform_session", 24*time.Hour)

	r := gin.New()
	r.GET("/api/csrf-token", h.CsrfToken)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/validate-step", h.ValidateStep)

	// Authenticated routes get a canned identity for handler-level tests.
	authed := r.Group("", func(c *gin.Context) {
		c.Set("identity", &domain.Identity{UserID: 7, Role: domain.RoleStudent, SessionID: "sess_abc"})
	})
	authed.GET("/api/auth/me", h.Me)
	authed.POST("/api/auth/logout", h.Logout)

	return r
}

func postJSON(r *gin.Engine, path string, body interface{}, cookie string) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "platform_session", Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthHandlers_CsrfToken_NewVisitor(t *testing.T) {
	m := newHandlerMocks()

	issued := 0
	m.csrfRepo.IssueFunc = func(ctx context.Context, bindingID string) (*domain.CsrfToken, error) {
		issued++
		return &domain.CsrfToken{Value: fmt.Sprintf("token-%d", issued), BindingID: bindingID}, nil
	}

	r := newTestRouter(m)
	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "token-1", body["csrf_token"])
	assert.NotEmpty(t, body["session_id"])
	assert.True(t, strings.HasPrefix(body["session_id"].(string), "anon_"))

	// The pre-session binding cookie is set for the anonymous visitor.
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "platform_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuthHandlers_CsrfToken_FreshTokenPerCall(t *testing.T) {
	m := newHandlerMocks()

	issued := 0
	var bindings []string
	m.csrfRepo.IssueFunc = func(ctx context.Context, bindingID string) (*domain.CsrfToken, error) {
		issued++
		bindings = append(bindings, bindingID)
		return &domain.CsrfToken{Value: fmt.Sprintf("token-%d", issued), BindingID: bindingID}, nil
	}

	r := newTestRouter(m)

	var tokens []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		req.AddCookie(&http.Cookie{Name: "platform_session", Value: "anon_existing"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		tokens = append(tokens, decodeBody(t, w)["csrf_token"].(string))
	}

	assert.NotEqual(t, tokens[0], tokens[1])
	// Both issuances stay bound to the caller's existing cookie.
	assert.Equal(t, []string{"anon_existing", "anon_existing"}, bindings)
}

func TestAuthHandlers_Login_Success(t *testing.T) {
	m := newHandlerMocks()

	m.authSvc.LoginFunc = func(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
		assert.Equal(t, "student@example.com", input.Email)
		assert.Equal(t, "csrf-abc", input.CsrfToken)
		assert.Equal(t, "anon_xyz", input.BindingID)
		return &domain.AuthResult{
			User:        &domain.User{ID: 7, Name: "Ahmed Hassan", Email: "student@example.com", Role: domain.RoleStudent, Status: domain.StatusActive},
			SessionID:   "sess_new",
			AccessToken: "jwt-token",
			ExpiresIn:   900,
			Redirect:    "/dashboard",
		}, nil
	}

	r := newTestRouter(m)
	w := postJSON(r, "/api/auth/login", gin.H{
		"email":      "student@example.com",
		"password":   "secret123",
		"csrf_token": "csrf-abc",
	}, "anon_xyz")

	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "/dashboard", body["redirect"])
	assert.Equal(t, "jwt-token", body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Ahmed Hassan", user["name"])
	// The projection never exposes the password hash.
	_, leaked := user["password"]
	assert.False(t, leaked)

	// Session cookie replaces the anonymous binding.
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sess_new", cookies[0].Value)
}

func TestAuthHandlers_Login_CsrfFromHeader(t *testing.T) {
	m := newHandlerMocks()

	var gotToken string
	m.authSvc.LoginFunc = func(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
		gotToken = input.CsrfToken
		return nil, domain.ErrInvalidCredentials
	}

	r := newTestRouter(m)
	data, _ := json.Marshal(gin.H{"email": "a@b.co", "password": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", "header-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "header-token", gotToken)
}

func TestAuthHandlers_Login_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		loginErr   error
		wantStatus int
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid csrf", domain.ErrCsrfInvalid, http.StatusForbidden},
		{"account locked", &domain.AccountLockedError{RetryAfter: 10 * time.Minute}, http.StatusLocked},
		{"inactive account", domain.ErrAccountInactive, http.StatusForbidden},
		{"backend failure", fmt.Errorf("redis down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newHandlerMocks()
			m.authSvc.LoginFunc = func(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
				return nil, tt.loginErr
			}

			r := newTestRouter(m)
			w := postJSON(r, "/api/auth/login", gin.H{"email": "a@b.co", "password": "x"}, "")

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAuthHandlers_Login_LockedCarriesRetryAfter(t *testing.T) {
	m := newHandlerMocks()
	m.authSvc.LoginFunc = func(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
		return nil, &domain.AccountLockedError{RetryAfter: 10 * time.Minute}
	}

	r := newTestRouter(m)
	w := postJSON(r, "/api/auth/login", gin.H{"email": "a@b.co", "password": "x"}, "")

	require.Equal(t, http.StatusLocked, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(600), body["retry_after"])
}

func TestAuthHandlers_Login_MissingFields(t *testing.T) {
	r := newTestRouter(newHandlerMocks())
	w := postJSON(r, "/api/auth/login", gin.H{"email": "a@b.co"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlers_Register_Success(t *testing.T) {
	m := newHandlerMocks()

	var got *domain.RegistrationInput
	m.authSvc.RegisterFunc = func(ctx context.Context, input *domain.RegistrationInput) (*domain.User, error) {
		got = input
		return &domain.User{ID: 42}, nil
	}

	r := newTestRouter(m)
	w := postJSON(r, "/api/auth/register", gin.H{
		"csrf_token":      "csrf-abc",
		"name":            "Ahmed Hassan",
		"email":           "ahmed@example.com",
		"password":        "secret123",
		"phone":           "01012345678",
		"education_stage": "secondary",
		"governorate":     "Cairo",
		"city":            "Maadi",
	}, "anon_xyz")

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(42), body["user_id"])
	assert.Equal(t, "success", body["status"])

	require.NotNil(t, got)
	assert.Equal(t, "anon_xyz", got.BindingID)
	assert.Equal(t, "Ahmed Hassan", got.Name)
}

func TestAuthHandlers_Register_ValidationFailure(t *testing.T) {
	m := newHandlerMocks()
	m.authSvc.RegisterFunc = func(ctx context.Context, input *domain.RegistrationInput) (*domain.User, error) {
		verrs := domain.ValidationErrors{}
		verrs.Add("phone", "invalid phone number")
		return nil, verrs
	}

	r := newTestRouter(m)
	w := postJSON(r, "/api/auth/register", gin.H{"name": "x"}, "")

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Validation failed", body["error"])
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "phone")
}

func TestAuthHandlers_Register_InvalidCsrf(t *testing.T) {
	m := newHandlerMocks()
	m.authSvc.RegisterFunc = func(ctx context.Context, input *domain.RegistrationInput) (*domain.User, error) {
		return nil, domain.ErrCsrfInvalid
	}

	r := newTestRouter(m)
	w := postJSON(r, "/api/auth/register", gin.H{"name": "x"}, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandlers_Register_MultipartForm(t *testing.T) {
	m := newHandlerMocks()

	var got *domain.RegistrationInput
	m.authSvc.RegisterFunc = func(ctx context.Context, input *domain.RegistrationInput) (*domain.User, error) {
		got = input
		return &domain.User{ID: 42}, nil
	}

	var buf bytes.Buffer
	mw := newMultipartBody(t, &buf, map[string]string{
		"csrf_token": "csrf-abc",
		"name":       "Ahmed Hassan",
		"email":      "ahmed@example.com",
	}, "profile_photo", "photo.png", []byte("imagebytes"))

	r := newTestRouter(m)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", &buf)
	req.Header.Set("Content-Type", mw)
	req.AddCookie(&http.Cookie{Name: "platform_session", Value: "anon_xyz"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "csrf-abc", got.CsrfToken)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, "photo.png", got.Avatar.Filename)
	assert.Equal(t, []byte("imagebytes"), got.Avatar.Data)
}

func TestAuthHandlers_ValidateStep(t *testing.T) {
	t.Run("valid step data", func(t *testing.T) {
		m := newHandlerMocks()

		var gotStep int
		m.validator.ValidateStepFunc = func(ctx context.Context, step int, data map[string]string) domain.ValidationErrors {
			gotStep = step
			return domain.ValidationErrors{}
		}

		r := newTestRouter(m)
		w := postJSON(r, "/api/auth/validate-step", gin.H{
			"step": 1,
			"data": gin.H{"email": "ahmed@example.com"},
		}, "")

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "Valid", body["message"])
		assert.Equal(t, true, body["status"])
		assert.Equal(t, 1, gotStep)
	})

	t.Run("invalid step data", func(t *testing.T) {
		m := newHandlerMocks()
		m.validator.ValidateStepFunc = func(ctx context.Context, step int, data map[string]string) domain.ValidationErrors {
			verrs := domain.ValidationErrors{}
			verrs.Add("email", "invalid email address")
			return verrs
		}

		r := newTestRouter(m)
		w := postJSON(r, "/api/auth/validate-step", gin.H{
			"step": 1,
			"data": gin.H{"email": "bad"},
		}, "")

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeBody(t, w)
		errs := body["errors"].(map[string]interface{})
		assert.Contains(t, errs, "email")
	})

	t.Run("missing step", func(t *testing.T) {
		r := newTestRouter(newHandlerMocks())
		w := postJSON(r, "/api/auth/validate-step", gin.H{"data": gin.H{}}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandlers_Me(t *testing.T) {
	m := newHandlerMocks()
	m.authSvc.GetUserProfileFunc = func(ctx context.Context, userID uint) (*domain.User, error) {
		return &domain.User{ID: userID, Name: "Ahmed Hassan", Email: "ahmed@example.com", Role: domain.RoleStudent, Status: domain.StatusActive}, nil
	}

	r := newTestRouter(m)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, "Ahmed Hassan", body["name"])
}

func TestAuthHandlers_Me_DeletedUser(t *testing.T) {
	m := newHandlerMocks()
	m.authSvc.GetUserProfileFunc = func(ctx context.Context, userID uint) (*domain.User, error) {
		return nil, domain.ErrUserNotFound
	}

	r := newTestRouter(m)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlers_Logout(t *testing.T) {
	m := newHandlerMocks()

	deleted := ""
	m.authSvc.LogoutFunc = func(ctx context.Context, sessionID string) error {
		deleted = sessionID
		return nil
	}

	r := newTestRouter(m)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess_abc", deleted)

	// The session cookie is cleared.
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}
