package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/http/middleware"
)

// Avatar uploads are capped at 2 MiB, matching the original platform.
const maxAvatarBytes = 2 << 20

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc    domain.AuthService
	csrfRepo   domain.CsrfTokenRepository
	validator  domain.StepValidator
	cookieName string
	sessionTTL time.Duration
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, csrfRepo domain.CsrfTokenRepository, validator domain.StepValidator, cookieName string, sessionTTL time.Duration) *AuthHandlers {
	return &AuthHandlers{
		authSvc:    authSvc,
		csrfRepo:   csrfRepo,
		validator:  validator,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	CsrfToken string `json:"csrf_token"`
}

// ValidateStepRequest represents a registration step probe
type ValidateStepRequest struct {
	Step int               `json:"step" binding:"required"`
	Data map[string]string `json:"data"`
}

// CsrfToken issues a fresh anti-forgery token bound to the caller's
// session cookie. Anonymous callers get a pre-session binding cookie;
// every call returns a new token value.
func (h *AuthHandlers) CsrfToken(c *gin.Context) {
	bindingID, err := c.Cookie(h.cookieName)
	if err != nil || bindingID == "" {
		bindingID, err = newBindingID()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
			return
		}
		c.SetCookie(h.cookieName, bindingID, 0, "/", "", false, true)
	}

	token, err := h.csrfRepo.Issue(c.Request.Context(), bindingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"csrf_token": token.Value,
		"message":    "Include this token in your POST request body as csrf_token or in X-CSRF-Token header",
		"session_id": bindingID,
	})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	csrfToken := req.CsrfToken
	if csrfToken == "" {
		csrfToken = c.GetHeader("X-CSRF-Token")
	}
	bindingID, _ := c.Cookie(h.cookieName)

	result, err := h.authSvc.Login(c.Request.Context(), &domain.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		CsrfToken: csrfToken,
		BindingID: bindingID,
	})
	if err != nil {
		h.loginError(c, err)
		return
	}

	// The pre-auth binding cookie is replaced with the real session id.
	c.SetCookie(h.cookieName, result.SessionID, int(h.sessionTTL.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         userProjection(result.User),
		"redirect":     result.Redirect,
		"access_token": result.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   result.ExpiresIn,
	})
}

func (h *AuthHandlers) loginError(c *gin.Context, err error) {
	var lockErr *domain.AccountLockedError
	switch {
	case errors.Is(err, domain.ErrCsrfInvalid):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid CSRF token. Refresh the page and try again."})
	case errors.As(err, &lockErr):
		c.JSON(http.StatusLocked, gin.H{
			"error":       "Account temporarily locked due to repeated failed attempts. Try again later.",
			"retry_after": int64(lockErr.RetryAfter.Seconds()),
		})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, domain.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is not active", "code": "ACCOUNT_INACTIVE"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
	}
}

// Register handles user registration. Accepts multipart form data with
// an optional profile photo, or a plain JSON body.
func (h *AuthHandlers) Register(c *gin.Context) {
	input, err := h.parseRegistration(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), input)
	if err != nil {
		var verrs domain.ValidationErrors
		switch {
		case errors.Is(err, domain.ErrCsrfInvalid):
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid CSRF token"})
		case errors.As(err, &verrs):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "errors": verrs})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user_id": user.ID,
		"status":  "success",
	})
}

func (h *AuthHandlers) parseRegistration(c *gin.Context) (*domain.RegistrationInput, error) {
	bindingID, _ := c.Cookie(h.cookieName)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		input := &domain.RegistrationInput{
			BindingID:      bindingID,
			CsrfToken:      c.PostForm("csrf_token"),
			Name:           c.PostForm("name"),
			Email:          c.PostForm("email"),
			Password:       c.PostForm("password"),
			Phone:          c.PostForm("phone"),
			ParentPhone:    c.PostForm("parent_phone"),
			GuardianName:   c.PostForm("guardian_name"),
			SchoolName:     c.PostForm("school_name"),
			GradeLevel:     c.PostForm("grade_level"),
			EducationStage: c.PostForm("education_stage"),
			Governorate:    c.PostForm("governorate"),
			City:           c.PostForm("city"),
			BirthDate:      c.PostForm("birth_date"),
			Gender:         c.PostForm("gender"),
		}
		if input.CsrfToken == "" {
			input.CsrfToken = c.GetHeader("X-CSRF-Token")
		}

		avatar, err := h.readAvatar(c)
		if err != nil {
			return nil, err
		}
		input.Avatar = avatar
		return input, nil
	}

	var req struct {
		CsrfToken      string `json:"csrf_token"`
		Name           string `json:"name"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		Phone          string `json:"phone"`
		ParentPhone    string `json:"parent_phone"`
		GuardianName   string `json:"guardian_name"`
		SchoolName     string `json:"school_name"`
		GradeLevel     string `json:"grade_level"`
		EducationStage string `json:"education_stage"`
		Governorate    string `json:"governorate"`
		City           string `json:"city"`
		BirthDate      string `json:"birth_date"`
		Gender         string `json:"gender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, errors.New("invalid request body")
	}

	csrfToken := req.CsrfToken
	if csrfToken == "" {
		csrfToken = c.GetHeader("X-CSRF-Token")
	}

	return &domain.RegistrationInput{
		BindingID:      bindingID,
		CsrfToken:      csrfToken,
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		ParentPhone:    req.ParentPhone,
		GuardianName:   req.GuardianName,
		SchoolName:     req.SchoolName,
		GradeLevel:     req.GradeLevel,
		EducationStage: req.EducationStage,
		Governorate:    req.Governorate,
		City:           req.City,
		BirthDate:      req.BirthDate,
		Gender:         req.Gender,
	}, nil
}

func (h *AuthHandlers) readAvatar(c *gin.Context) (*domain.AvatarUpload, error) {
	header, err := c.FormFile("profile_photo")
	if err != nil {
		header, err = c.FormFile("avatar")
	}
	if err != nil {
		return nil, nil // avatar is optional
	}

	if header.Size > maxAvatarBytes {
		return nil, errors.New("profile photo exceeds the 2MB limit")
	}

	f, err := header.Open()
	if err != nil {
		return nil, errors.New("failed to read profile photo")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAvatarBytes+1))
	if err != nil {
		return nil, errors.New("failed to read profile photo")
	}
	if len(data) > maxAvatarBytes {
		return nil, errors.New("profile photo exceeds the 2MB limit")
	}

	return &domain.AvatarUpload{Filename: header.Filename, Data: data}, nil
}

// ValidateStep handles registration step validation. A pure probe: it
// applies the step's field rules and persists nothing.
func (h *AuthHandlers) ValidateStep(c *gin.Context) {
	var req ValidateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Step number is required"})
		return
	}

	verrs := h.validator.ValidateStep(c.Request.Context(), req.Step, req.Data)
	if verrs.HasErrors() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "errors": verrs})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Valid", "status": true})
}

// Me handles getting the authenticated user's profile
func (h *AuthHandlers) Me(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	user, err := h.authSvc.GetUserProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, userProjection(user))
}

// Logout handles user logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), identity.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// userProjection is the stable client-facing view of a user.
func userProjection(u *domain.User) gin.H {
	return gin.H{
		"id":     u.ID,
		"name":   u.Name,
		"email":  u.Email,
		"role":   u.Role,
		"status": u.Status,
		"avatar": u.Avatar,
	}
}

func newBindingID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "anon_" + hex.EncodeToString(raw), nil
}
