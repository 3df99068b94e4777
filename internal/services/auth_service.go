package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/storage"
)

// AuthServiceImpl implements domain.AuthService. It is the single entry
// point for login and registration: CSRF first, then lockout, then
// credentials, then session creation.
type AuthServiceImpl struct {
	userRepo        domain.UserRepository
	sessionRepo     domain.SessionRepository
	csrfRepo        domain.CsrfTokenRepository
	lockout         domain.LockoutTracker
	passwordSvc     domain.PasswordService
	tokenSvc        domain.TokenService
	notificationSvc domain.NotificationService
	validator       domain.StepValidator
	fileRepo        domain.FileRepository
	blobStore       domain.BlobStore
	sessionTTL      time.Duration
	accessTTL       time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	sessionRepo domain.SessionRepository,
	csrfRepo domain.CsrfTokenRepository,
	lockout domain.LockoutTracker,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	notificationSvc domain.NotificationService,
	validator domain.StepValidator,
	fileRepo domain.FileRepository,
	blobStore domain.BlobStore,
	sessionTTL time.Duration,
	accessTTL time.Duration,
) domain.AuthService {
	return &AuthServiceImpl{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		csrfRepo:        csrfRepo,
		lockout:         lockout,
		passwordSvc:     passwordSvc,
		tokenSvc:        tokenSvc,
		notificationSvc: notificationSvc,
		validator:       validator,
		fileRepo:        fileRepo,
		blobStore:       blobStore,
		sessionTTL:      sessionTTL,
		accessTTL:       accessTTL,
	}
}

// Login implements domain.AuthService.
//
// Order matters: CSRF is checked before anything account-related so a
// forged request learns nothing; the lockout check runs before credential
// verification so a locked account neither burns attempts nor leaks
// whether the password would have matched.
func (s *AuthServiceImpl) Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
	ok, err := s.csrfRepo.Validate(ctx, input.BindingID, input.CsrfToken)
	if err != nil {
		return nil, fmt.Errorf("csrf validation failed: %w", err)
	}
	if !ok {
		return nil, domain.ErrCsrfInvalid
	}

	accountKey := strings.ToLower(strings.TrimSpace(input.Email))

	locked, retryAfter, err := s.lockout.CheckLocked(ctx, accountKey)
	if err != nil {
		return nil, fmt.Errorf("lockout check failed: %w", err)
	}
	if locked {
		log.Printf("LOGIN_LOCKED: account=%s retry_after=%s", accountKey, retryAfter.Round(time.Second))
		return nil, &domain.AccountLockedError{RetryAfter: retryAfter}
	}

	// Unknown account and wrong password take the same failure path so
	// the response never reveals which one happened.
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, s.failAttempt(ctx, accountKey)
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if !s.passwordSvc.Verify(user.PasswordHash, input.Password) {
		return nil, s.failAttempt(ctx, accountKey)
	}

	if user.Status != domain.StatusActive {
		return nil, domain.ErrAccountInactive
	}

	if err := s.lockout.RecordSuccess(ctx, accountKey); err != nil {
		return nil, fmt.Errorf("failed to clear failure counter: %w", err)
	}

	// A fresh session id is always generated here; the pre-auth binding
	// id is never promoted into a session (fixation defense).
	sessionID, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	session := &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	log.Printf("LOGIN_OK: user_id=%d email=%s session=%s", user.ID, accountKey, session.ID)

	return &domain.AuthResult{
		User:        user,
		SessionID:   session.ID,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		Redirect:    "/dashboard",
	}, nil
}

// failAttempt records a failed login and reports either lockout (when
// this failure tripped the threshold) or plain invalid credentials.
func (s *AuthServiceImpl) failAttempt(ctx context.Context, accountKey string) error {
	locked, retryAfter, err := s.lockout.RecordFailure(ctx, accountKey)
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	if locked {
		log.Printf("LOGIN_LOCKOUT_TRIPPED: account=%s", accountKey)
		return &domain.AccountLockedError{RetryAfter: retryAfter}
	}
	log.Printf("LOGIN_FAIL: account=%s", accountKey)
	return domain.ErrInvalidCredentials
}

// Register implements domain.AuthService. Field validation fully
// precedes persistence: invalid input creates no user record.
func (s *AuthServiceImpl) Register(ctx context.Context, input *domain.RegistrationInput) (*domain.User, error) {
	ok, err := s.csrfRepo.Validate(ctx, input.BindingID, input.CsrfToken)
	if err != nil {
		return nil, fmt.Errorf("csrf validation failed: %w", err)
	}
	if !ok {
		return nil, domain.ErrCsrfInvalid
	}

	if verrs := s.validator.ValidateRegistration(ctx, input); verrs.HasErrors() {
		return nil, verrs
	}

	hashedPassword, err := s.passwordSvc.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:          input.Phone,
		ParentPhone:    input.ParentPhone,
		GuardianName:   input.GuardianName,
		SchoolName:     input.SchoolName,
		GradeLevel:     input.GradeLevel,
		EducationStage: input.EducationStage,
		Governorate:    input.Governorate,
		City:           input.City,
		BirthDate:      input.BirthDate,
		Gender:         input.Gender,
		PasswordHash:   hashedPassword,
		// Only students can self-register.
		Role:   domain.RoleStudent,
		Status: domain.StatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration can win the race between the
		// validator's uniqueness probe and the insert; the loser gets
		// the same field error the probe would have produced.
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			verrs := domain.ValidationErrors{}
			verrs.Add("email", "email is already registered")
			return nil, verrs
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if input.Avatar != nil {
		if err := s.storeAvatar(ctx, user, input.Avatar); err != nil {
			// Undo the insert so a retried registration does not hit
			// the uniqueness checks against a half-created account.
			if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
				log.Printf("REGISTER_ROLLBACK_FAILED: user_id=%d error=%v", user.ID, delErr)
			}
			return nil, err
		}
	}

	// Welcome SMS is best effort; registration already succeeded.
	if user.Phone != "" {
		msg := fmt.Sprintf("Welcome to the platform, %s. Your account is ready.", user.Name)
		if err := s.notificationSvc.SendSMS(user.Phone, msg); err != nil {
			log.Printf("REGISTER_SMS_FAILED: user_id=%d error=%v", user.ID, err)
		}
	}

	log.Printf("REGISTER_OK: user_id=%d email=%s", user.ID, user.Email)
	return user, nil
}

func (s *AuthServiceImpl) storeAvatar(ctx context.Context, user *domain.User, upload *domain.AvatarUpload) error {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	filename := fmt.Sprintf("avatar_%d%s", user.ID, ext)

	if err := s.blobStore.Save(domain.CategoryAvatars, filename, upload.Data); err != nil {
		return fmt.Errorf("failed to store avatar: %w", err)
	}

	file := &domain.StoredFile{
		Category: domain.CategoryAvatars,
		Filename: filename,
		OwnerID:  user.ID,
		MimeType: storage.MimeType(filename),
		Size:     int64(len(upload.Data)),
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		return fmt.Errorf("failed to record avatar metadata: %w", err)
	}

	user.Avatar = domain.CategoryAvatars + "/" + filename
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to attach avatar to user: %w", err)
	}
	return nil
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

// GetUserProfile implements domain.AuthService
func (s *AuthServiceImpl) GetUserProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func newSessionID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(raw), nil
}
