package domain

import (
	"context"
	"io"
	"time"
)

// UserRepository defines user data access operations. Email lookups are
// case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByName(ctx context.Context, name string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	// Delete removes the account permanently, freeing its unique fields.
	Delete(ctx context.Context, id uint) error
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	// Touch extends the session lifetime (sliding expiry on access).
	Touch(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) error
}

// CsrfTokenRepository holds short-lived anti-forgery tokens keyed by the
// binding identifier they were issued for.
type CsrfTokenRepository interface {
	// Issue generates a fresh token for the binding, replacing any prior
	// unexpired token for the same binding.
	Issue(ctx context.Context, bindingID string) (*CsrfToken, error)
	// Validate reports whether the token matches the one currently held
	// for the binding and is unexpired. Read-only: tokens stay valid for
	// repeated use within their TTL.
	Validate(ctx context.Context, bindingID, token string) (bool, error)
}

// LockoutTracker records consecutive failed login attempts per account
// key and enforces a temporary lockout once the threshold is reached.
// All operations are atomic per key under concurrent requests.
type LockoutTracker interface {
	// CheckLocked reports whether the key is locked and, if so, how long
	// until the lock expires. Side-effect free.
	CheckLocked(ctx context.Context, key string) (bool, time.Duration, error)
	// RecordFailure increments the consecutive-failure counter. When the
	// increment trips the threshold it arms the lock and reports it.
	RecordFailure(ctx context.Context, key string) (locked bool, retryAfter time.Duration, err error)
	// RecordSuccess clears the failure counter. It does not release an
	// armed lock; lockout is time-bound once tripped.
	RecordSuccess(ctx context.Context, key string) error
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines bearer access token operations
type TokenService interface {
	GenerateAccessToken(userID uint, role string, sessionID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
}

// AuthService is the authentication gate: it orchestrates CSRF
// validation, lockout enforcement, credential verification and session
// creation.
type AuthService interface {
	Register(ctx context.Context, input *RegistrationInput) (*User, error)
	Login(ctx context.Context, input *LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetUserProfile(ctx context.Context, userID uint) (*User, error)
}

// IdentityResolver turns client credential material into an Identity.
// Both paths land on the same session/user records.
type IdentityResolver interface {
	// ResolveBearer resolves an Authorization bearer token.
	ResolveBearer(ctx context.Context, token string) (*Identity, error)
	// ResolveSession resolves a session cookie value.
	ResolveSession(ctx context.Context, sessionID string) (*Identity, error)
}

// StepValidator applies registration field rules, either for a single
// wizard step (pure probe, persists nothing) or for the full form.
type StepValidator interface {
	ValidateStep(ctx context.Context, step int, data map[string]string) ValidationErrors
	ValidateRegistration(ctx context.Context, input *RegistrationInput) ValidationErrors
}

// FileRepository defines stored-file metadata access
type FileRepository interface {
	Create(ctx context.Context, file *StoredFile) error
	FindByCategoryName(ctx context.Context, category, filename string) (*StoredFile, error)
}

// BlobStore persists and serves file bytes under a category directory.
type BlobStore interface {
	Save(category, filename string, data []byte) error
	Open(category, filename string) (io.ReadCloser, int64, error)
}

// FileContent is the descriptor returned by the authorization gate when
// access is granted. The caller owns closing the reader.
type FileContent struct {
	MimeType string
	Size     int64
	Reader   io.ReadCloser
}

// FileAccessService is the authorization gate for protected files.
// Identity resolution gates everything: callers without a resolved
// identity are denied before existence is consulted.
type FileAccessService interface {
	Authorize(ctx context.Context, identity *Identity, category, filename string) (*FileContent, error)
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer is the subset of the Casbin enforcer the policy service
// depends on.
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
