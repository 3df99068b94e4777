package domain

import "time"

// Roles assignable to platform accounts. Self-registration always
// produces a student; staff roles are provisioned by an administrator.
const (
	RoleStudent   = "student"
	RoleTeacher   = "teacher"
	RoleAssistant = "assistant"
	RoleAdmin     = "admin"
)

// Account lifecycle states.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
)

// Protected file categories served through the authorization gate.
const (
	CategoryAvatars    = "avatars"
	CategoryDocuments  = "documents"
	CategoryThumbnails = "thumbnails"
)

// User represents a platform account
type User struct {
	ID             uint
	Name           string
	Email          string
	Phone          string
	ParentPhone    string
	GuardianName   string
	SchoolName     string
	GradeLevel     string
	EducationStage string
	Governorate    string
	City           string
	BirthDate      string
	Gender         string
	PasswordHash   string `gorm:"column:password"`
	Role           string
	Status         string
	Avatar         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    uint
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// CsrfToken is an anti-forgery token bound to a pre-session or session
// identifier. Reusable until expiry; each issuance replaces the previous
// token for the same binding.
type CsrfToken struct {
	Value     string
	BindingID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity is a resolved caller identity, produced from a session cookie
// or a bearer token. Handlers never reach for an ambient current user.
type Identity struct {
	UserID    uint
	Role      string
	SessionID string
}

// LoginInput carries everything the authentication gate needs for one
// login attempt.
type LoginInput struct {
	Email     string
	Password  string
	CsrfToken string
	BindingID string
}

// AuthResult represents a successful authentication outcome
type AuthResult struct {
	User        *User
	SessionID   string
	AccessToken string
	ExpiresIn   int64
	Redirect    string
}

// AvatarUpload is an uploaded profile photo accepted during registration.
type AvatarUpload struct {
	Filename string
	Data     []byte
}

// RegistrationInput carries the multi-step registration form fields
// together with the anti-forgery material of the submitting client.
type RegistrationInput struct {
	CsrfToken      string
	BindingID      string
	Name           string
	Email          string
	Password       string
	Phone          string
	ParentPhone    string
	GuardianName   string
	SchoolName     string
	GradeLevel     string
	EducationStage string
	Governorate    string
	City           string
	BirthDate      string
	Gender         string
	Avatar         *AvatarUpload
}

// StoredFile is the metadata record for a protected file.
type StoredFile struct {
	ID        uint
	Category  string
	Filename  string
	OwnerID   uint
	MimeType  string
	Size      int64
	CreatedAt time.Time
}

// TokenClaims represents bearer access token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
