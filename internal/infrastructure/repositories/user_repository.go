package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/magdyelboushy-stack/platform/domain"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags).
// Emails are stored lowercased so the unique index enforces
// case-insensitive uniqueness.
type DBUser struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"uniqueIndex;size:100"`
	Email          string `gorm:"uniqueIndex;size:255"`
	Phone          string `gorm:"index;size:32"`
	ParentPhone    string `gorm:"size:32"`
	GuardianName   string `gorm:"size:100"`
	SchoolName     string `gorm:"size:200"`
	GradeLevel     string `gorm:"size:8"`
	EducationStage string `gorm:"size:16"`
	Governorate    string `gorm:"size:64"`
	City           string `gorm:"size:64"`
	BirthDate      string `gorm:"size:16"`
	Gender         string `gorm:"size:8"`
	PasswordHash   string `gorm:"column:password"`
	Role           string `gorm:"index;size:64"`
	Status         string `gorm:"index;size:16"`
	Avatar         string `gorm:"size:255"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository. A unique-index violation maps
// to ErrUserAlreadyExists so callers losing a registration race can tell
// it apart from infrastructure failures.
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	dbUser.Email = strings.ToLower(dbUser.Email)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	user.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// FindByEmail implements domain.UserRepository. Lookup is
// case-insensitive.
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByPhone implements domain.UserRepository
func (r *UserRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByName implements domain.UserRepository
func (r *UserRepositoryImpl) FindByName(ctx context.Context, name string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// Update implements domain.UserRepository. The created_at column is
// never rewritten, so the original timestamp survives updates made from
// partially hydrated domain values.
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	dbUser.Email = strings.ToLower(dbUser.Email)
	return r.db.WithContext(ctx).Omit("created_at").Save(dbUser).Error
}

// Delete implements domain.UserRepository. The row is removed outright
// rather than soft-deleted so its unique email and name become reusable.
func (r *UserRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&DBUser{}, id).Error
}

func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		Phone:          user.Phone,
		ParentPhone:    user.ParentPhone,
		GuardianName:   user.GuardianName,
		SchoolName:     user.SchoolName,
		GradeLevel:     user.GradeLevel,
		EducationStage: user.EducationStage,
		Governorate:    user.Governorate,
		City:           user.City,
		BirthDate:      user.BirthDate,
		Gender:         user.Gender,
		PasswordHash:   user.PasswordHash,
		Role:           user.Role,
		Status:         user.Status,
		Avatar:         user.Avatar,
		CreatedAt:      user.CreatedAt,
	}
}

func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:             dbUser.ID,
		Name:           dbUser.Name,
		Email:          dbUser.Email,
		Phone:          dbUser.Phone,
		ParentPhone:    dbUser.ParentPhone,
		GuardianName:   dbUser.GuardianName,
		SchoolName:     dbUser.SchoolName,
		GradeLevel:     dbUser.GradeLevel,
		EducationStage: dbUser.EducationStage,
		Governorate:    dbUser.Governorate,
		City:           dbUser.City,
		BirthDate:      dbUser.BirthDate,
		Gender:         dbUser.Gender,
		PasswordHash:   dbUser.PasswordHash,
		Role:           dbUser.Role,
		Status:         dbUser.Status,
		Avatar:         dbUser.Avatar,
		CreatedAt:      dbUser.CreatedAt,
		UpdatedAt:      dbUser.UpdatedAt,
	}
}
