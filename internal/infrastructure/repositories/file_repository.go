package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/magdyelboushy-stack/platform/domain"
)

// FileRepositoryImpl implements domain.FileRepository using GORM
type FileRepositoryImpl struct {
	db *gorm.DB
}

// DBStoredFile represents the database model for protected file metadata.
type DBStoredFile struct {
	ID        uint   `gorm:"primaryKey"`
	Category  string `gorm:"uniqueIndex:idx_category_filename;size:32"`
	Filename  string `gorm:"uniqueIndex:idx_category_filename;size:255"`
	OwnerID   uint   `gorm:"index"`
	MimeType  string `gorm:"size:128"`
	Size      int64
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (DBStoredFile) TableName() string {
	return "stored_files"
}

// NewFileRepository creates a new stored-file repository
func NewFileRepository(db *gorm.DB) domain.FileRepository {
	return &FileRepositoryImpl{db: db}
}

// Create implements domain.FileRepository
func (r *FileRepositoryImpl) Create(ctx context.Context, file *domain.StoredFile) error {
	dbFile := &DBStoredFile{
		Category: file.Category,
		Filename: file.Filename,
		OwnerID:  file.OwnerID,
		MimeType: file.MimeType,
		Size:     file.Size,
	}
	if err := r.db.WithContext(ctx).Create(dbFile).Error; err != nil {
		return err
	}
	file.ID = dbFile.ID
	return nil
}

// FindByCategoryName implements domain.FileRepository
func (r *FileRepositoryImpl) FindByCategoryName(ctx context.Context, category, filename string) (*domain.StoredFile, error) {
	var dbFile DBStoredFile
	err := r.db.WithContext(ctx).
		Where("category = ? AND filename = ?", category, filename).
		First(&dbFile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return &domain.StoredFile{
		ID:        dbFile.ID,
		Category:  dbFile.Category,
		Filename:  dbFile.Filename,
		OwnerID:   dbFile.OwnerID,
		MimeType:  dbFile.MimeType,
		Size:      dbFile.Size,
		CreatedAt: dbFile.CreatedAt,
	}, nil
}
