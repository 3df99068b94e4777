package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/infrastructure/storage"
)

var servableCategories = map[string]bool{
	domain.CategoryAvatars:    true,
	domain.CategoryDocuments:  true,
	domain.CategoryThumbnails: true,
}

// FileAccessServiceImpl implements domain.FileAccessService. Decision
// order: identity, then existence, then category policy. An unresolved
// identity is denied before existence is ever consulted.
type FileAccessServiceImpl struct {
	fileRepo  domain.FileRepository
	blobStore domain.BlobStore
	policySvc domain.PolicyService
}

// NewFileAccessService creates a new file authorization gate
func NewFileAccessService(fileRepo domain.FileRepository, blobStore domain.BlobStore, policySvc domain.PolicyService) domain.FileAccessService {
	return &FileAccessServiceImpl{
		fileRepo:  fileRepo,
		blobStore: blobStore,
		policySvc: policySvc,
	}
}

// Authorize implements domain.FileAccessService
func (s *FileAccessServiceImpl) Authorize(ctx context.Context, identity *domain.Identity, category, filename string) (*domain.FileContent, error) {
	if identity == nil {
		return nil, domain.ErrUnauthorized
	}

	// Unknown categories are reported as missing, not as a distinct
	// client error, so the URL space leaks nothing.
	if !servableCategories[category] {
		return nil, domain.ErrFileNotFound
	}

	clean := filepath.Base(filename)

	meta, err := s.fileRepo.FindByCategoryName(ctx, category, clean)
	if err != nil {
		if err == domain.ErrFileNotFound {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("file lookup failed: %w", err)
	}

	allowed, err := s.permitted(identity, meta)
	if err != nil {
		return nil, fmt.Errorf("policy check failed: %w", err)
	}
	if !allowed {
		log.Printf("FILE_DENIED: user_id=%d role=%s file=%s/%s", identity.UserID, identity.Role, category, clean)
		return nil, domain.ErrForbidden
	}

	reader, size, err := s.blobStore.Open(category, clean)
	if err != nil {
		if err == domain.ErrFileNotFound {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = storage.MimeType(clean)
	}

	return &domain.FileContent{
		MimeType: mimeType,
		Size:     size,
		Reader:   reader,
	}, nil
}

// permitted decides the category policy: the owner always reads their
// own files, thumbnails are open to any authenticated identity, and
// otherwise Casbin decides a role-based override.
func (s *FileAccessServiceImpl) permitted(identity *domain.Identity, meta *domain.StoredFile) (bool, error) {
	if meta.OwnerID == identity.UserID {
		return true, nil
	}
	if meta.Category == domain.CategoryThumbnails {
		return true, nil
	}
	return s.policySvc.CheckPermission("role_"+identity.Role, "files/"+meta.Category, "read")
}
