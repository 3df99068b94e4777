package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magdyelboushy-stack/platform/domain"
	"github.com/magdyelboushy-stack/platform/internal/http/middleware"
)

// FileHandlers serves protected files through the authorization gate
type FileHandlers struct {
	fileAccess domain.FileAccessService
}

// NewFileHandlers creates new file handlers
func NewFileHandlers(fileAccess domain.FileAccessService) *FileHandlers {
	return &FileHandlers{fileAccess: fileAccess}
}

// Serve handles GET /api/files/:category/:filename. Identity gates
// everything: the middleware rejects unresolved callers with 401 before
// this handler runs, so a missing file is only ever revealed to an
// authenticated identity.
func (h *FileHandlers) Serve(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	category := c.Param("category")
	filename := c.Param("filename")

	content, err := h.fileAccess.Authorize(c.Request.Context(), identity, category, filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		case errors.Is(err, domain.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
		case errors.Is(err, domain.ErrFileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serve file"})
		}
		return
	}
	defer content.Reader.Close()

	extraHeaders := map[string]string{
		"Cache-Control": "private, max-age=86400",
	}
	c.DataFromReader(http.StatusOK, content.Size, content.MimeType, content.Reader, extraHeaders)
}
