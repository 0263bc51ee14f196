package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxUploadBytes caps a single uploaded file at 10 MiB.
const maxUploadBytes = 10 << 20

// UploadHandler stores user-uploaded images (profile and animal
// pictures) on local disk under random names and hands back the
// public URL they are served from.
type UploadHandler struct {
	Dir string // destination directory, created at startup
}

// Upload accepts a multipart form with a "file" part. The stored
// name is a fresh UUID plus the original extension, so uploads can
// never collide or traverse outside the upload directory.
func (h *UploadHandler) Upload(c echo.Context) error {
	if _, ok := currentUserID(c); !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing file"})
	}
	if fh.Size > maxUploadBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file too large"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer src.Close()

	// Only the extension of the client-supplied name survives.
	name := uuid.NewString() + filepath.Ext(filepath.Base(fh.Filename))
	dst, err := os.Create(filepath.Join(h.Dir, name))
	if err != nil {
		c.Logger().Errorf("upload: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxUploadBytes)); err != nil {
		c.Logger().Errorf("upload: write failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": "/uploads/" + name})
}
