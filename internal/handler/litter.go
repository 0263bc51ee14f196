package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// LitterHandler serves the owner-facing litter CRUD, mirroring the
// animal endpoints.
type LitterHandler struct {
	Litters store.LitterStore
	Timeout time.Duration
}

// ----- DTOs -----

type litterResp struct {
	SequentialID int      `json:"sequentialId"`
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	Name         string   `json:"name"`
	Date         string   `json:"date"`
	Count        int      `json:"count"`
	ParentIDs    []string `json:"parentIds"`
}

type createLitterReq struct {
	Name      string   `json:"name"`
	Date      string   `json:"date"`
	Count     int      `json:"count"`
	ParentIDs []string `json:"parentIds"`
}

type updateLitterReq struct {
	Name      *string   `json:"name"`
	Date      *string   `json:"date"`
	Count     *int      `json:"count"`
	ParentIDs *[]string `json:"parentIds"`
}

func toLitterResp(l *model.Litter) litterResp {
	parents := l.ParentIDs
	if parents == nil {
		parents = []string{}
	}
	return litterResp{
		SequentialID: l.SequentialID,
		ID:           l.ID,
		UserID:       l.UserID,
		Name:         l.Name,
		Date:         l.Date,
		Count:        l.Count,
		ParentIDs:    parents,
	}
}

// List returns all litters belonging to the caller.
func (h *LitterHandler) List(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	litters, err := h.Litters.ListLitters(ctx, userID)
	if err != nil {
		return storeError(c, err)
	}
	out := make([]litterResp, 0, len(litters))
	for _, l := range litters {
		out = append(out, toLitterResp(l))
	}
	return c.JSON(http.StatusOK, out)
}

// Create inserts a new litter owned by the caller. Parent ids are
// stored as-is: they are advisory and never validated against the
// animals table.
func (h *LitterHandler) Create(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createLitterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if strings.TrimSpace(req.Date) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required"})
	}
	if req.Count < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must not be negative"})
	}

	l := &model.Litter{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Date:      req.Date,
		Count:     req.Count,
		ParentIDs: req.ParentIDs,
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Litters.CreateLitter(ctx, l); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": l.ID})
}

// Get returns one of the caller's litters.
func (h *LitterHandler) Get(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	l, err := h.Litters.GetLitter(ctx, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "litter not found"})
		}
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toLitterResp(l))
}

// Update applies a partial update to one of the caller's litters.
func (h *LitterHandler) Update(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateLitterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Count != nil && *req.Count < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must not be negative"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	n, err := h.Litters.UpdateLitter(ctx, userID, c.Param("id"), model.LitterUpdate{
		Name:      req.Name,
		Date:      req.Date,
		Count:     req.Count,
		ParentIDs: req.ParentIDs,
	})
	if err != nil {
		return storeError(c, err)
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "litter not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "litter updated"})
}

// Delete removes one of the caller's litters.
func (h *LitterHandler) Delete(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	n, err := h.Litters.DeleteLitter(ctx, userID, c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "litter not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
