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

// AnimalHandler serves the owner-facing animal CRUD. Every store
// call passes the authenticated user id; the scope filter lives in
// the store, not here.
type AnimalHandler struct {
	Animals store.AnimalStore
	Timeout time.Duration
}

// ----- DTOs -----

// animalListItem is the summary shape used by list endpoints.
type animalListItem struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	Name          *string `json:"name"`
	Species       string  `json:"species"`
	ShowOnProfile bool    `json:"showOnProfile"`
}

// animalResp is the full animal shape used by detail endpoints.
type animalResp struct {
	SequentialID     int     `json:"sequentialId"`
	ID               string  `json:"id"`
	UserID           string  `json:"userId"`
	Name             *string `json:"name"`
	Species          string  `json:"species"`
	Breeder          *string `json:"breeder"`
	BirthDate        *string `json:"birthDate"`
	Gender           *string `json:"gender"`
	ColorVariety     *string `json:"colorVariety"`
	CoatVariety      *string `json:"coatVariety"`
	RegistryCode     *string `json:"registryCode"`
	Owner            *string `json:"owner"`
	Remarks          *string `json:"remarks"`
	FatherID         *string `json:"fatherId"`
	MotherID         *string `json:"motherId"`
	ShowOnProfile    bool    `json:"showOnProfile"`
	ShowRegistryCode bool    `json:"showRegistryCode"`
	ShowOwner        bool    `json:"showOwner"`
	ShowRemarks      bool    `json:"showRemarks"`
	ShowParents      bool    `json:"showParents"`
	GeneticsCode     *string `json:"geneticsCode"`
}

type createAnimalReq struct {
	Name             *string `json:"name"`
	Species          string  `json:"species"`
	Breeder          *string `json:"breeder"`
	BirthDate        *string `json:"birthDate"`
	Gender           *string `json:"gender"`
	ColorVariety     *string `json:"colorVariety"`
	CoatVariety      *string `json:"coatVariety"`
	RegistryCode     *string `json:"registryCode"`
	Owner            *string `json:"owner"`
	Remarks          *string `json:"remarks"`
	FatherID         *string `json:"fatherId"`
	MotherID         *string `json:"motherId"`
	ShowOnProfile    bool    `json:"showOnProfile"`
	ShowRegistryCode bool    `json:"showRegistryCode"`
	ShowOwner        bool    `json:"showOwner"`
	ShowRemarks      bool    `json:"showRemarks"`
	ShowParents      bool    `json:"showParents"`
	GeneticsCode     *string `json:"geneticsCode"`
}

type updateAnimalReq struct {
	Name             *string `json:"name"`
	Species          *string `json:"species"`
	Breeder          *string `json:"breeder"`
	BirthDate        *string `json:"birthDate"`
	Gender           *string `json:"gender"`
	ColorVariety     *string `json:"colorVariety"`
	CoatVariety      *string `json:"coatVariety"`
	RegistryCode     *string `json:"registryCode"`
	Owner            *string `json:"owner"`
	Remarks          *string `json:"remarks"`
	FatherID         *string `json:"fatherId"`
	MotherID         *string `json:"motherId"`
	ShowOnProfile    *bool   `json:"showOnProfile"`
	ShowRegistryCode *bool   `json:"showRegistryCode"`
	ShowOwner        *bool   `json:"showOwner"`
	ShowRemarks      *bool   `json:"showRemarks"`
	ShowParents      *bool   `json:"showParents"`
	GeneticsCode     *string `json:"geneticsCode"`
}

func toAnimalListItem(a *model.Animal) animalListItem {
	return animalListItem{
		ID:            a.ID,
		UserID:        a.UserID,
		Name:          a.Name,
		Species:       a.Species,
		ShowOnProfile: a.ShowOnProfile,
	}
}

func toAnimalResp(a *model.Animal) animalResp {
	return animalResp{
		SequentialID:     a.SequentialID,
		ID:               a.ID,
		UserID:           a.UserID,
		Name:             a.Name,
		Species:          a.Species,
		Breeder:          a.Breeder,
		BirthDate:        a.BirthDate,
		Gender:           a.Gender,
		ColorVariety:     a.ColorVariety,
		CoatVariety:      a.CoatVariety,
		RegistryCode:     a.RegistryCode,
		Owner:            a.Owner,
		Remarks:          a.Remarks,
		FatherID:         a.FatherID,
		MotherID:         a.MotherID,
		ShowOnProfile:    a.ShowOnProfile,
		ShowRegistryCode: a.ShowRegistryCode,
		ShowOwner:        a.ShowOwner,
		ShowRemarks:      a.ShowRemarks,
		ShowParents:      a.ShowParents,
		GeneticsCode:     a.GeneticsCode,
	}
}

// List returns the caller's animals, optionally filtered by a
// case-insensitive species substring via ?species=.
func (h *AnimalHandler) List(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	species := strings.TrimSpace(c.QueryParam("species"))

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	animals, err := h.Animals.ListAnimals(ctx, userID, species)
	if err != nil {
		return storeError(c, err)
	}
	out := make([]animalListItem, 0, len(animals))
	for _, a := range animals {
		out = append(out, toAnimalListItem(a))
	}
	return c.JSON(http.StatusOK, out)
}

// Create inserts a new animal owned by the caller. Species is the
// only required field.
func (h *AnimalHandler) Create(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createAnimalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Species) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "species is required"})
	}

	a := &model.Animal{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             req.Name,
		Species:          req.Species,
		Breeder:          req.Breeder,
		BirthDate:        req.BirthDate,
		Gender:           req.Gender,
		ColorVariety:     req.ColorVariety,
		CoatVariety:      req.CoatVariety,
		RegistryCode:     req.RegistryCode,
		Owner:            req.Owner,
		Remarks:          req.Remarks,
		FatherID:         req.FatherID,
		MotherID:         req.MotherID,
		ShowOnProfile:    req.ShowOnProfile,
		ShowRegistryCode: req.ShowRegistryCode,
		ShowOwner:        req.ShowOwner,
		ShowRemarks:      req.ShowRemarks,
		ShowParents:      req.ShowParents,
		GeneticsCode:     req.GeneticsCode,
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Animals.CreateAnimal(ctx, a); err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": a.ID})
}

// Get returns one of the caller's animals. An animal owned by
// someone else is reported as not found, never as forbidden.
func (h *AnimalHandler) Get(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	a, err := h.Animals.GetAnimal(ctx, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "animal not found"})
		}
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toAnimalResp(a))
}

// Update applies a partial update to one of the caller's animals.
func (h *AnimalHandler) Update(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateAnimalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	n, err := h.Animals.UpdateAnimal(ctx, userID, c.Param("id"), model.AnimalUpdate{
		Name:             req.Name,
		Species:          req.Species,
		Breeder:          req.Breeder,
		BirthDate:        req.BirthDate,
		Gender:           req.Gender,
		ColorVariety:     req.ColorVariety,
		CoatVariety:      req.CoatVariety,
		RegistryCode:     req.RegistryCode,
		Owner:            req.Owner,
		Remarks:          req.Remarks,
		FatherID:         req.FatherID,
		MotherID:         req.MotherID,
		ShowOnProfile:    req.ShowOnProfile,
		ShowRegistryCode: req.ShowRegistryCode,
		ShowOwner:        req.ShowOwner,
		ShowRemarks:      req.ShowRemarks,
		ShowParents:      req.ShowParents,
		GeneticsCode:     req.GeneticsCode,
	})
	if err != nil {
		return storeError(c, err)
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "animal not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "animal updated"})
}

// Delete removes one of the caller's animals. Deleting it a second
// time reports not found.
func (h *AnimalHandler) Delete(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	n, err := h.Animals.DeleteAnimal(ctx, userID, c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "animal not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
