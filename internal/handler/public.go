// This file defines handlers for the public profile API. These
// routes let unauthenticated visitors browse a breeder's opted-in
// animals and profile. Responses are sanitized: fields whose
// visibility flag is off are blanked before they leave the server.
package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// PublicHandler aggregates the stores needed for unauthenticated
// browsing.
type PublicHandler struct {
	Users   store.UserStore
	Animals store.AnimalStore
	Timeout time.Duration
}

// maskAnimal clears the fields whose visibility flags are off.
// ShowOnProfile itself is enforced in the store query; this covers
// the per-field flags on records that are publicly listed.
func maskAnimal(a *model.Animal) animalResp {
	resp := toAnimalResp(a)
	if !a.ShowRegistryCode {
		resp.RegistryCode = nil
	}
	if !a.ShowOwner {
		resp.Owner = nil
	}
	if !a.ShowRemarks {
		resp.Remarks = nil
	}
	if !a.ShowParents {
		resp.FatherID = nil
		resp.MotherID = nil
	}
	return resp
}

// ListAnimals returns the owner's publicly visible animals. The
// owner id comes from the URL; no authentication is involved.
func (h *PublicHandler) ListAnimals(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	animals, err := h.Animals.ListPublicAnimals(ctx, c.Param("ownerId"))
	if err != nil {
		return storeError(c, err)
	}
	out := make([]animalListItem, 0, len(animals))
	for _, a := range animals {
		out = append(out, toAnimalListItem(a))
	}
	return c.JSON(http.StatusOK, out)
}

// GetAnimal returns one publicly visible animal with hidden fields
// blanked. A private or missing animal is a plain 404.
func (h *PublicHandler) GetAnimal(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	a, err := h.Animals.GetPublicAnimal(ctx, c.Param("ownerId"), c.Param("animalId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "animal not found"})
		}
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, maskAnimal(a))
}

// GetUser returns a user's public profile record.
func (h *PublicHandler) GetUser(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	u, err := h.Users.GetUserByID(ctx, c.Param("ownerId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// SearchUsers matches ?q= case-insensitively against personal and
// breeder names. A blank term is a 400.
func (h *PublicHandler) SearchUsers(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing search query parameter 'q'"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	users, err := h.Users.SearchUsers(ctx, term)
	if err != nil {
		return storeError(c, err)
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}
