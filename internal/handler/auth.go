package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/crittertrack/crittertrack-server/internal/auth"
	"github.com/crittertrack/crittertrack-server/internal/model"
	"github.com/crittertrack/crittertrack-server/internal/queue"
	"github.com/crittertrack/crittertrack-server/internal/service"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// minPasswordLen is the registration password policy.
const minPasswordLen = 12

// AuthHandler bundles dependencies for the account endpoints:
// register, login, current user and profile update.
type AuthHandler struct {
	Users      store.UserStore
	Tokens     *auth.TokenIssuer
	Events     *service.EventPublisher
	BcryptCost int
	Timeout    time.Duration
}

// ----- DTOs -----

type registerReq struct {
	Email            string  `json:"email"`
	Password         string  `json:"password"`
	PersonalName     *string `json:"personalName"`
	BreederName      *string `json:"breederName"`
	IsBreederProfile bool    `json:"isBreederProfile"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type updateProfileReq struct {
	PersonalName      *string `json:"personalName"`
	BreederName       *string `json:"breederName"`
	ProfilePictureURL *string `json:"profilePictureUrl"`
	IsBreederProfile  *bool   `json:"isBreederProfile"`
}

type userResp struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	PersonalName      *string `json:"personalName"`
	BreederName       *string `json:"breederName"`
	ProfilePictureURL *string `json:"profilePictureUrl"`
	IsBreederProfile  bool    `json:"isBreederProfile"`
	SequentialID      int     `json:"sequentialId"`
}

func toUserResp(u *model.User) userResp {
	return userResp{
		ID:                u.ID,
		Email:             u.Email,
		PersonalName:      u.PersonalName,
		BreederName:       u.BreederName,
		ProfilePictureURL: u.ProfilePictureURL,
		IsBreederProfile:  u.IsBreederProfile,
		SequentialID:      u.SequentialID,
	}
}

// Register creates an account and returns a token for immediate
// login. Email uniqueness is enforced atomically by the store;
// concurrent registrations with the same address end up with
// exactly one 201 and one 409.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 12 characters long"})
	}

	hash, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	u := &model.User{
		ID:               uuid.NewString(),
		Email:            req.Email,
		PasswordHash:     hash,
		PersonalName:     req.PersonalName,
		BreederName:      req.BreederName,
		IsBreederProfile: req.IsBreederProfile,
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return storeError(c, err)
	}

	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	// Best effort; a broker outage must not fail the registration.
	_ = h.Events.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
		UserID:           u.ID,
		Email:            u.Email,
		IsBreederProfile: u.IsBreederProfile,
		RegisteredAt:     time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, tokenResp{Token: token, UserID: u.ID})
}

// Login verifies credentials and returns a fresh token. Unknown
// email and wrong password produce the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	u, err := h.Users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return storeError(c, err)
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.Tokens.Issue(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, tokenResp{Token: token, UserID: u.ID})
}

// Me returns the authenticated user's own record.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	u, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// UpdateProfile applies a partial update to the caller's own
// profile and returns the refreshed record. Absent fields are left
// unchanged.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	n, err := h.Users.UpdateUserProfile(ctx, userID, model.UserUpdate{
		PersonalName:      req.PersonalName,
		BreederName:       req.BreederName,
		ProfilePictureURL: req.ProfilePictureURL,
		IsBreederProfile:  req.IsBreederProfile,
	})
	if err != nil {
		return storeError(c, err)
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	u, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}
