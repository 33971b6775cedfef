package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/hash"
	authmw "github.com/Skotchmaster/stores_api/internal/middleware/auth"
	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/mykafka"
	"github.com/Skotchmaster/stores_api/internal/token"
)

type AuthHandler struct {
	DB         *gorm.DB
	Tokens     *token.Authority
	BcryptCost int
	Producer   *mykafka.Producer
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "username and password are required")
	}

	// Fast-path rejection; the unique index on username is the actual
	// guarantee under concurrent registrations.
	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return errorJSON(c, http.StatusConflict, "username_taken", "a user with that username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	passwordHash, err := hash.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "could not hash password")
	}

	user := models.User{Username: req.Username, PasswordHash: passwordHash}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorJSON(c, http.StatusConflict, "username_taken", "a user with that username already exists")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "user created successfully"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}

	// Same response for unknown user and wrong password, so usernames
	// cannot be enumerated.
	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return errorJSON(c, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	}

	pair, err := h.Tokens.IssuePair(user.ID)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "could not issue tokens")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, pair)
}

// Refresh exchanges the refresh token from the Authorization header for a
// new non-fresh access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, err := authmw.BearerToken(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "token_missing", err.Error())
	}

	access, err := h.Tokens.Refresh(c.Request().Context(), raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenRevoked) {
			return errorJSON(c, http.StatusUnauthorized, "token_revoked", "refresh token has been revoked")
		}
		return errorJSON(c, http.StatusUnauthorized, "invalid_token", "invalid refresh token")
	}

	return c.JSON(http.StatusOK, echo.Map{"access_token": access})
}

// Logout revokes the access token this request authenticated with. The
// denylist insert completes before the response is written.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, err := authmw.BearerToken(c)
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "token_missing", err.Error())
	}

	if err := h.Tokens.Revoke(c.Request().Context(), raw); err != nil {
		return errorJSON(c, http.StatusUnauthorized, "invalid_token", "invalid token")
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(authmw.UserID(c)), map[string]interface{}{
		"type":    "user_logged_out",
		"user_id": authmw.UserID(c),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "successfully logged out"})
}
