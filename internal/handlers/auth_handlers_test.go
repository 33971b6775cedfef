package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/token"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{"username": "test_user", "password": "password"}

	rec, c := env.doJSONRequest(http.MethodPost, "/register", payload)
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, env.DB.Where("username = ?", "test_user").First(&user).Error)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "password", user.PasswordHash)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{"username": "test_user", "password": "password"}

	rec, c := env.doJSONRequest(http.MethodPost, "/register", payload)
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = env.doJSONRequest(http.MethodPost, "/register", payload)
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	// Exactly one user stored.
	var count int64
	require.NoError(t, env.DB.Model(&models.User{}).Where("username = ?", "test_user").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/register", map[string]string{"username": "no_password"})
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user", "password")

	rec, c := env.doJSONRequest(http.MethodPost, "/login", map[string]string{
		"username": "test_user",
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)
	require.NotEmpty(t, data["access_token"])
	require.NotEmpty(t, data["refresh_token"])

	// The issued access token resolves back to the user.
	var user models.User
	require.NoError(t, env.DB.Where("username = ?", "test_user").First(&user).Error)
	userID, err := env.Tokens.Validate(context.Background(), data["access_token"].(string), true)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("test_user", "password")

	// Wrong password and unknown user produce the same response.
	for _, payload := range []map[string]string{
		{"username": "test_user", "password": "wrong"},
		{"username": "no_such_user", "password": "password"},
	} {
		rec, c := env.doJSONRequest(http.MethodPost, "/login", payload)
		require.NoError(t, env.Auth.Login(c))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_credentials", decodeBody(t, rec)["code"])
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("test_user", "password")

	pair, err := env.Tokens.IssuePair(user.ID)
	require.NoError(t, err)

	rec, c := env.doJSONRequest(http.MethodPost, "/refresh", nil)
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+pair.RefreshToken)
	require.NoError(t, env.Auth.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	access := decodeBody(t, rec)["access_token"].(string)
	require.NotEmpty(t, access)

	// Refreshed access tokens are not fresh.
	_, err = env.Tokens.Validate(context.Background(), access, true)
	require.ErrorIs(t, err, token.ErrTokenStale)
	_, err = env.Tokens.Validate(context.Background(), access, false)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("test_user", "password")

	pair, err := env.Tokens.IssuePair(user.ID)
	require.NoError(t, err)

	rec, c := env.doJSONRequest(http.MethodPost, "/refresh", nil)
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
	require.NoError(t, env.Auth.Refresh(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("test_user", "password")

	pair, err := env.Tokens.IssuePair(user.ID)
	require.NoError(t, err)

	_, err = env.Tokens.Validate(context.Background(), pair.AccessToken, false)
	require.NoError(t, err)

	rec, c := env.doJSONRequest(http.MethodPost, "/logout", nil)
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
	require.NoError(t, env.Auth.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The revocation is visible as soon as Logout returns.
	_, err = env.Tokens.Validate(context.Background(), pair.AccessToken, false)
	require.ErrorIs(t, err, token.ErrTokenRevoked)
}
