package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/hash"
	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/token"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.Authority
	Auth   *AuthHandler
	User   *UserHandler
	Store  *StoreHandler
	Item   *ItemHandler
	Tag    *TagHandler
}

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Store{}, &models.Item{}, &models.Tag{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)
	authority := token.NewAuthority([]byte("test-access"), []byte("test-refresh"), token.NewMemoryDenylist())

	return &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Tokens: authority,
		Auth:   &AuthHandler{DB: db, Tokens: authority},
		User:   &UserHandler{DB: db},
		Store:  &StoreHandler{DB: db},
		Item:   &ItemHandler{DB: db},
		Tag:    &TagHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) createUser(username, password string) models.User {
	passwordHash, err := hash.HashPassword(password, 4)
	require.NoError(env.T, err)

	user := models.User{Username: username, PasswordHash: passwordHash}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) createStore(name string) models.Store {
	store := models.Store{Name: name}
	require.NoError(env.T, env.DB.Create(&store).Error)
	return store
}

func (env *testEnv) createItem(name string, price float64, storeID uint) models.Item {
	item := models.Item{Name: name, Price: price, StoreID: storeID}
	require.NoError(env.T, env.DB.Create(&item).Error)
	return item
}

func (env *testEnv) createTag(name string, storeID uint) models.Tag {
	tag := models.Tag{Name: name, StoreID: storeID}
	require.NoError(env.T, env.DB.Create(&tag).Error)
	return tag
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	return data
}

func setPathParams(c echo.Context, names []string, values []string) {
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}
