package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/models"
)

func TestCreateStore(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/store", map[string]string{"name": "grocery"})
	require.NoError(t, env.Store.CreateStore(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeBody(t, rec)
	require.Equal(t, "grocery", data["name"])
	require.NotEmpty(t, data["id"])
}

func TestCreateStoreDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	env.createStore("grocery")

	rec, c := env.doJSONRequest(http.MethodPost, "/store", map[string]string{"name": "grocery"})
	require.NoError(t, env.Store.CreateStore(c))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetStore(t *testing.T) {
	env := newTestEnv(t)
	store := env.createStore("grocery")
	env.createItem("milk", 2.5, store.ID)
	env.createTag("dairy", store.ID)

	rec, c := env.doJSONRequest(http.MethodGet, "/store/1", nil)
	setPathParams(c, []string{"id"}, []string{fmt.Sprint(store.ID)})
	require.NoError(t, env.Store.GetStore(c))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)
	require.Equal(t, "grocery", data["name"])
	require.Len(t, data["items"], 1)
	require.Len(t, data["tags"], 1)
}

func TestGetStoreNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodGet, "/store/42", nil)
	setPathParams(c, []string{"id"}, []string{"42"})
	require.NoError(t, env.Store.GetStore(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStores(t *testing.T) {
	env := newTestEnv(t)
	env.createStore("grocery")
	env.createStore("hardware")

	rec, c := env.doJSONRequest(http.MethodGet, "/store", nil)
	require.NoError(t, env.Store.GetStores(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stores []models.Store
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stores))
	require.Len(t, stores, 2)
}

func TestDeleteStore(t *testing.T) {
	env := newTestEnv(t)
	store := env.createStore("grocery")

	rec, c := env.doJSONRequest(http.MethodDelete, "/store/1", nil)
	setPathParams(c, []string{"id"}, []string{fmt.Sprint(store.ID)})
	require.NoError(t, env.Store.DeleteStore(c))
	require.Equal(t, http.StatusOK, rec.Code)

	err := env.DB.First(&models.Store{}, store.ID).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
