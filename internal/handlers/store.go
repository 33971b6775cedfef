package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/mykafka"
)

type StoreHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *StoreHandler) GetStores(c echo.Context) error {
	var stores []models.Store
	if err := h.DB.Preload("Items").Preload("Tags").Order("id ASC").Find(&stores).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}
	return c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) GetStore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var store models.Store
	if err := h.DB.Preload("Items").Preload("Tags").First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "store not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	return c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) CreateStore(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}
	if req.Name == "" {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "name is required")
	}

	store := models.Store{Name: req.Name}
	if err := h.DB.Create(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorJSON(c, http.StatusConflict, "store_exists", "a store with that name already exists")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "store_events", fmt.Sprint(store.ID), map[string]interface{}{
		"type":     "store_created",
		"store_id": store.ID,
		"name":     store.Name,
	})

	return c.JSON(http.StatusCreated, store)
}

func (h *StoreHandler) DeleteStore(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var store models.Store
	if err := h.DB.First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "store not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	if err := h.DB.Select(clause.Associations).Delete(&store).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "store_events", fmt.Sprint(store.ID), map[string]interface{}{
		"type":     "store_deleted",
		"store_id": store.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "store deleted"})
}
