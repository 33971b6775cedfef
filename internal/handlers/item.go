package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/mykafka"
	"github.com/Skotchmaster/stores_api/internal/util"
)

type ItemHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *ItemHandler) GetItems(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Item{}).Count(&total).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	var items []models.Item
	if err := h.DB.Preload("Tags").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": items,
		"meta": map[string]interface{}{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var item models.Item
	if err := h.DB.Preload("Tags").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "item not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(c echo.Context) error {
	var req struct {
		Name    string  `json:"name"`
		Price   float64 `json:"price"`
		StoreID uint    `json:"store_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}
	if req.Name == "" || req.StoreID == 0 {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "name and store_id are required")
	}

	var store models.Store
	if err := h.DB.First(&store, req.StoreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "store not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	item := models.Item{Name: req.Name, Price: req.Price, StoreID: req.StoreID}
	if err := h.DB.Create(&item).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "item_events", fmt.Sprint(item.ID), map[string]interface{}{
		"type":     "item_created",
		"item_id":  item.ID,
		"store_id": item.StoreID,
		"name":     item.Name,
	})

	return c.JSON(http.StatusCreated, item)
}

// PutItem updates name and price of an existing item, or creates the item
// under the requested id when it does not exist yet. Creation needs a
// store_id in the body.
func (h *ItemHandler) PutItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Name    string  `json:"name"`
		Price   float64 `json:"price"`
		StoreID uint    `json:"store_id"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
		}
		return h.putCreate(c, id, req.Name, req.Price, req.StoreID)
	}

	item.Name = req.Name
	item.Price = req.Price
	if err := h.DB.Save(&item).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "item_events", fmt.Sprint(item.ID), map[string]interface{}{
		"type":    "item_updated",
		"item_id": item.ID,
		"name":    item.Name,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) putCreate(c echo.Context, id uint, name string, price float64, storeID uint) error {
	if name == "" || storeID == 0 {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "name and store_id are required to create an item")
	}

	var store models.Store
	if err := h.DB.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "store not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	item := models.Item{ID: id, Name: name, Price: price, StoreID: storeID}
	if err := h.DB.Create(&item).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "item_events", fmt.Sprint(item.ID), map[string]interface{}{
		"type":     "item_created",
		"item_id":  item.ID,
		"store_id": item.StoreID,
		"name":     item.Name,
	})

	return c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) DeleteItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "item not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	if err := h.DB.Select("Tags").Delete(&item).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "item_events", fmt.Sprint(item.ID), map[string]interface{}{
		"type":    "item_deleted",
		"item_id": item.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "item deleted"})
}
