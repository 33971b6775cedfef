package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/mykafka"
)

type TagHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *TagHandler) GetStoreTags(c echo.Context) error {
	storeID, err := pathID(c, "store_id")
	if err != nil {
		return err
	}

	var store models.Store
	if err := h.DB.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "store not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	var tags []models.Tag
	if err := h.DB.Where("store_id = ?", storeID).Order("id ASC").Find(&tags).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	return c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) CreateStoreTag(c echo.Context) error {
	storeID, err := pathID(c, "store_id")
	if err != nil {
		return err
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "invalid request body")
	}
	if req.Name == "" {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "name is required")
	}

	var store models.Store
	if err := h.DB.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "store not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	tag := models.Tag{Name: req.Name, StoreID: storeID}
	if err := h.DB.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorJSON(c, http.StatusConflict, "tag_exists", "a tag with that name already exists in this store")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "tag_events", fmt.Sprint(tag.ID), map[string]interface{}{
		"type":     "tag_created",
		"tag_id":   tag.ID,
		"store_id": tag.StoreID,
		"name":     tag.Name,
	})

	return c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) GetTag(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var tag models.Tag
	if err := h.DB.Preload("Items").First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "tag not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteTag refuses to delete a tag that is still attached to items.
func (h *TagHandler) DeleteTag(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var tag models.Tag
	if err := h.DB.Preload("Items").First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "tag not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	if len(tag.Items) > 0 {
		return errorJSON(c, http.StatusBadRequest, "tag_in_use", "tag is still linked to items, unlink them first")
	}

	if err := h.DB.Delete(&tag).Error; err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "tag_events", fmt.Sprint(tag.ID), map[string]interface{}{
		"type":   "tag_deleted",
		"tag_id": tag.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "tag deleted"})
}

// LinkTag attaches a tag to an item. Both have to belong to the same store.
func (h *TagHandler) LinkTag(c echo.Context) error {
	item, tag, err := h.itemAndTag(c)
	if err != nil {
		return err
	}

	if item.StoreID != tag.StoreID {
		return errorJSON(c, http.StatusBadRequest, "store_mismatch", "item and tag belong to different stores")
	}

	if err := h.DB.Model(item).Association("Tags").Append(tag); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "tag_events", fmt.Sprint(tag.ID), map[string]interface{}{
		"type":    "tag_linked",
		"tag_id":  tag.ID,
		"item_id": item.ID,
	})

	return c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) UnlinkTag(c echo.Context) error {
	item, tag, err := h.itemAndTag(c)
	if err != nil {
		return err
	}

	if err := h.DB.Model(item).Association("Tags").Delete(tag); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "database error")
	}

	publish(c, h.Producer, "tag_events", fmt.Sprint(tag.ID), map[string]interface{}{
		"type":    "tag_unlinked",
		"tag_id":  tag.ID,
		"item_id": item.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "tag removed from item"})
}

func (h *TagHandler) itemAndTag(c echo.Context) (*models.Item, *models.Tag, error) {
	itemID, err := pathID(c, "item_id")
	if err != nil {
		return nil, nil, err
	}
	tagID, err := pathID(c, "tag_id")
	if err != nil {
		return nil, nil, err
	}

	var item models.Item
	if err := h.DB.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, httpError(http.StatusNotFound, "not_found", "item not found")
		}
		return nil, nil, httpError(http.StatusInternalServerError, "internal", "database error")
	}

	var tag models.Tag
	if err := h.DB.First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, httpError(http.StatusNotFound, "not_found", "tag not found")
		}
		return nil, nil, httpError(http.StatusInternalServerError, "internal", "database error")
	}

	return &item, &tag, nil
}
