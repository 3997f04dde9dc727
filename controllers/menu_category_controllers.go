package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/brewcraft/restaurant-backend/cache"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MenuCategoryController struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewMenuCategoryController(db *gorm.DB, c *cache.Cache) *MenuCategoryController {
	return &MenuCategoryController{DB: db, Cache: c}
}

// GetMenu -> all categories with their dishes, served through the cache
func (mcc *MenuCategoryController) GetMenu(c *gin.Context) {
	categories, err := cache.Remember(c.Request.Context(), mcc.Cache, cache.KeyMenu, mcc.loadMenu)
	if err != nil {
		utils.ErrorLogger.Printf("load menu: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("could not load menu"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu retrieved successfully", categories)
}

func (mcc *MenuCategoryController) loadMenu(ctx context.Context) ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	err := mcc.DB.WithContext(ctx).
		Preload("Dishes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id ASC").
		Find(&categories).Error
	return categories, err
}

type categoryRequest struct {
	Title string `json:"title" binding:"required"`
}

func (mcc *MenuCategoryController) CreateCategory(c *gin.Context) {
	var body categoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("title is required"))
		return
	}

	category := models.MenuCategory{Title: title, Dishes: []models.Menu{}}
	if err := mcc.DB.Create(&category).Error; err != nil {
		respondWriteError(c, err)
		return
	}

	mcc.Cache.InvalidateQuietly(c.Request.Context(), cache.KeyMenu)
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

func (mcc *MenuCategoryController) UpdateCategory(c *gin.Context) {
	category, ok := mcc.find(c)
	if !ok {
		return
	}

	var body categoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	category.Title = strings.TrimSpace(body.Title)
	if category.Title == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("title is required"))
		return
	}

	if err := mcc.DB.Model(&category).Update("title", category.Title).Error; err != nil {
		respondWriteError(c, err)
		return
	}

	mcc.Cache.InvalidateQuietly(c.Request.Context(), cache.KeyMenu)
	utils.RespondJSON(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory removes the category and its dishes.
func (mcc *MenuCategoryController) DeleteCategory(c *gin.Context) {
	category, ok := mcc.find(c)
	if !ok {
		return
	}

	err := mcc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.Menu{}).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	mcc.Cache.InvalidateQuietly(c.Request.Context(), cache.KeyMenu)
	utils.RespondJSON(c, http.StatusOK, "Category deleted", nil)
}

func (mcc *MenuCategoryController) find(c *gin.Context) (models.MenuCategory, bool) {
	var category models.MenuCategory
	id, err := strconv.Atoi(c.Param("cat_id"))
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid category id"))
		return category, false
	}
	if err := mcc.DB.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("category not found"))
		} else {
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return category, false
	}
	return category, true
}

// respondWriteError reports unique constraint hits as conflicts.
func respondWriteError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") ||
		strings.Contains(strings.ToLower(err.Error()), "duplicate") {
		utils.RespondError(c, http.StatusConflict, errors.New("a record with the same name already exists"))
		return
	}
	utils.ErrorLogger.Printf("write failed: %v", err)
	utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
}
