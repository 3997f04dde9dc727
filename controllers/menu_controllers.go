package controllers

import (
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

// MenuController manages dishes inside a category.
type MenuController struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewMenuController(db *gorm.DB, c *cache.Cache) *MenuController {
	return &MenuController{DB: db, Cache: c}
}

type dishRequest struct {
	CategoryID  uint    `json:"categoryId" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Price       float64 `json:"price" binding:"gte=0"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Available   *bool   `json:"available"`
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var body dishRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !mc.categoryExists(c, body.CategoryID) {
		return
	}

	dish := models.Menu{
		CategoryID:  body.CategoryID,
		Name:        strings.TrimSpace(body.Name),
		Price:       body.Price,
		Description: body.Description,
		ImageURL:    body.ImageURL,
		Available:   body.Available == nil || *body.Available,
	}
	if dish.Name == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	if err := mc.DB.Create(&dish).Error; err != nil {
		respondWriteError(c, err)
		return
	}

	mc.Cache.InvalidateQuietly(c.Request.Context(), cache.KeyMenu)
	utils.InfoLogger.Printf("Dish created: %s (%s)", dish.Name, utils.FormatPrice(dish.Price))
	utils.RespondJSON(c, http.StatusCreated, "Menu created", dish)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	dish, ok := mc.find(c)
	if !ok {
		return
	}

	var body dishRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.CategoryID != dish.CategoryID && !mc.categoryExists(c, body.CategoryID) {
		return
	}

	dish.CategoryID = body.CategoryID
	dish.Name = strings.TrimSpace(body.Name)
	dish.Price = body.Price
	dish.Description = body.Description
	if body.ImageURL != "" {
		dish.ImageURL = body.ImageURL
	}
	if body.Available != nil {
		dish.Available = *body.Available
	}
	if err := mc.DB.Save(&dish).Error; err != nil {
		respondWriteError(c, err)
		return
	}

	mc.Cache.InvalidateQuietly(c.Request.Context(), cache.KeyMenu)
	utils.RespondJSON(c, http.StatusOK, "Menu updated", dish)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	dish, ok := mc.find(c)
	if !ok {
		return
	}
	if err := mc.DB.Delete(&dish).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	mc.Cache.InvalidateQuietly(c.Request.Context(), cache.KeyMenu)
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", nil)
}

func (mc *MenuController) find(c *gin.Context) (models.Menu, bool) {
	var dish models.Menu
	id, err := strconv.Atoi(c.Param("menu_id"))
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid menu id"))
		return dish, false
	}
	if err := mc.DB.First(&dish, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("menu not found"))
		} else {
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return dish, false
	}
	return dish, true
}

func (mc *MenuController) categoryExists(c *gin.Context, id uint) bool {
	var n int64
	if err := mc.DB.Model(&models.MenuCategory{}).Where("id = ?", id).Count(&n).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return false
	}
	if n == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("category does not exist"))
		return false
	}
	return true
}
