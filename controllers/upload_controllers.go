package controllers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/brewcraft/restaurant-backend/storage"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

const maxUploadSize = 10 << 20

type UploadController struct {
	Store storage.ObjectStore
}

func NewUploadController(store storage.ObjectStore) *UploadController {
	return &UploadController{Store: store}
}

// UploadImage -> {file: base64, fileName} stored under menu/
func (uc *UploadController) UploadImage(c *gin.Context) {
	if uc.Store == nil {
		utils.RespondError(c, http.StatusServiceUnavailable, errors.New("image storage is not configured"))
		return
	}

	var body struct {
		File     string `json:"file" binding:"required"`
		FileName string `json:"fileName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing file or fileName"))
		return
	}

	data := body.File
	// tolerate data URLs from the browser
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("file is not valid base64"))
		return
	}
	if len(raw) == 0 || len(raw) > maxUploadSize {
		utils.RespondError(c, http.StatusBadRequest, errors.New("file must be between 1 byte and 10MB"))
		return
	}

	key, err := storage.ObjectKey("menu", body.FileName)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	url, err := uc.Store.Put(c.Request.Context(), key, raw, storage.ContentTypeFor(body.FileName))
	if err != nil {
		utils.ErrorLogger.Printf("upload %s: %v", key, err)
		utils.RespondError(c, http.StatusBadGateway, errors.New("upload failed"))
		return
	}

	utils.InfoLogger.Printf("Image uploaded: %s", key)
	utils.RespondJSON(c, http.StatusCreated, "Image uploaded successfully", gin.H{"url": url, "key": key})
}
