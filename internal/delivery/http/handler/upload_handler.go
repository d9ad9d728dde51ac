package handler

import (
	"errors"
	"io"
	"net/http"

	"raisevoice/internal/imagestore"
	"raisevoice/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	store *imagestore.S3Store
}

func NewUploadHandler(store *imagestore.S3Store) *UploadHandler {
	return &UploadHandler{store: store}
}

func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/uploads", h.UploadImage)
}

// UploadImage accepts a single multipart photo and returns its hosted URL.
// Clients attach the URL to an issue afterwards; the object key stays internal.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Missing image file")
		return
	}

	if fileHeader.Size > imagestore.MaxImageSize {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Image exceeds the 5 MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Could not read image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, imagestore.MaxImageSize+1))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Could not read image file")
		return
	}
	if int64(len(data)) > imagestore.MaxImageSize {
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Image exceeds the 5 MB limit")
		return
	}

	contentType := http.DetectContentType(data)

	url, _, err := h.store.Upload(c.Request.Context(), data, contentType)
	if err != nil {
		if errors.Is(err, imagestore.ErrUnsupportedType) {
			utils.ErrorResponse(c, http.StatusUnsupportedMediaType, "Only JPEG, PNG and WebP images are accepted")
			return
		}
		if errors.Is(err, imagestore.ErrImageTooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Image exceeds the 5 MB limit")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to store image")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Image uploaded", gin.H{"url": url})
}
