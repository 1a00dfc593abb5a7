package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"classsite/internal/model"
	"classsite/internal/service"
)

// GalleryHandler serves the gallery CRUD endpoints plus photo uploads.
type GalleryHandler struct {
	*ContentHandler[model.GalleryItem]
	svc service.GalleryService
}

// NewGalleryHandler creates a gallery handler.
func NewGalleryHandler(svc service.GalleryService) *GalleryHandler {
	return &GalleryHandler{
		ContentHandler: NewContentHandler[model.GalleryItem](svc),
		svc:            svc,
	}
}

// Upload godoc
// @Summary Upload a gallery photo
// @Description Stores the photo and creates a gallery item. The title defaults to the file name.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "png, jpg, gif, webp or svg image"
// @Param title formData string false "Item title"
// @Success 201 {object} model.GalleryItem
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /admin/gallery/upload [post]
func (h *GalleryHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("missing file", "MISSING_FILE")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest("unreadable file", "INVALID_FILE")
	}
	defer f.Close()

	item, err := h.svc.Upload(c.Request().Context(), f, fh.Size, fh.Header.Get(echo.HeaderContentType), fh.Filename, c.FormValue("title"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}
