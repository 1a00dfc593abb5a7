package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"classsite/internal/repository"
	"classsite/internal/service"
)

// ContentHandler serves list and CRUD endpoints for one content type.
type ContentHandler[T repository.Content] struct {
	svc service.ContentService[T]
}

// NewContentHandler creates a content handler.
func NewContentHandler[T repository.Content](svc service.ContentService[T]) *ContentHandler[T] {
	return &ContentHandler[T]{svc: svc}
}

// List godoc
// @Summary List content items
// @Description Announcements, assignments, resources, gallery photos or rules, newest first where the kind is dated.
// @Tags public
// @Produce json
// @Success 200 {array} object
// @Failure 503 {object} errors.ErrorResponse
// @Router /announcements [get]
// @Router /assignments [get]
// @Router /resources [get]
// @Router /gallery [get]
// @Router /rules [get]
func (h *ContentHandler[T]) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Create a content item
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body object true "Content item"
// @Success 201 {object} object
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/announcements [post]
// @Router /admin/assignments [post]
// @Router /admin/resources [post]
// @Router /admin/gallery [post]
// @Router /admin/rules [post]
func (h *ContentHandler[T]) Create(c echo.Context) error {
	item := new(T)
	if err := bindAndValidate(c, item); err != nil {
		return err
	}

	created, err := h.svc.Create(c.Request().Context(), item)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Replace a content item
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param item body object true "Content item"
// @Success 200 {object} object
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/announcements/{id} [put]
// @Router /admin/assignments/{id} [put]
// @Router /admin/resources/{id} [put]
// @Router /admin/gallery/{id} [put]
// @Router /admin/rules/{id} [put]
func (h *ContentHandler[T]) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	item := new(T)
	if err := bindAndValidate(c, item); err != nil {
		return err
	}

	updated, err := h.svc.Update(c.Request().Context(), id, item)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Delete a content item
// @Description Deleting a gallery item also removes its uploaded photo.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 200 {object} OKResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/announcements/{id} [delete]
// @Router /admin/assignments/{id} [delete]
// @Router /admin/resources/{id} [delete]
// @Router /admin/gallery/{id} [delete]
// @Router /admin/rules/{id} [delete]
func (h *ContentHandler[T]) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
