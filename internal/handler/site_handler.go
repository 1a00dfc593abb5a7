package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"classsite/internal/model"
	"classsite/internal/service"
)

// SiteHandler serves site settings and the timetable.
type SiteHandler struct {
	svc service.SiteService
}

// NewSiteHandler creates a site handler.
func NewSiteHandler(svc service.SiteService) *SiteHandler {
	return &SiteHandler{svc: svc}
}

// ScheduleImageResponse is returned after an upload.
type ScheduleImageResponse struct {
	OK       bool   `json:"ok"`
	ImageURL string `json:"imageUrl"`
}

// GetSite godoc
// @Summary Site header information
// @Tags public
// @Produce json
// @Success 200 {object} model.SiteInfo
// @Router /site [get]
// @Router /admin/site [get]
func (h *SiteHandler) GetSite(c echo.Context) error {
	site, err := h.svc.GetSite(c.Request().Context())
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, site)
}

// GetSchedule godoc
// @Summary Class timetable
// @Tags public
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /schedule [get]
func (h *SiteHandler) GetSchedule(c echo.Context) error {
	schedule, err := h.svc.GetSchedule(c.Request().Context())
	if err != nil {
		return RespondError(c, err)
	}
	if schedule == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, schedule)
}

// UpdateSite godoc
// @Summary Update site header information
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param site body model.SiteInfo true "Site settings"
// @Success 200 {object} model.SiteInfo
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/site [put]
func (h *SiteHandler) UpdateSite(c echo.Context) error {
	var req model.SiteInfo
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	site, err := h.svc.UpdateSite(c.Request().Context(), req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, site)
}

// UploadScheduleImage godoc
// @Summary Upload the timetable image
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "png, jpg or svg image"
// @Success 200 {object} ScheduleImageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/schedule/image [post]
func (h *SiteHandler) UploadScheduleImage(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("missing file", "MISSING_FILE")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest("unreadable file", "INVALID_FILE")
	}
	defer f.Close()

	url, err := h.svc.UploadScheduleImage(c.Request().Context(), f, fh.Size, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, ScheduleImageResponse{OK: true, ImageURL: url})
}

// DeleteScheduleImage godoc
// @Summary Remove the timetable image
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} OKResponse
// @Router /admin/schedule/image [delete]
func (h *SiteHandler) DeleteScheduleImage(c echo.Context) error {
	if err := h.svc.DeleteScheduleImage(c.Request().Context()); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
