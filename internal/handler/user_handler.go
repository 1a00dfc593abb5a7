package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"classsite/internal/service"
)

// UserHandler bundles the admin user management handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ResetPasswordRequest carries a new password.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
	Password    string `json:"password"`
}

// ListUsers godoc
// @Summary List users
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser godoc
// @Summary Create user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body service.CreateUserInput true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req service.CreateUserInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.CreateUser(c.Request().Context(), req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary Update user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body service.UpdateUserInput true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req service.UpdateUserInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), id, req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} OKResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body ResetPasswordRequest true "New password"
// @Success 200 {object} OKResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	password := req.NewPassword
	if password == "" {
		password = req.Password
	}

	if err := h.svc.ResetPassword(c.Request().Context(), id, password); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

// Unlock godoc
// @Summary Clear a user's login lockout
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} OKResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/unlock [post]
func (h *UserHandler) Unlock(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Unlock(c.Request().Context(), id); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
