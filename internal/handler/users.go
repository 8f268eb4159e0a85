package handler

import (
	"errors"
	"net/http"

	"messbill/internal/apierror"
	"messbill/internal/dto"
	"messbill/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UsersHandler covers member administration. All routes are admin-only;
// the role gate lives in the router.
type UsersHandler struct{ svc service.AuthService }

func NewUsersHandler(svc service.AuthService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// Create godoc
// @Summary Register a new member
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateUserRequest true "Member details"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/users [post]
func (h *UsersHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List members
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include deactivated members"
// @Success 200 {array} dto.UserResponse
// @Router /v1/users [get]
func (h *UsersHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	resp, err := h.svc.ListUsers(c.Request.Context(), includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list members"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Update a member
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member UUID"
// @Param body body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/users/{id} [put]
func (h *UsersHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Member not found"))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary Deactivate a member (soft delete — their history stays in every pool)
// @Tags users
// @Security BearerAuth
// @Param id path string true "Member UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/users/{id} [delete]
func (h *UsersHandler) Deactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Member not found"))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// Reactivate godoc
// @Summary Reactivate a previously deactivated member
// @Tags users
// @Security BearerAuth
// @Param id path string true "Member UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/users/{id}/reactivate [post]
func (h *UsersHandler) Reactivate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.ReactivateUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Member not found"))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
