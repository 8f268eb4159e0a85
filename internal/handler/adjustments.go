package handler

import (
	"errors"
	"net/http"

	"messbill/internal/apierror"
	"messbill/internal/dto"
	"messbill/internal/middleware"
	"messbill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdjustmentsHandler covers the due-adjustment overlay. Admin-only.
type AdjustmentsHandler struct{ svc service.AdjustmentService }

func NewAdjustmentsHandler(svc service.AdjustmentService) *AdjustmentsHandler {
	return &AdjustmentsHandler{svc: svc}
}

// Apply godoc
// @Summary Apply a due adjustment to a member's week
// @Description credit reduces the adjusted balance's due, debit increases it, clear_due zeroes a due week. Week-local: never feeds the carry-forward chain. The target balance is computed on the fly if missing.
// @Tags adjustments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ApplyAdjustmentRequest true "Adjustment details"
// @Success 201 {object} dto.AdjustmentResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/adjustments [post]
func (h *AdjustmentsHandler) Apply(c *gin.Context) {
	var req dto.ApplyAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	addedBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Apply(c.Request.Context(), addedBy, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAdjustmentAmount):
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Reverse godoc
// @Summary Reverse a due adjustment
// @Description Replays the inverse delta onto the week's balance and deletes the adjustment record.
// @Tags adjustments
// @Security BearerAuth
// @Param id path string true "Adjustment UUID"
// @Success 200 {object} dto.AdjustmentResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/adjustments/{id} [delete]
func (h *AdjustmentsHandler) Reverse(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Reverse(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, apierror.New("Adjustment not found"))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary List due adjustments
// @Tags adjustments
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Member UUID"
// @Param year query int false "Year"
// @Param month query int false "Month 1-12"
// @Param week query int false "Week 1-5"
// @Success 200 {array} dto.AdjustmentResponse
// @Router /v1/adjustments [get]
func (h *AdjustmentsHandler) List(c *gin.Context) {
	var filter dto.AdjustmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
