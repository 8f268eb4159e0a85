package handler

import (
	"errors"
	"net/http"

	"messbill/internal/apierror"
	"messbill/internal/dto"
	"messbill/internal/middleware"
	"messbill/internal/model"
	"messbill/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentsHandler covers advance payments. Creation and deletion are
// admin-only (role gate in the router); members can list their own.
type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Create godoc
// @Summary Record an advance payment
// @Description Signed amount: positive credits the member, negative deducts. The payment commits even if the follow-up recalculation fails — the response's recalculated flag reports it.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/payments [post]
func (h *PaymentsHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	addedBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Create(c.Request.Context(), addedBy, req)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Delete godoc
// @Summary Remove an advance payment
// @Description Deletion triggers a ripple recalculation from the payment's week.
// @Tags payments
// @Security BearerAuth
// @Param id path string true "Payment UUID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/payments/{id} [delete]
func (h *PaymentsHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Payment not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary List advance payments
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Member UUID (admin only)"
// @Param from query string false "Start date YYYY-MM-DD"
// @Param to query string false "End date YYYY-MM-DD"
// @Success 200 {array} dto.PaymentResponse
// @Router /v1/payments [get]
func (h *PaymentsHandler) List(c *gin.Context) {
	var filter dto.PaymentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	claims := middleware.GetClaims(c)
	if claims.Role != model.RoleAdmin {
		filter.UserID = claims.UserID
	}

	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
