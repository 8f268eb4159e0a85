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

type PurchasesHandler struct{ svc service.PurchaseService }

func NewPurchasesHandler(svc service.PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{svc: svc}
}

// Create godoc
// @Summary Record a grocery purchase
// @Description The amount joins that day's shared pool and is divided across everyone's meals. Triggers a ripple recalculation.
// @Tags purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreatePurchaseRequest true "Purchase details"
// @Success 201 {object} dto.PurchaseResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/purchases [post]
func (h *PurchasesHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Create(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary Amend a purchase
// @Description Owner or admin. The ripple restarts from the earlier of the old and new dates so both affected weeks settle.
// @Tags purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purchase UUID"
// @Param body body dto.UpdatePurchaseRequest true "Fields to change"
// @Success 200 {object} dto.PurchaseResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/purchases/{id} [put]
func (h *PurchasesHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Update(c.Request.Context(), actorID, claims.Role, id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Remove a purchase
// @Tags purchases
// @Security BearerAuth
// @Param id path string true "Purchase UUID"
// @Success 204
// @Failure 403 {object} apierror.APIError
// @Router /v1/purchases/{id} [delete]
func (h *PurchasesHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.Delete(c.Request.Context(), actorID, claims.Role, id); err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, apierror.New(err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, apierror.New("Purchase not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary List purchases
// @Tags purchases
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Member UUID (admin only)"
// @Param from query string false "Start date YYYY-MM-DD"
// @Param to query string false "End date YYYY-MM-DD"
// @Success 200 {array} dto.PurchaseResponse
// @Router /v1/purchases [get]
func (h *PurchasesHandler) List(c *gin.Context) {
	var filter dto.PurchaseFilter
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
