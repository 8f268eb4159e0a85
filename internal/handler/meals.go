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

type MealsHandler struct{ svc service.MealService }

func NewMealsHandler(svc service.MealService) *MealsHandler { return &MealsHandler{svc: svc} }

// Create godoc
// @Summary Record a meal
// @Description One meal entry per member per date. Admins may record on a member's behalf via user_id. Triggers a ripple recalculation from the meal's week.
// @Tags meals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateMealRequest true "Meal details"
// @Success 201 {object} dto.MealResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/meals [post]
func (h *MealsHandler) Create(c *gin.Context) {
	var req dto.CreateMealRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Create(c.Request.Context(), actorID, claims.Role, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateMeal):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, apierror.New(err.Error()))
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List meals
// @Description Members see their own meals; admins may filter by user_id. Defaults to the current month when no range is given.
// @Tags meals
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Member UUID (admin only)"
// @Param from query string false "Start date YYYY-MM-DD"
// @Param to query string false "End date YYYY-MM-DD"
// @Success 200 {array} dto.MealResponse
// @Router /v1/meals [get]
func (h *MealsHandler) List(c *gin.Context) {
	var filter dto.MealFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	claims := middleware.GetClaims(c)
	if claims.Role != model.RoleAdmin {
		filter.UserID = claims.UserID
	} else if filter.UserID == "" {
		filter.UserID = claims.UserID
	}

	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary Remove a meal
// @Description Members may remove their own same-day meals; past dates require admin. Triggers a ripple recalculation.
// @Tags meals
// @Security BearerAuth
// @Param id path string true "Meal UUID"
// @Success 204
// @Failure 403 {object} apierror.APIError
// @Router /v1/meals/{id} [delete]
func (h *MealsHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.Delete(c.Request.Context(), actorID, claims.Role, id); err != nil {
		switch {
		case errors.Is(err, service.ErrPastMealDelete), errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusNotFound, apierror.New("Meal not found"))
		}
		return
	}
	c.Status(http.StatusNoContent)
}
