package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"messbill/internal/apierror"
	"messbill/internal/dto"
	"messbill/internal/infra"
	"messbill/internal/mealweek"
	"messbill/internal/middleware"
	"messbill/internal/repository"
	"messbill/internal/service"
	"messbill/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// BalancesHandler serves balance reads, the recalculation triggers and the
// monthly statement PDF.
type BalancesHandler struct {
	svc        service.BalanceService
	users      repository.UserRepository
	dispatcher *worker.Dispatcher
	messName   string
	pdfPath    string
}

func NewBalancesHandler(
	svc service.BalanceService,
	users repository.UserRepository,
	dispatcher *worker.Dispatcher,
	messName, pdfPath string,
) *BalancesHandler {
	return &BalancesHandler{
		svc:        svc,
		users:      users,
		dispatcher: dispatcher,
		messName:   messName,
		pdfPath:    pdfPath,
	}
}

// Weekly godoc
// @Summary Get a member's weekly balance
// @Tags balances
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Member UUID"
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Param week path int true "Week 1-5"
// @Success 200 {object} dto.WeeklyBalanceResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/balances/user/{userID}/weekly/{year}/{month}/{week} [get]
func (h *BalancesHandler) Weekly(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if !canAccessUser(c, userID) {
		return
	}
	year, month, ok := pathYearMonth(c)
	if !ok {
		return
	}
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid week"))
		return
	}

	resp, err := h.svc.GetWeeklyBalance(c.Request.Context(), userID, year, month, week)
	if err != nil {
		switch {
		case errors.Is(err, mealweek.ErrInvalidWeek):
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, apierror.New("No balance computed for that week"))
		default:
			c.JSON(http.StatusInternalServerError, apierror.New("Failed to load balance"))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Monthly godoc
// @Summary Get a member's monthly breakdown (one entry per computed week)
// @Tags balances
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Member UUID"
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Success 200 {array} dto.WeeklyBalanceResponse
// @Router /v1/balances/user/{userID}/monthly/{year}/{month} [get]
func (h *BalancesHandler) Monthly(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if !canAccessUser(c, userID) {
		return
	}
	year, month, ok := pathYearMonth(c)
	if !ok {
		return
	}

	resp, err := h.svc.GetMonthlyBreakdown(c.Request.Context(), userID, year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to load breakdown"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentAdvance godoc
// @Summary Get a member's current advance balance
// @Description Derived from the latest computed week's carry-forward; zero for a member with no history.
// @Tags balances
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Member UUID"
// @Success 200 {object} dto.CurrentAdvanceResponse
// @Router /v1/balances/user/{userID}/current-advance [get]
func (h *BalancesHandler) CurrentAdvance(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if !canAccessUser(c, userID) {
		return
	}

	advance, err := h.svc.GetCurrentAdvance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to load advance"))
		return
	}
	c.JSON(http.StatusOK, dto.CurrentAdvanceResponse{
		UserID:         userID.String(),
		AdvanceBalance: advance,
	})
}

// Recalculate godoc
// @Summary Rebuild every member's balances from the earliest record (synchronous)
// @Tags balances
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.RecalculationSummary
// @Router /v1/balances/recalculate [post]
func (h *BalancesHandler) Recalculate(c *gin.Context) {
	summary, err := h.svc.RecalculateAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Rebuild failed: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecalculateAsync godoc
// @Summary Queue a full rebuild on the worker pool
// @Tags balances
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]bool
// @Router /v1/balances/recalculate-async [post]
func (h *BalancesHandler) RecalculateAsync(c *gin.Context) {
	claims := middleware.GetClaims(c)
	payload := worker.RebuildJobPayload{RequestedBy: claims.Username}
	if err := h.dispatcher.EnqueueRebuild(c.Request.Context(), payload); err != nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("Failed to queue rebuild"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

// Statement godoc
// @Summary Download a member's monthly statement as PDF
// @Description Renders the monthly breakdown into a PDF. With email=true it is also mailed to the member (requires an email on file).
// @Tags balances
// @Produce application/pdf
// @Security BearerAuth
// @Param userID path string true "Member UUID"
// @Param year path int true "Year"
// @Param month path int true "Month 1-12"
// @Param email query bool false "Also email the statement to the member"
// @Success 200 {file} binary
// @Failure 404 {object} apierror.APIError
// @Router /v1/balances/user/{userID}/statement/{year}/{month} [get]
func (h *BalancesHandler) Statement(c *gin.Context) {
	userID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if !canAccessUser(c, userID) {
		return
	}
	year, month, ok := pathYearMonth(c)
	if !ok {
		return
	}

	weeks, err := h.svc.GetMonthlyBreakdown(c.Request.Context(), userID, year, month)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to load breakdown"))
		return
	}
	if len(weeks) == 0 {
		c.JSON(http.StatusNotFound, apierror.New("No balances computed for that month"))
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Member not found"))
		return
	}

	path, err := infra.GenerateStatementPDF(h.messName, user.Name, year, month, weeks, h.pdfPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to generate statement"))
		return
	}

	if c.Query("email") == "true" {
		if user.Email == nil {
			c.JSON(http.StatusBadRequest, apierror.New("Member has no email on file"))
			return
		}
		job := worker.EmailJobPayload{
			ToEmail:        *user.Email,
			Subject:        fmt.Sprintf("%s — statement %d-%02d", h.messName, year, month),
			Body:           fmt.Sprintf("Hi %s,\n\nYour meal statement for %d-%02d is attached.\n", user.Name, year, month),
			AttachmentPath: path,
		}
		if err := h.dispatcher.EnqueueEmail(c.Request.Context(), job); err != nil {
			log.Warn().Err(err).Msg("statement: failed to queue email")
		}
	}

	c.FileAttachment(path, fmt.Sprintf("statement_%d_%02d.pdf", year, month))
}

func pathYearMonth(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2200 {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid year"))
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid month"))
		return 0, 0, false
	}
	return year, month, true
}
