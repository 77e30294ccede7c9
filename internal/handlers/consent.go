package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"design-gallery-backend/internal/consent"
	"design-gallery-backend/internal/logging"
	"design-gallery-backend/internal/middleware"
	"design-gallery-backend/internal/models"
)

const maxConsentBodyBytes = 4 << 10

// ConsentRepository stores per-visitor preferences and the decision log.
// RecordConsent must write both or neither.
type ConsentRepository interface {
	VisitorStore(ctx context.Context, visitorID uuid.UUID) consent.Store
	RecordConsent(ctx context.Context, visitorID uuid.UUID, pref consent.Preference, source string) error
}

type ConsentHandler struct {
	repo   ConsentRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewConsentHandler accepts a nil repo; the endpoints then report the
// database as unavailable.
func NewConsentHandler(repo ConsentRepository, logger *zap.Logger) *ConsentHandler {
	return &ConsentHandler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetConsent godoc
// @Summary     Get the visitor's cookie consent
// @Tags        consent
// @Produce     json
// @Success     200 {object} models.ConsentResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /consent [get]
func (h *ConsentHandler) GetConsent(c *gin.Context) {
	visitorID, ok := h.visitor(c)
	if !ok {
		return
	}

	pref, err := consent.LoadPreference(h.repo.VisitorStore(c.Request.Context(), visitorID))
	if err != nil {
		logging.FromContext(c, h.logger).Error("failed to load consent", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load consent",
			Code:    models.CodeInternal,
			Message: err.Error(),
		})
		return
	}

	if pref == nil {
		c.JSON(http.StatusOK, models.ConsentResponse{Decided: false})
		return
	}
	c.JSON(http.StatusOK, models.ConsentResponse{
		Decided:   true,
		Analytics: pref.Analytics,
		Marketing: pref.Marketing,
	})
}

// PutConsent godoc
// @Summary     Record the visitor's cookie consent
// @Description Accepts {"analytics":bool,"marketing":bool} or the legacy "accepted"/"rejected" string
// @Tags        consent
// @Accept      json
// @Produce     json
// @Param       request body models.ConsentRequest true "Consent preference"
// @Success     200 {object} models.ConsentResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /consent [put]
func (h *ConsentHandler) PutConsent(c *gin.Context) {
	visitorID, ok := h.visitor(c)
	if !ok {
		return
	}
	logger := logging.FromContext(c, h.logger)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxConsentBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Code: models.CodeInvalidBody})
		return
	}

	pref, legacy, err := consent.ParsePreference(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid consent value",
			Code:    models.CodeInvalidBody,
			Message: err.Error(),
		})
		return
	}

	source := "api"
	if legacy {
		source = "api-legacy"
	}
	if err := h.repo.RecordConsent(c.Request.Context(), visitorID, pref, source); err != nil {
		logger.Error("failed to record consent", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save consent",
			Code:    models.CodeInternal,
			Message: err.Error(),
		})
		return
	}

	logger.Info("consent recorded",
		zap.String("visitor_id", visitorID.String()),
		zap.Bool("analytics", pref.Analytics),
		zap.Bool("marketing", pref.Marketing),
		zap.String("source", source))

	updatedAt := h.now().UTC()
	c.JSON(http.StatusOK, models.ConsentResponse{
		Decided:   true,
		Analytics: pref.Analytics,
		Marketing: pref.Marketing,
		UpdatedAt: &updatedAt,
	})
}

func (h *ConsentHandler) visitor(c *gin.Context) (uuid.UUID, bool) {
	if h.repo == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "database not available",
			Code:  models.CodeDatabaseNotAvailable,
		})
		return uuid.Nil, false
	}

	visitorID, ok := middleware.VisitorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "visitor not identified",
			Code:  models.CodeVisitorNotIdentified,
		})
		return uuid.Nil, false
	}
	return visitorID, true
}
