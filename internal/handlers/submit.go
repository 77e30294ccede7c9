package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"design-gallery-backend/internal/config"
	"design-gallery-backend/internal/intake"
	"design-gallery-backend/internal/logging"
	"design-gallery-backend/internal/models"
	"design-gallery-backend/internal/services"
)

const MessageSubmissionReceived = "Submission received successfully"

// Submitter runs the intake workflow for a validated submission.
type Submitter interface {
	Submit(ctx context.Context, sub *models.Submission, logger *zap.Logger) (*services.SubmitResult, error)
}

type SubmissionsHandler struct {
	submitter    Submitter
	configured   bool
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewSubmissionsHandler(submitter Submitter, cfg *config.Config, logger *zap.Logger) *SubmissionsHandler {
	return &SubmissionsHandler{
		submitter:  submitter,
		configured: cfg.SanityConfigured() && submitter != nil,
		// base64 inflates the screenshot by 4/3; the rest of the form is small.
		maxBodyBytes: cfg.ScreenshotMaxBytes/3*4 + 1<<20,
		logger:       logger,
	}
}

// Submit godoc
// @Summary     Submit a design to the gallery
// @Description Accepts JSON or URL-encoded submissions, stores them as pending and notifies the team
// @Tags        submissions
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Success     200 {object} models.SubmitResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     405 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /submissions [post]
func (h *SubmissionsHandler) Submit(c *gin.Context) {
	logger := logging.FromContext(c, h.logger)

	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}

	if !h.configured {
		logger.Error("sanity credentials missing, rejecting submission",
			zap.String("code", string(models.CodeServerMisconfigured)))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Server configuration error",
			Code:  models.CodeServerMisconfigured,
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		message := "Could not read request body"
		if errors.As(err, &tooLarge) {
			message = "Request body too large"
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: message,
			Code:  models.CodeInvalidBody,
		})
		return
	}

	sub := intake.Parse(body, c.ContentType())
	if verr := intake.Validate(&sub); verr != nil {
		logger.Info("submission rejected",
			zap.String("code", string(verr.Code)),
			zap.Strings("fields", verr.Fields))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:  verr.Message,
			Code:   verr.Code,
			Fields: verr.Fields,
		})
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), &sub, logger)
	if err != nil {
		if errors.Is(err, services.ErrRecordCreate) {
			logger.Error("submission record not created",
				zap.String("code", string(models.CodeUpstreamCreateFailed)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Failed to process submission",
				Code:    models.CodeUpstreamCreateFailed,
				Details: services.UpstreamDetails(err),
			})
			return
		}
		logger.Error("submission failed", zap.String("code", string(models.CodeInternal)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to process submission",
			Code:  models.CodeInternal,
		})
		return
	}

	c.JSON(http.StatusOK, models.SubmitResponse{
		Success: true,
		Message: MessageSubmissionReceived,
		ID:      result.DocumentID,
		Warning: result.Warning,
	})
}
