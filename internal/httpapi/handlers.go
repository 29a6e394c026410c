package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/gateway"
)

type handlers struct {
	ops      Operations
	validate *validator.Validate
}

type acquireRequest struct {
	AcquirerID int64 `uri:"acquirerId" validate:"gt=0"`
	AcquiredID int64 `uri:"acquiredId" validate:"gt=0"`
}

type fireRequest struct {
	ID int64 `uri:"id" validate:"gt=0"`
}

func (h *handlers) acquire(c *gin.Context) {
	var req acquireRequest
	if !h.bindURI(c, &req) {
		return
	}

	result, err := h.ops.Acquire(c.Request.Context(), req.AcquirerID, req.AcquiredID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.XML(http.StatusOK, result)
}

func (h *handlers) fireAll(c *gin.Context) {
	var req fireRequest
	if !h.bindURI(c, &req) {
		return
	}

	result, err := h.ops.FireAll(c.Request.Context(), req.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.XML(http.StatusOK, result)
}

func (h *handlers) bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		writeAppError(c, http.StatusBadRequest, "malformed path parameter: "+err.Error())
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		writeAppError(c, http.StatusBadRequest, "invalid path parameter: "+err.Error())
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validationErr *gateway.ValidationError
	if errors.As(err, &validationErr) {
		writeAppError(c, http.StatusBadRequest, validationErr.Message)
		return
	}

	var serviceErr *gateway.ServiceError
	if errors.As(err, &serviceErr) {
		zerolog.Ctx(c.Request.Context()).Error().
			Str("category", serviceErr.Category.String()).
			Str("saga_id", serviceErr.SagaID).
			Int("compensations_failed", len(serviceErr.Log.Failed())).
			Msg("saga failed")
	}
	writeAppError(c, http.StatusInternalServerError, err.Error())
}

func writeAppError(c *gin.Context, status int, message string) {
	c.XML(status, crud.AppError{Code: status, Message: message})
}
