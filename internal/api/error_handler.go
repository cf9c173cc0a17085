package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quickloan/lending-system/internal/core/amortization"
	"github.com/quickloan/lending-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "<text>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrEMINotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"

	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"

	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"

	case errors.Is(err, domain.ErrLoanNotPending),
		errors.Is(err, domain.ErrLoanNotApproved),
		errors.Is(err, domain.ErrUserNotVerified),
		errors.Is(err, domain.ErrEMIAlreadyPaid),
		errors.Is(err, domain.ErrEMIsAlreadyGenerated),
		errors.Is(err, domain.ErrOperationInProgress),
		errors.Is(err, domain.ErrInvalidLoanTransition),
		errors.Is(err, domain.ErrInvalidEMITransition):
		return http.StatusConflict, err.Error()

	case errors.Is(err, domain.ErrInvalidLoanInput),
		errors.Is(err, domain.ErrRejectionReasonRequired),
		errors.Is(err, domain.ErrInvalidVerificationStatus),
		errors.Is(err, domain.ErrInvalidEMIStatus),
		errors.Is(err, domain.ErrDocumentsIncomplete),
		errors.Is(err, domain.ErrAlreadyAdmin),
		errors.Is(err, amortization.ErrInvalidTerms):
		return http.StatusBadRequest, err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
