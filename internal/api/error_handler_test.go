package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quickloan/lending-system/internal/core/amortization"
	"github.com/quickloan/lending-system/internal/core/domain"
)

func TestHTTPErrorHandler_DomainMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"loan not found", domain.ErrLoanNotFound, http.StatusNotFound},
		{"emi not found", domain.ErrEMINotFound, http.StatusNotFound},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"duplicate user", domain.ErrUserExists, http.StatusConflict},
		{"not pending", domain.ErrLoanNotPending, http.StatusConflict},
		{"not approved", domain.ErrLoanNotApproved, http.StatusConflict},
		{"already paid", domain.ErrEMIAlreadyPaid, http.StatusConflict},
		{"already generated", domain.ErrEMIsAlreadyGenerated, http.StatusConflict},
		{"operation in progress", domain.ErrOperationInProgress, http.StatusConflict},
		{"owner unverified", domain.ErrUserNotVerified, http.StatusConflict},
		{"missing reason", domain.ErrRejectionReasonRequired, http.StatusBadRequest},
		{"bad loan input", domain.ErrInvalidLoanInput, http.StatusBadRequest},
		{"bad verification status", domain.ErrInvalidVerificationStatus, http.StatusBadRequest},
		{"incomplete documents", domain.ErrDocumentsIncomplete, http.StatusBadRequest},
		{"already admin", domain.ErrAlreadyAdmin, http.StatusBadRequest},
		{"bad amortization terms", amortization.ErrInvalidTerms, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"echo error", echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["message"] == "" {
				t.Fatalf("expected message envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestHTTPErrorHandler_WrappedErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewHTTPErrorHandler(zerolog.Nop())
	handler(errors.Join(errors.New("context"), domain.ErrLoanNotFound), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("wrapped sentinel must still map, got %d", rec.Code)
	}
}

func TestHTTPErrorHandler_InternalErrorHidesDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := NewHTTPErrorHandler(zerolog.Nop())
	handler(errors.New("mongo: socket closed unexpectedly"), c)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["message"] != "internal server error" {
		t.Fatalf("internal detail must not leak, got %q", body["message"])
	}
}
