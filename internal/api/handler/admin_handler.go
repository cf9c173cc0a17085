package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quickloan/lending-system/internal/api/metrics"
	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// AdminHandler backs the verification panel and the dashboard.
type AdminHandler struct {
	service ports.AdminService
	store   ports.DocumentStore
}

func NewAdminHandler(service ports.AdminService, store ports.DocumentStore) *AdminHandler {
	return &AdminHandler{service: service, store: store}
}

type verifyUserRequest struct {
	Status string `json:"status" validate:"required,oneof=verified rejected pending"`
	Notes  string `json:"notes,omitempty"`
}

type quickVerifyRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type verificationQueueResponse struct {
	Users []ports.VerificationCandidate `json:"users"`
	Count int                           `json:"count"`
}

// PendingVerifications handles GET /admin/pending-verifications.
//
// @Summary      Verification triage queue
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  verificationQueueResponse
// @Failure      403  {object}  map[string]string
// @Router       /admin/pending-verifications [get]
func (h *AdminHandler) PendingVerifications(c echo.Context) error {
	candidates, err := h.service.VerificationCandidates(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verificationQueueResponse{Users: candidates, Count: len(candidates)})
}

// UserDocuments handles GET /admin/user-documents/:userId.
//
// @Summary      A user's KYC document slots
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "User id"
// @Success      200     {object}  ports.UserDocumentsView
// @Failure      404     {object}  map[string]string
// @Router       /admin/user-documents/{userId} [get]
func (h *AdminHandler) UserDocuments(c echo.Context) error {
	view, err := h.service.UserDocuments(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Document handles GET /admin/documents/:filename — streams a stored upload
// back to the reviewer.
//
// @Summary      Download a stored KYC document
// @Tags         admin
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        filename  path  string  true  "Stored filename"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /admin/documents/{filename} [get]
func (h *AdminHandler) Document(c echo.Context) error {
	rc, err := h.store.Open(c.Param("filename"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
}

// VerifyUser handles PUT /admin/verify-user/:userId.
//
// @Summary      Record a KYC decision for a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string             true  "User id"
// @Param        body    body      verifyUserRequest  true  "Decision"
// @Success      200     {object}  domain.User
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /admin/verify-user/{userId} [put]
func (h *AdminHandler) VerifyUser(c echo.Context) error {
	var body verifyUserRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.UpdateVerification(c.Request().Context(), ports.VerificationDecision{
		UserID: c.Param("userId"),
		Status: domain.VerificationStatus(body.Status),
		Notes:  body.Notes,
	})
	if err != nil {
		return err
	}

	metrics.VerificationDecisionsTotal.WithLabelValues(body.Status).Inc()

	return c.JSON(http.StatusOK, user)
}

// QuickVerify handles POST /admin/quick-verify — force-verifies a user
// without document review.
//
// @Summary      Force-verify a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      quickVerifyRequest  true  "Target user"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /admin/quick-verify [post]
func (h *AdminHandler) QuickVerify(c echo.Context) error {
	var body quickVerifyRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.QuickVerify(c.Request().Context(), body.UserID)
	if err != nil {
		return err
	}

	metrics.VerificationDecisionsTotal.WithLabelValues(string(domain.VerificationVerified)).Inc()

	return c.JSON(http.StatusOK, user)
}

// Stats handles GET /admin/stats.
//
// @Summary      Dashboard aggregates
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.AdminStats
// @Failure      403  {object}  map[string]string
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
