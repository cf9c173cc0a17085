package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quickloan/lending-system/internal/api/metrics"
	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// EMIHandler handles HTTP requests for installment operations.
type EMIHandler struct {
	service ports.EMIService
}

func NewEMIHandler(service ports.EMIService) *EMIHandler {
	return &EMIHandler{service: service}
}

type payEMIRequest struct {
	PaymentID string `json:"payment_id,omitempty"`
}

type manualUpdateEMIRequest struct {
	Status           string     `json:"status"            validate:"required,oneof=pending paid overdue"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	LateFee          *float64   `json:"late_fee,omitempty"`
}

type generateEMIsResponse struct {
	EMIs          []*domain.EMI `json:"emis"`
	Count         int           `json:"count"`
	MonthlyAmount float64       `json:"monthly_amount"`
}

type listEMIsResponse struct {
	EMIs  []*domain.EMI `json:"emis"`
	Count int           `json:"count"`
}

// Generate handles POST /emis/generate/:loanId (admin).
//
// @Summary      Generate the installment schedule for an approved loan
// @Tags         emis
// @Produce      json
// @Security     BearerAuth
// @Param        loanId  path      string  true  "Loan id"
// @Success      201     {object}  generateEMIsResponse
// @Failure      404     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /emis/generate/{loanId} [post]
func (h *EMIHandler) Generate(c echo.Context) error {
	result, err := h.service.Generate(c.Request().Context(), c.Param("loanId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, generateEMIsResponse{
		EMIs:          result.EMIs,
		Count:         len(result.EMIs),
		MonthlyAmount: result.MonthlyAmount,
	})
}

// Pay handles PUT /emis/:id/pay.
//
// @Summary      Pay an installment
// @Tags         emis
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true   "Installment id"
// @Param        body  body      payEMIRequest  false  "Payment reference"
// @Success      200   {object}  domain.EMI
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /emis/{id}/pay [put]
func (h *EMIHandler) Pay(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	// Body is optional: an empty payment id gets a generated fallback.
	var body payEMIRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	emi, err := h.service.Pay(c.Request().Context(), ports.PayEMIInput{
		EMIID:     c.Param("id"),
		Requester: req,
		PaymentID: body.PaymentID,
	})
	if err != nil {
		return err
	}

	timeliness := "on_time"
	if emi.LateFee > 0 {
		timeliness = "late"
		metrics.LateFeesCollected.Add(emi.LateFee)
	}
	metrics.EMIPaymentsTotal.WithLabelValues(timeliness).Inc()

	return c.JSON(http.StatusOK, emi)
}

// ManualUpdate handles PUT /emis/:id/manual-update (admin). It records
// offline payments and explicit status corrections.
//
// @Summary      Manually update an installment
// @Tags         emis
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "Installment id"
// @Param        body  body      manualUpdateEMIRequest  true  "New state"
// @Success      200   {object}  domain.EMI
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /emis/{id}/manual-update [put]
func (h *EMIHandler) ManualUpdate(c echo.Context) error {
	var body manualUpdateEMIRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	emi, err := h.service.ManualUpdate(c.Request().Context(), ports.ManualUpdateEMIInput{
		EMIID:            c.Param("id"),
		Status:           domain.EMIStatus(body.Status),
		PaymentDate:      body.PaymentDate,
		PaymentReference: body.PaymentReference,
		LateFee:          body.LateFee,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, emi)
}

// SweepOverdue handles GET /emis/update-overdue (admin): flips every
// past-due pending installment to overdue.
//
// @Summary      Mark past-due installments overdue
// @Tags         emis
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listEMIsResponse
// @Failure      403  {object}  map[string]string
// @Router       /emis/update-overdue [get]
func (h *EMIHandler) SweepOverdue(c echo.Context) error {
	swept, err := h.service.SweepOverdue(c.Request().Context())
	if err != nil {
		return err
	}
	metrics.EMIsSweptOverdueTotal.Add(float64(len(swept)))
	return c.JSON(http.StatusOK, listEMIsResponse{EMIs: swept, Count: len(swept)})
}

// ListAll handles GET /emis (admin).
//
// @Summary      List all installments
// @Tags         emis
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listEMIsResponse
// @Failure      403  {object}  map[string]string
// @Router       /emis [get]
func (h *EMIHandler) ListAll(c echo.Context) error {
	emis, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listEMIsResponse{EMIs: emis, Count: len(emis)})
}

// ListMine handles GET /emis/me.
//
// @Summary      List own installments
// @Tags         emis
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listEMIsResponse
// @Failure      401  {object}  map[string]string
// @Router       /emis/me [get]
func (h *EMIHandler) ListMine(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}
	emis, err := h.service.ListMine(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listEMIsResponse{EMIs: emis, Count: len(emis)})
}

// ListByLoan handles GET /emis/loan/:loanId.
//
// @Summary      List a loan's installments
// @Tags         emis
// @Produce      json
// @Security     BearerAuth
// @Param        loanId  path      string  true  "Loan id"
// @Success      200     {object}  listEMIsResponse
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /emis/loan/{loanId} [get]
func (h *EMIHandler) ListByLoan(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}
	emis, err := h.service.ListByLoan(c.Request().Context(), c.Param("loanId"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listEMIsResponse{EMIs: emis, Count: len(emis)})
}
