package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quickloan/lending-system/internal/api/metrics"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// LoanHandler handles HTTP requests for the loan lifecycle.
type LoanHandler struct {
	service ports.LoanService
}

func NewLoanHandler(service ports.LoanService) *LoanHandler {
	return &LoanHandler{service: service}
}

// Apply handles POST /loans.
//
// @Summary      Apply for a loan
// @Tags         loans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      applyLoanRequest  true  "Loan application"
// @Success      201   {object}  applyLoanResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /loans [post]
func (h *LoanHandler) Apply(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	var body applyLoanRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Apply(c.Request().Context(), ports.ApplyLoanInput{
		UserID:          req.UserID,
		Amount:          body.Amount,
		Purpose:         body.Purpose,
		TermMonths:      body.TermMonths,
		FullName:        body.FullName,
		Email:           body.Email,
		Phone:           body.Phone,
		Address:         body.Address,
		AnnualIncome:    body.AnnualIncome,
		EmploymentType:  body.EmploymentType,
		EmploymentYears: body.EmploymentYears,
	})
	if err != nil {
		return err
	}

	metrics.LoanApplicationsTotal.Inc()
	metrics.LoanAmountApplied.Observe(body.Amount)

	return c.JSON(http.StatusCreated, applyLoanResponse{
		Loan:               sanitizeLoan(result.Loan, req.IsAdmin()),
		VerificationStatus: result.VerificationStatus,
	})
}

// ListAll handles GET /loans (admin).
//
// @Summary      List all loans
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listLoansResponse
// @Failure      403  {object}  map[string]string
// @Router       /loans [get]
func (h *LoanHandler) ListAll(c echo.Context) error {
	loans, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listLoansResponse{Loans: loans, Count: len(loans)})
}

// ListPending handles GET /loans/pending (admin, oldest first).
//
// @Summary      List pending loans for triage
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listLoansResponse
// @Failure      403  {object}  map[string]string
// @Router       /loans/pending [get]
func (h *LoanHandler) ListPending(c echo.Context) error {
	loans, err := h.service.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listLoansResponse{Loans: loans, Count: len(loans)})
}

// ListMine handles GET /loans/me.
//
// @Summary      List own loans
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listLoansResponse
// @Failure      401  {object}  map[string]string
// @Router       /loans/me [get]
func (h *LoanHandler) ListMine(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}
	loans, err := h.service.ListMine(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listLoansResponse{
		Loans: sanitizeLoans(loans, req.IsAdmin()),
		Count: len(loans),
	})
}

// Get handles GET /loans/:id.
//
// @Summary      Get a loan
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Loan id"
// @Success      200  {object}  domain.Loan
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /loans/{id} [get]
func (h *LoanHandler) Get(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	loan, err := h.service.Get(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sanitizeLoan(loan, req.IsAdmin()))
}

// Schedule handles GET /loans/:id/schedule — the advisory amortization table.
//
// @Summary      Amortization schedule for an approved loan
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Loan id"
// @Success      200  {object}  loanScheduleResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /loans/{id}/schedule [get]
func (h *LoanHandler) Schedule(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	rows, err := h.service.Schedule(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}

	resp := loanScheduleResponse{LoanID: c.Param("id"), Rows: make([]scheduleRowResponse, 0, len(rows))}
	for _, r := range rows {
		resp.Rows = append(resp.Rows, scheduleRowResponse{
			Month:     r.Month,
			Payment:   r.Payment,
			Principal: r.Principal,
			Interest:  r.Interest,
			Balance:   r.Balance,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Approve handles PUT /loans/:id/approve (admin).
//
// @Summary      Approve a pending loan and generate its installments
// @Tags         loans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Loan id"
// @Success      200  {object}  approveLoanResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /loans/{id}/approve [put]
func (h *LoanHandler) Approve(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	result, err := h.service.Approve(c.Request().Context(), c.Param("id"), req.UserID)
	if err != nil {
		return err
	}

	metrics.LoanDecisionsTotal.WithLabelValues("approved").Inc()

	return c.JSON(http.StatusOK, approveLoanResponse{
		Loan:          result.Loan,
		EMICount:      result.EMICount,
		MonthlyAmount: result.MonthlyAmount,
	})
}

// Reject handles PUT /loans/:id/reject (admin).
//
// @Summary      Reject a pending loan
// @Tags         loans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Loan id"
// @Param        body  body      rejectLoanRequest  true  "Rejection reason"
// @Success      200   {object}  domain.Loan
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /loans/{id}/reject [put]
func (h *LoanHandler) Reject(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	var body rejectLoanRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	loan, err := h.service.Reject(c.Request().Context(), c.Param("id"), req.UserID, body.Reason)
	if err != nil {
		return err
	}

	metrics.LoanDecisionsTotal.WithLabelValues("rejected").Inc()

	return c.JSON(http.StatusOK, loan)
}
