package handler

import (
	"github.com/quickloan/lending-system/internal/core/domain"
)

// --- Request / Response types ---

type applyLoanRequest struct {
	Amount     float64 `json:"amount"      validate:"required,gt=0"`
	Purpose    string  `json:"purpose"     validate:"required"`
	TermMonths int     `json:"term_months" validate:"required,min=1"`

	// Optional applicant details, persisted onto the profile and
	// snapshotted onto the loan.
	FullName        string  `json:"full_name,omitempty"`
	Email           string  `json:"email,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	Address         string  `json:"address,omitempty"`
	AnnualIncome    float64 `json:"annual_income,omitempty"`
	EmploymentType  string  `json:"employment_type,omitempty"`
	EmploymentYears string  `json:"employment_years,omitempty"`
}

type applyLoanResponse struct {
	Loan               *domain.Loan              `json:"loan"`
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
}

type rejectLoanRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type approveLoanResponse struct {
	Loan          *domain.Loan `json:"loan"`
	EMICount      int          `json:"emi_count"`
	MonthlyAmount float64      `json:"monthly_amount"`
}

type listLoansResponse struct {
	Loans []*domain.Loan `json:"loans"`
	Count int            `json:"count"`
}

type scheduleRowResponse struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

type loanScheduleResponse struct {
	LoanID string                `json:"loan_id"`
	Rows   []scheduleRowResponse `json:"rows"`
}
