package ports

import (
	"context"

	"github.com/quickloan/lending-system/internal/core/amortization"
	"github.com/quickloan/lending-system/internal/core/domain"
)

// ApplyLoanInput carries a new loan application. The personal and employment
// fields are optional; when supplied they are persisted onto the applicant's
// profile and snapshotted onto the loan.
type ApplyLoanInput struct {
	UserID     string
	Amount     float64
	Purpose    string
	TermMonths int

	FullName        string
	Email           string
	Phone           string
	Address         string
	AnnualIncome    float64
	EmploymentType  string
	EmploymentYears string
}

// ApplyLoanResult is returned after a successful application.
type ApplyLoanResult struct {
	Loan               *domain.Loan
	VerificationStatus domain.VerificationStatus
}

// ApproveLoanResult is returned after approval: the updated loan plus a
// summary of the generated installment schedule.
type ApproveLoanResult struct {
	Loan          *domain.Loan
	EMICount      int
	MonthlyAmount float64
}

// Requester identifies the authenticated caller for ownership checks.
type Requester struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role.
func (r Requester) IsAdmin() bool {
	return r.Role == domain.RoleAdmin
}

// LoanService defines use-case operations over the loan lifecycle.
type LoanService interface {
	Apply(ctx context.Context, input ApplyLoanInput) (*ApplyLoanResult, error)
	// ListAll returns every loan, newest application first (admin).
	ListAll(ctx context.Context) ([]*domain.Loan, error)
	// ListPending returns pending loans, oldest first, for admin triage.
	ListPending(ctx context.Context) ([]*domain.Loan, error)
	// ListMine returns the caller's loans, newest first.
	ListMine(ctx context.Context, userID string) ([]*domain.Loan, error)
	// Get enforces ownership: only the owner or an admin may read a loan.
	Get(ctx context.Context, id string, req Requester) (*domain.Loan, error)
	// Schedule returns the advisory amortization table for an approved loan.
	Schedule(ctx context.Context, id string, req Requester) ([]amortization.ScheduleRow, error)
	Approve(ctx context.Context, id, adminID string) (*ApproveLoanResult, error)
	Reject(ctx context.Context, id, adminID, reason string) (*domain.Loan, error)
}
