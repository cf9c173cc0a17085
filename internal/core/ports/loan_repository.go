package ports

import (
	"context"

	"github.com/quickloan/lending-system/internal/core/domain"
)

// LoanFilter narrows and orders loan list queries.
type LoanFilter struct {
	UserID string            // empty = no owner filter
	Status domain.LoanStatus // empty = any status
	// OldestFirst sorts ascending by application date (admin triage queue);
	// default is newest-first.
	OldestFirst bool
}

// LoanAggregate is the per-status rollup used by the admin dashboard.
type LoanAggregate struct {
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// LoanRepository defines persistence operations for loan applications.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)
	FindByID(ctx context.Context, id string) (*domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error
	List(ctx context.Context, filter LoanFilter) ([]*domain.Loan, error)
	// UpdateStatus performs a point status write (used for the paid flip once
	// the final installment settles).
	UpdateStatus(ctx context.Context, id string, status domain.LoanStatus) error
	// DistinctUserIDs returns the owner ids of every loan in the system.
	DistinctUserIDs(ctx context.Context) ([]string, error)
	// CountByUser returns total and pending loan counts for one user.
	CountByUser(ctx context.Context, userID string) (total, pending int64, err error)
	// SetVerificationForPending stamps the verification snapshot onto all of
	// the user's still-pending loans.
	SetVerificationForPending(ctx context.Context, userID string, status domain.VerificationStatus, notes string) (int64, error)
	// AggregateByStatus rolls up counts and summed amounts per loan status.
	AggregateByStatus(ctx context.Context) (map[domain.LoanStatus]LoanAggregate, error)
}
