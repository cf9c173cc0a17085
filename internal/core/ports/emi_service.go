package ports

import (
	"context"
	"time"

	"github.com/quickloan/lending-system/internal/core/domain"
)

// GenerateEMIsResult summarises a freshly created installment schedule.
type GenerateEMIsResult struct {
	EMIs          []*domain.EMI
	MonthlyAmount float64
}

// PayEMIInput carries an installment payment. PaymentID is the external
// gateway reference; a fallback is generated when empty.
type PayEMIInput struct {
	EMIID     string
	Requester Requester
	PaymentID string
}

// ManualUpdateEMIInput records an offline (cash) payment or an explicit
// status correction by an admin. LateFee, when non-nil, overrides the
// computed fee.
type ManualUpdateEMIInput struct {
	EMIID            string
	Status           domain.EMIStatus
	PaymentDate      *time.Time
	PaymentReference string
	LateFee          *float64
}

// EMIService defines use-case operations over installments.
type EMIService interface {
	// Generate creates the full schedule for an approved loan. Rejected when
	// installments already exist for the loan.
	Generate(ctx context.Context, loanID string) (*GenerateEMIsResult, error)
	Pay(ctx context.Context, input PayEMIInput) (*domain.EMI, error)
	ManualUpdate(ctx context.Context, input ManualUpdateEMIInput) (*domain.EMI, error)
	// SweepOverdue flips every past-due pending installment to overdue and
	// returns the newly overdue ones. Late fees stay lazy: they are computed
	// at payment time, not here.
	SweepOverdue(ctx context.Context) ([]*domain.EMI, error)
	ListAll(ctx context.Context) ([]*domain.EMI, error)
	ListMine(ctx context.Context, userID string) ([]*domain.EMI, error)
	// ListByLoan enforces ownership: only the loan's owner or an admin.
	ListByLoan(ctx context.Context, loanID string, req Requester) ([]*domain.EMI, error)
}
