package ports

import (
	"context"
	"time"

	"github.com/quickloan/lending-system/internal/core/domain"
)

// EMIRepository defines persistence operations for installments.
// All list queries return installments sorted by due date ascending.
type EMIRepository interface {
	// InsertBatch writes a loan's full installment schedule in one operation.
	InsertBatch(ctx context.Context, emis []*domain.EMI) error
	FindByID(ctx context.Context, id string) (*domain.EMI, error)
	Update(ctx context.Context, emi *domain.EMI) error
	ListAll(ctx context.Context) ([]*domain.EMI, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.EMI, error)
	ListByLoan(ctx context.Context, loanID string) ([]*domain.EMI, error)
	CountByLoan(ctx context.Context, loanID string) (int64, error)
	// FindPendingDueBefore returns pending installments whose due date has passed.
	FindPendingDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.EMI, error)
	// MarkOverdue flips the given installments to overdue in one write.
	MarkOverdue(ctx context.Context, ids []string) error
}
