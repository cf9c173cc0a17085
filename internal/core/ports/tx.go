package ports

import "context"

// TransactionRunner executes fn inside a single atomic unit of work. The loan
// approval sequence (status write plus installment batch insert) must not be
// observable half-applied.
type TransactionRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
